package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "onboard/pkg/platform/audit"
	"onboard/pkg/platform/audit/store/memory"
)

func TestEmit_FlushesToStore(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithFlushInterval(10*time.Millisecond))

	pub.Emit(context.Background(), audit.SecurityEvent{
		Subject: "session-1",
		Action:  string(audit.EventStepRejected),
		Reason:  "forward_navigation",
	})
	require.NoError(t, pub.Close())

	events, err := store.ListBySubject(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
	assert.Equal(t, "forward_navigation", events[0].Reason)
}

func TestEmit_DefaultsSeverityAndTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithFlushInterval(10*time.Millisecond))

	pub.Emit(context.Background(), audit.SecurityEvent{
		Subject: "session-1",
		Action:  string(audit.EventSessionExpired),
	})
	require.NoError(t, pub.Close())

	events, err := store.ListBySubject(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestEmit_DrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	// A long interval guarantees draining happens in Close, not the ticker.
	pub := New(store, WithFlushInterval(time.Hour))

	for range 25 {
		pub.Emit(context.Background(), audit.SecurityEvent{
			Subject: "session-1",
			Action:  string(audit.EventStepRejected),
		})
	}
	require.NoError(t, pub.Close())

	events, err := store.ListBySubject(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Len(t, events, 25, "all buffered events should be drained on close")
}

func TestEmit_NeverBlocksWhenFull(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithCapacity(2), WithFlushInterval(time.Hour))

	for range 10 {
		pub.Emit(context.Background(), audit.SecurityEvent{
			Subject: "session-1",
			Action:  string(audit.EventStepRejected),
		})
	}
	assert.Equal(t, int64(8), pub.Dropped(), "oldest events drop under pressure")
	require.NoError(t, pub.Close())
}
