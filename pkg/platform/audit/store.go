package audit

import "context"

// Store persists audit events. The Postgres implementation writes through
// the transactional outbox; the memory implementation backs tests.
type Store interface {
	Append(ctx context.Context, event Event) error
}
