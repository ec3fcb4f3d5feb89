//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"onboard/internal/onboarding/catalog"
	"onboard/internal/onboarding/models"
	"onboard/internal/onboarding/store"
	id "onboard/pkg/domain"
	"onboard/pkg/platform/sentinel"
	"onboard/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisSessionStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client, time.Hour)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func newRedisTestSession(token string) *models.Session {
	session := &models.Session{
		ID:        id.SessionID(uuid.New()),
		UserID:    id.UserID(uuid.New()),
		Token:     token,
		CreatedAt: time.Now().Truncate(time.Second),
		UpdatedAt: time.Now().Truncate(time.Second),
		UserData: models.UserDataRecord{
			Email: "officer@bank.qa",
			Personal: &models.PersonalInfo{
				FirstName: "Lina",
				LastName:  "Hassan",
				JobTitle:  "Compliance Officer",
			},
		},
	}
	session.SetStep(catalog.StepPersonalInfo)
	return session
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	token := "redis-" + uuid.NewString()
	sess := newRedisTestSession(token)

	s.Require().NoError(s.store.Save(ctx, sess))

	found, err := s.store.FindByToken(ctx, token)
	s.Require().NoError(err)

	s.Equal(sess.ID, found.ID)
	s.Equal(sess.UserID, found.UserID)
	s.Equal(sess.StepNumber, found.StepNumber)
	step, ok := found.Step()
	s.Require().True(ok)
	s.Equal(catalog.StepPersonalInfo, step)
	s.Equal(sess.UserData.Email, found.UserData.Email)
	s.Require().NotNil(found.UserData.Personal)
	s.Equal("Lina", found.UserData.Personal.FirstName)
}

func (s *RedisStoreSuite) TestRawTokenNeverStored() {
	ctx := context.Background()
	token := "secret-" + uuid.NewString()
	sess := newRedisTestSession(token)
	// Transient flags must not leak into persistence either.
	sess.IsLoading = true
	sess.IsRestoring = true

	s.Require().NoError(s.store.Save(ctx, sess))

	keys, err := s.redis.Client.Keys(ctx, "*").Result()
	s.Require().NoError(err)
	s.Require().Len(keys, 1)
	s.NotContains(keys[0], token, "key must be a digest, not the raw token")

	raw, err := s.redis.Client.Get(ctx, keys[0]).Result()
	s.Require().NoError(err)
	s.NotContains(raw, `"isLoading"`)
	s.NotContains(raw, `"isRestoring"`)
}

func (s *RedisStoreSuite) TestTTLApplied() {
	ctx := context.Background()
	token := "ttl-" + uuid.NewString()
	s.Require().NoError(s.store.Save(ctx, newRedisTestSession(token)))

	keys, err := s.redis.Client.Keys(ctx, "*").Result()
	s.Require().NoError(err)
	s.Require().Len(keys, 1)

	ttl, err := s.redis.Client.TTL(ctx, keys[0]).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0), "session keys must expire")
	s.LessOrEqual(ttl, time.Hour)
}

func (s *RedisStoreSuite) TestNotFound() {
	_, err := s.store.FindByToken(context.Background(), "missing-"+uuid.NewString())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestDeleteIdempotent() {
	ctx := context.Background()
	token := "del-" + uuid.NewString()
	s.Require().NoError(s.store.Save(ctx, newRedisTestSession(token)))

	s.Require().NoError(s.store.DeleteByToken(ctx, token))
	_, err := s.store.FindByToken(ctx, token)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.DeleteByToken(ctx, token))
}

func (s *RedisStoreSuite) TestConcurrentSavesLastWriterWins() {
	ctx := context.Background()
	token := "race-" + uuid.NewString()

	const goroutines = 20
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := newRedisTestSession(token)
			sess.SetStep(catalog.StepOrganizationInfo)
			s.NoError(s.store.Save(ctx, sess))
		}()
	}
	wg.Wait()

	found, err := s.store.FindByToken(ctx, token)
	s.Require().NoError(err)
	step, ok := found.Step()
	s.Require().True(ok)
	s.Equal(catalog.StepOrganizationInfo, step)
}
