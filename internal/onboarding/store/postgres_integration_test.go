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

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresSessionStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "onboarding_sessions")
	s.Require().NoError(err)
}

func newPgTestSession(token string) *models.Session {
	session := &models.Session{
		ID:        id.SessionID(uuid.New()),
		UserID:    id.UserID(uuid.New()),
		Token:     token,
		CreatedAt: time.Now().Truncate(time.Microsecond),
		UpdatedAt: time.Now().Truncate(time.Microsecond),
		UserData: models.UserDataRecord{
			Email: "analyst@bank.eg",
			Organization: &models.OrganizationInfo{
				Name:    "Nile Capital",
				Country: "EG",
			},
		},
	}
	session.SetStep(catalog.StepOrganizationInfo)
	return session
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	token := "pg-" + uuid.NewString()
	sess := newPgTestSession(token)

	s.Require().NoError(s.store.Save(ctx, sess))

	found, err := s.store.FindByToken(ctx, token)
	s.Require().NoError(err)

	s.Equal(sess.ID, found.ID)
	s.Equal(sess.UserID, found.UserID)
	s.Equal(token, found.Token, "caller's token is carried back")
	step, ok := found.Step()
	s.Require().True(ok)
	s.Equal(catalog.StepOrganizationInfo, step)
	s.Equal(catalog.Rank(catalog.StepOrganizationInfo), found.StepNumber)
	s.Require().NotNil(found.UserData.Organization)
	s.Equal("Nile Capital", found.UserData.Organization.Name)
	s.Equal(sess.CreatedAt.UnixMicro(), found.CreatedAt.UnixMicro())
}

func (s *PostgresStoreSuite) TestUpsertByTokenDigest() {
	ctx := context.Background()
	token := "upsert-" + uuid.NewString()
	sess := newPgTestSession(token)

	s.Require().NoError(s.store.Save(ctx, sess))

	sess.SetStep(catalog.StepBusinessObjectives)
	sess.UserData.Objectives = &models.ObjectiveInfo{
		BusinessObjectives: []string{"obj-risk"},
	}
	sess.UpdatedAt = time.Now()
	s.Require().NoError(s.store.Save(ctx, sess))

	found, err := s.store.FindByToken(ctx, token)
	s.Require().NoError(err)
	step, ok := found.Step()
	s.Require().True(ok)
	s.Equal(catalog.StepBusinessObjectives, step)
	s.Require().NotNil(found.UserData.Objectives)
	s.Equal([]string{"obj-risk"}, found.UserData.Objectives.BusinessObjectives)

	var count int
	err = s.postgres.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM onboarding_sessions`).Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count, "re-saving the same token must not create a second row")
}

func (s *PostgresStoreSuite) TestRawTokenNeverStored() {
	ctx := context.Background()
	token := "secret-" + uuid.NewString()
	s.Require().NoError(s.store.Save(ctx, newPgTestSession(token)))

	var digest string
	err := s.postgres.Pool.QueryRow(ctx,
		`SELECT token_digest FROM onboarding_sessions`).Scan(&digest)
	s.Require().NoError(err)
	s.NotEqual(token, digest)
	s.Len(digest, 64, "sha-256 hex digest")
}

func (s *PostgresStoreSuite) TestNilStepAndUser() {
	ctx := context.Background()
	token := "bare-" + uuid.NewString()
	sess := newPgTestSession(token)
	sess.CurrentStep = nil
	sess.StepNumber = 0
	sess.UserID = id.UserID{}

	s.Require().NoError(s.store.Save(ctx, sess))

	found, err := s.store.FindByToken(ctx, token)
	s.Require().NoError(err)
	_, ok := found.Step()
	s.False(ok)
	s.True(found.UserID.IsNil())
}

func (s *PostgresStoreSuite) TestNotFound() {
	_, err := s.store.FindByToken(context.Background(), "missing-"+uuid.NewString())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDeleteIdempotent() {
	ctx := context.Background()
	token := "del-" + uuid.NewString()
	s.Require().NoError(s.store.Save(ctx, newPgTestSession(token)))

	s.Require().NoError(s.store.DeleteByToken(ctx, token))
	_, err := s.store.FindByToken(ctx, token)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.DeleteByToken(ctx, token))
}

func (s *PostgresStoreSuite) TestConcurrentUpserts() {
	ctx := context.Background()
	token := "race-" + uuid.NewString()

	const goroutines = 30
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.store.Save(ctx, newPgTestSession(token)))
		}()
	}
	wg.Wait()

	var count int
	err := s.postgres.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM onboarding_sessions`).Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count, "concurrent saves of one token converge on one row")
}
