package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboard/internal/onboarding/catalog"
	id "onboard/pkg/domain"
	dErrors "onboard/pkg/domain-errors"
)

func TestMerge(t *testing.T) {
	t.Run("set fields replace, absent fields never clear", func(t *testing.T) {
		record := UserDataRecord{
			Email:    "first@bank.qa",
			Personal: &PersonalInfo{FirstName: "Lina"},
		}

		record.Merge(Fragment{
			Organization: &OrganizationInfo{Name: "Nile Capital"},
		})

		assert.Equal(t, "first@bank.qa", record.Email)
		require.NotNil(t, record.Personal)
		assert.Equal(t, "Lina", record.Personal.FirstName)
		require.NotNil(t, record.Organization)
		assert.Equal(t, "Nile Capital", record.Organization.Name)
	})

	t.Run("later fragment replaces the same field", func(t *testing.T) {
		record := UserDataRecord{Email: "old@bank.qa"}
		record.Merge(Fragment{Email: "new@bank.qa"})
		assert.Equal(t, "new@bank.qa", record.Email)
	})

	t.Run("disjoint merges commute", func(t *testing.T) {
		a := Fragment{Email: "officer@bank.qa"}
		b := Fragment{Personal: &PersonalInfo{FirstName: "Omar"}}
		c := Fragment{Objectives: &ObjectiveInfo{BusinessObjectives: []string{"obj-risk"}}}

		var ab UserDataRecord
		ab.Merge(a)
		ab.Merge(b)
		ab.Merge(c)

		var ba UserDataRecord
		ba.Merge(c)
		ba.Merge(b)
		ba.Merge(a)

		assert.Equal(t, ab, ba)
	})

	t.Run("empty fragment is a no-op", func(t *testing.T) {
		record := UserDataRecord{
			Email:      "keep@bank.qa",
			Objectives: &ObjectiveInfo{ComplianceFrameworks: []string{"fw-cbe"}},
		}
		before := record
		record.Merge(Fragment{})
		assert.Equal(t, before, record)
	})
}

func TestSet(t *testing.T) {
	t.Run("updates exactly one field", func(t *testing.T) {
		record := UserDataRecord{
			Email:    "keep@bank.qa",
			Personal: &PersonalInfo{FirstName: "Lina"},
		}

		require.NoError(t, record.Set("organization", &OrganizationInfo{Name: "Nile Capital"}))

		assert.Equal(t, "keep@bank.qa", record.Email)
		require.NotNil(t, record.Personal)
		assert.Equal(t, "Lina", record.Personal.FirstName)
		require.NotNil(t, record.Organization)
		assert.Equal(t, "Nile Capital", record.Organization.Name)
	})

	t.Run("can clear a field, unlike Merge", func(t *testing.T) {
		record := UserDataRecord{Objectives: &ObjectiveInfo{BusinessObjectives: []string{"obj-risk"}}}
		require.NoError(t, record.Set("objectives", (*ObjectiveInfo)(nil)))
		assert.Nil(t, record.Objectives)

		record.Email = "gone@bank.qa"
		require.NoError(t, record.Set("email", ""))
		assert.Empty(t, record.Email)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		var record UserDataRecord
		err := record.Set("password", "never")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects mismatched value types", func(t *testing.T) {
		var record UserDataRecord
		err := record.Set("personal", "not a fragment")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		assert.Nil(t, record.Personal)
	})
}

func TestSessionStep(t *testing.T) {
	t.Run("SetStep keeps the cached rank in sync", func(t *testing.T) {
		var session Session
		for _, step := range catalog.All() {
			session.SetStep(step)
			got, ok := session.Step()
			require.True(t, ok)
			assert.Equal(t, step, got)
			assert.Equal(t, catalog.Rank(step), session.StepNumber)
		}
	})

	t.Run("Step reports unset", func(t *testing.T) {
		var session Session
		_, ok := session.Step()
		assert.False(t, ok)
	})
}

func TestSessionClear(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	session := Session{
		ID:        id.SessionID(uuid.New()),
		UserID:    id.UserID(uuid.New()),
		Token:     "tok",
		CreatedAt: created,
		UpdatedAt: time.Now(),
		UserData: UserDataRecord{
			Email:    "gone@bank.qa",
			Personal: &PersonalInfo{FirstName: "Lina"},
		},
		IsLoading:   true,
		IsRestoring: true,
	}
	session.SetStep(catalog.StepOrganizationInfo)

	keptID := session.ID
	session.Clear()

	assert.Equal(t, keptID, session.ID, "identity survives a clear")
	assert.Equal(t, created, session.CreatedAt)
	assert.Empty(t, session.Token)
	assert.True(t, session.UserID.IsNil())
	_, ok := session.Step()
	assert.False(t, ok)
	assert.Zero(t, session.StepNumber)
	assert.Equal(t, UserDataRecord{}, session.UserData)
	assert.False(t, session.IsLoading)
	assert.False(t, session.IsRestoring)
}
