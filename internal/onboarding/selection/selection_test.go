package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"onboard/internal/onboarding/models"
)

func candidates(ids ...string) []models.Candidate {
	out := make([]models.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Candidate{ID: id, Label: id})
	}
	return out
}

func TestApply(t *testing.T) {
	t.Run("first arrival defaults to all selected", func(t *testing.T) {
		got := Apply(nil, candidates("iso-27001", "pci-dss", "soc2"))
		assert.Equal(t, []string{"iso-27001", "pci-dss", "soc2"}, got)
	})

	t.Run("saved subset is restored", func(t *testing.T) {
		got := Apply([]string{"pci-dss"}, candidates("iso-27001", "pci-dss", "soc2"))
		assert.Equal(t, []string{"pci-dss"}, got)
	})

	t.Run("stale saved IDs are dropped", func(t *testing.T) {
		got := Apply([]string{"pci-dss", "retired-framework"}, candidates("iso-27001", "pci-dss"))
		assert.Equal(t, []string{"pci-dss"}, got)
	})

	t.Run("explicit empty selection survives a refresh", func(t *testing.T) {
		got := Apply([]string{}, candidates("iso-27001", "pci-dss"))
		assert.Empty(t, got)
	})

	t.Run("duplicates and whitespace in saved selection are cleaned", func(t *testing.T) {
		got := Apply([]string{" pci-dss ", "pci-dss", ""}, candidates("pci-dss", "soc2"))
		assert.Equal(t, []string{"pci-dss"}, got)
	})

	t.Run("empty candidate list yields empty selection", func(t *testing.T) {
		assert.Empty(t, Apply(nil, nil))
		assert.Empty(t, Apply([]string{"pci-dss"}, nil))
	})
}
