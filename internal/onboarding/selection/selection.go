// Package selection implements the objective/framework selection rules. The
// enrichment collaborator proposes candidate lists; this package decides
// what the selected subset becomes when candidates arrive or change.
package selection

import (
	"onboard/internal/onboarding/models"
	platformstrings "onboard/pkg/platform/strings"
)

// Apply computes the selected subset for a candidate list.
//
// When existing is nil (no selection has ever been made) every candidate is
// selected: the product defaults to "all selected" on first arrival so the
// user deselects rather than builds a list from nothing. When a saved
// selection exists it is restored, intersected with the current candidates
// so IDs that the enrichment service no longer proposes are dropped.
//
// An explicit empty selection (non-nil, zero length) is preserved: the user
// deselected everything and a refresh must not silently reselect it all.
func Apply(existing []string, candidates []models.Candidate) []string {
	if existing == nil {
		selected := make([]string, 0, len(candidates))
		for _, c := range candidates {
			selected = append(selected, c.ID)
		}
		return platformstrings.DedupeAndTrim(selected)
	}

	valid := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		valid[c.ID] = struct{}{}
	}

	selected := make([]string, 0, len(existing))
	for _, id := range platformstrings.DedupeAndTrim(existing) {
		if _, ok := valid[id]; ok {
			selected = append(selected, id)
		}
	}
	return selected
}
