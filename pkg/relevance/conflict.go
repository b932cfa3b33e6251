package relevance

import (
	"sort"

	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/index"
)

// ResolutionPriority is the only resolution policy currently implemented:
// higher similarity wins, name ascending breaks ties.
const ResolutionPriority = "priority"

// ConflictResult reports trigger overlap among candidates. A conflict is an
// informational signal, not a failure: the resolver still produces a total
// activation order.
type ConflictResult struct {
	HasConflict bool
	Skills      []string
	Resolution  string
}

// DetectConflicts flags a conflict when two or more candidates share
// overlapping trigger pattern space, i.e. they were both selected for the
// same query. The returned skill names are sorted for stable reporting.
func DetectConflicts(candidates []index.Entry) ConflictResult {
	result := ConflictResult{Resolution: ResolutionPriority}
	if len(candidates) < 2 {
		return result
	}

	names := make([]string, len(candidates))
	for i, entry := range candidates {
		names[i] = entry.Name
	}
	sort.Strings(names)

	result.HasConflict = true
	result.Skills = names
	return result
}

// ResolveByPriority orders scored candidates for admission: similarity
// descending, name ascending on ties. The stable sort makes the order
// deterministic for a fixed input set; this order governs which skills get
// first claim on the remaining session budget.
func ResolveByPriority(scored []ScoredSkill) []ScoredSkill {
	out := make([]ScoredSkill, len(scored))
	copy(out, scored)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	return out
}
