// Package session tracks which skills are active for one conversation and
// enforces a token budget over them. A session is intended for sequential
// use by a single logical conversation: callers serialize calls to one
// session, while distinct sessions share no mutable state and may run
// concurrently.
package session

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/tokens"
)

// ReasonBudgetExceeded is the structured failure reason returned when a load
// would exceed the session budget.
const ReasonBudgetExceeded = "budget-exceeded"

// ActiveSkill is the record kept for each loaded skill. A name maps to at
// most one record for the life of the session.
type ActiveSkill struct {
	Name             string
	Content          string
	RelevanceScore   float64
	TokenCost        int
	EstimatedSavings int
	LoadedAt         time.Time
}

// LoadResult reports the outcome of a Load call. Budget rejection is an
// ordinary outcome callers branch on, not an error.
type LoadResult struct {
	Success   bool
	Reason    string
	TokenCost int
}

// Report is a derived view over the current active set.
type Report struct {
	SessionID        string
	ActiveCount      int
	TokensUsed       int
	TokenBudget      int
	EstimatedSavings int
}

// SkillSession is an admission-controlled registry of active skills bounded
// by a token budget.
type SkillSession struct {
	id      string
	budget  int
	counter tokens.Counter

	active           map[string]*ActiveSkill
	order            []string // load order, for display
	tokensUsed       int
	estimatedSavings int
}

// New creates an empty session with the given token budget. A nil counter
// falls back to the heuristic estimator.
func New(budget int, counter tokens.Counter) *SkillSession {
	if counter == nil {
		counter = tokens.NewHeuristicCounter()
	}
	return &SkillSession{
		id:      uuid.NewString(),
		budget:  budget,
		counter: counter,
		active:  make(map[string]*ActiveSkill),
	}
}

// ID returns the session identifier.
func (s *SkillSession) ID() string {
	return s.id
}

// IsActive reports whether the named skill is currently loaded.
func (s *SkillSession) IsActive(name string) bool {
	_, ok := s.active[name]
	return ok
}

// Load admits a skill into the active set. Re-loading an active skill is a
// no-op success and never double-counts its cost. A load that would exceed
// the budget fails with ReasonBudgetExceeded and leaves the session state
// untouched: admission is atomic, the budget check runs against the exact
// pre-mutation sum.
func (s *SkillSession) Load(name, content string, relevanceScore float64, estimatedSavings int) LoadResult {
	if existing, ok := s.active[name]; ok {
		return LoadResult{Success: true, TokenCost: existing.TokenCost}
	}

	cost := s.counter.Estimate(content)
	if s.tokensUsed+cost > s.budget {
		return LoadResult{Success: false, Reason: ReasonBudgetExceeded, TokenCost: cost}
	}

	s.active[name] = &ActiveSkill{
		Name:             name,
		Content:          content,
		RelevanceScore:   relevanceScore,
		TokenCost:        cost,
		EstimatedSavings: estimatedSavings,
		LoadedAt:         time.Now(),
	}
	s.order = append(s.order, name)
	s.tokensUsed += cost
	s.estimatedSavings += estimatedSavings

	return LoadResult{Success: true, TokenCost: cost}
}

// Unload removes a skill from the active set, returning its cost to the
// budget. Returns false without mutating state when the skill is not active.
func (s *SkillSession) Unload(name string) bool {
	record, ok := s.active[name]
	if !ok {
		return false
	}

	delete(s.active, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.tokensUsed -= record.TokenCost
	s.estimatedSavings -= record.EstimatedSavings
	return true
}

// Clear empties the active set and zeroes the aggregates.
func (s *SkillSession) Clear() {
	s.active = make(map[string]*ActiveSkill)
	s.order = nil
	s.tokensUsed = 0
	s.estimatedSavings = 0
}

// GetSkillContent returns the stored content snapshot for an active skill.
func (s *SkillSession) GetSkillContent(name string) (string, bool) {
	record, ok := s.active[name]
	if !ok {
		return "", false
	}
	return record.Content, true
}

// ActiveSkills returns the active records in load order.
func (s *SkillSession) ActiveSkills() []ActiveSkill {
	out := make([]ActiveSkill, 0, len(s.active))
	for _, name := range s.order {
		out = append(out, *s.active[name])
	}
	return out
}

// GetReport returns the aggregate view over the current state.
func (s *SkillSession) GetReport() Report {
	return Report{
		SessionID:        s.id,
		ActiveCount:      len(s.active),
		TokensUsed:       s.tokensUsed,
		TokenBudget:      s.budget,
		EstimatedSavings: s.estimatedSavings,
	}
}

// FormatActiveSkillsDisplay renders a human-readable summary of the active
// set, sorted by name.
func (s *SkillSession) FormatActiveSkillsDisplay() string {
	var sb strings.Builder

	if len(s.active) == 0 {
		sb.WriteString("No skills are currently active.\n")
		return sb.String()
	}

	names := make([]string, 0, len(s.active))
	for name := range s.active {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("## Active Skills\n\n")
	for _, name := range names {
		record := s.active[name]
		sb.WriteString(fmt.Sprintf("### %s\n", record.Name))
		sb.WriteString(fmt.Sprintf("- **Relevance**: %.2f\n", record.RelevanceScore))
		sb.WriteString(fmt.Sprintf("- **Token cost**: %d\n", record.TokenCost))
		sb.WriteString(fmt.Sprintf("- **Loaded at**: %s\n\n", record.LoadedAt.Format(time.RFC3339)))
	}
	sb.WriteString(fmt.Sprintf("Tokens used: %d / %d\n", s.tokensUsed, s.budget))

	return sb.String()
}
