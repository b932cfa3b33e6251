package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedCounter charges a fixed cost per skill name, keyed by content.
type fixedCounter struct {
	costs map[string]int
}

func (c *fixedCounter) Estimate(text string) int {
	if cost, ok := c.costs[text]; ok {
		return cost
	}
	return len(text)
}

// sumOfActiveCosts recomputes the invariant from scratch rather than
// trusting the session's incremental arithmetic.
func sumOfActiveCosts(s *SkillSession) int {
	total := 0
	for _, record := range s.ActiveSkills() {
		total += record.TokenCost
	}
	return total
}

func TestBudgetLifecycle(t *testing.T) {
	counter := &fixedCounter{costs: map[string]int{"content-a": 600, "content-b": 500}}
	sess := New(1000, counter)

	resA := sess.Load("skill-a", "content-a", 0.9, 600)
	require.True(t, resA.Success)
	assert.Equal(t, 600, resA.TokenCost)
	assert.Equal(t, 600, sess.GetReport().TokensUsed)

	resB := sess.Load("skill-b", "content-b", 0.8, 500)
	require.False(t, resB.Success)
	assert.Equal(t, ReasonBudgetExceeded, resB.Reason)
	assert.Equal(t, 600, sess.GetReport().TokensUsed)

	require.True(t, sess.Unload("skill-a"))
	assert.Equal(t, 0, sess.GetReport().TokensUsed)

	resB = sess.Load("skill-b", "content-b", 0.8, 500)
	require.True(t, resB.Success)
	assert.Equal(t, 500, sess.GetReport().TokensUsed)
}

func TestLoadIdempotent(t *testing.T) {
	sess := New(1000, &fixedCounter{costs: map[string]int{"content": 400}})

	first := sess.Load("skill", "content", 0.5, 100)
	require.True(t, first.Success)
	used := sess.GetReport().TokensUsed

	second := sess.Load("skill", "content", 0.5, 100)
	assert.True(t, second.Success)
	assert.Equal(t, used, sess.GetReport().TokensUsed)
	assert.Equal(t, 1, sess.GetReport().ActiveCount)
	assert.Equal(t, 100, sess.GetReport().EstimatedSavings)
}

func TestLoadAtomicRejection(t *testing.T) {
	counter := &fixedCounter{costs: map[string]int{"small": 100, "huge": 5000}}
	sess := New(1000, counter)

	require.True(t, sess.Load("small", "small", 0.9, 50).Success)
	before := sess.GetReport()
	beforeActive := sess.ActiveSkills()

	result := sess.Load("huge", "huge", 0.9, 9999)
	require.False(t, result.Success)
	assert.Equal(t, ReasonBudgetExceeded, result.Reason)

	assert.Equal(t, before, sess.GetReport())
	assert.Equal(t, beforeActive, sess.ActiveSkills())
	assert.False(t, sess.IsActive("huge"))
}

func TestBudgetInvariantUnderLoadUnloadSequences(t *testing.T) {
	counter := &fixedCounter{costs: map[string]int{
		"a": 100, "b": 250, "c": 400, "d": 900,
	}}
	sess := New(1000, counter)

	steps := []struct {
		op   string
		name string
	}{
		{"load", "a"},
		{"load", "b"},
		{"load", "c"},
		{"load", "d"}, // rejected: 100+250+400+900 > 1000
		{"unload", "b"},
		{"load", "d"}, // rejected: 100+400+900 > 1000
		{"unload", "c"},
		{"load", "d"}, // admitted: 100+900 == 1000
		{"unload", "missing"},
		{"load", "a"}, // idempotent
	}

	for _, step := range steps {
		switch step.op {
		case "load":
			sess.Load(step.name, step.name, 0.5, 0)
		case "unload":
			sess.Unload(step.name)
		}
		assert.Equal(t, sumOfActiveCosts(sess), sess.GetReport().TokensUsed,
			"invariant broken after %s %s", step.op, step.name)
	}

	assert.Equal(t, 1000, sess.GetReport().TokensUsed)
	assert.True(t, sess.IsActive("a"))
	assert.True(t, sess.IsActive("d"))
}

func TestUnloadInactiveSkill(t *testing.T) {
	sess := New(1000, nil)
	assert.False(t, sess.Unload("ghost"))
	assert.Equal(t, 0, sess.GetReport().TokensUsed)
}

func TestClear(t *testing.T) {
	sess := New(1000, &fixedCounter{costs: map[string]int{"x": 10, "y": 20}})
	require.True(t, sess.Load("x", "x", 0.1, 5).Success)
	require.True(t, sess.Load("y", "y", 0.2, 6).Success)

	sess.Clear()

	report := sess.GetReport()
	assert.Equal(t, 0, report.ActiveCount)
	assert.Equal(t, 0, report.TokensUsed)
	assert.Equal(t, 0, report.EstimatedSavings)
	assert.Empty(t, sess.ActiveSkills())
}

func TestGetSkillContent(t *testing.T) {
	sess := New(1000, nil)
	require.True(t, sess.Load("skill", "the stored snapshot", 0.4, 0).Success)

	content, ok := sess.GetSkillContent("skill")
	require.True(t, ok)
	assert.Equal(t, "the stored snapshot", content)

	_, ok = sess.GetSkillContent("ghost")
	assert.False(t, ok)
}

func TestEstimatedSavingsAggregation(t *testing.T) {
	sess := New(1000, &fixedCounter{costs: map[string]int{"a": 10, "b": 20}})

	require.True(t, sess.Load("a", "a", 0.5, 40).Success)
	require.True(t, sess.Load("b", "b", 0.5, 60).Success)
	assert.Equal(t, 100, sess.GetReport().EstimatedSavings)

	sess.Unload("a")
	assert.Equal(t, 60, sess.GetReport().EstimatedSavings)
}

func TestFormatActiveSkillsDisplay(t *testing.T) {
	sess := New(1000, &fixedCounter{costs: map[string]int{"z": 10, "a": 20}})

	assert.Contains(t, sess.FormatActiveSkillsDisplay(), "No skills are currently active")

	require.True(t, sess.Load("zeta", "z", 0.7, 0).Success)
	require.True(t, sess.Load("alpha", "a", 0.6, 0).Success)

	display := sess.FormatActiveSkillsDisplay()
	assert.Contains(t, display, "### alpha")
	assert.Contains(t, display, "### zeta")
	assert.Less(t, strings.Index(display, "### alpha"), strings.Index(display, "### zeta"))
	assert.Contains(t, display, "Tokens used: 30 / 1000")
}

func TestSessionsAreIndependent(t *testing.T) {
	counter := &fixedCounter{costs: map[string]int{"x": 100}}
	one := New(1000, counter)
	two := New(1000, counter)

	require.True(t, one.Load("x", "x", 0.5, 0).Success)
	assert.False(t, two.IsActive("x"))
	assert.Equal(t, 0, two.GetReport().TokensUsed)
	assert.NotEqual(t, one.ID(), two.ID())
}
