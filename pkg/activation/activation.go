// Package activation composes the retrieval pipeline: a conversational query
// is matched against the skill index to obtain candidates, candidates are
// ranked by semantic relevance, conflicts are resolved into a deterministic
// order, and the session admits skills from that order until its token
// budget is exhausted.
package activation

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/index"
	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/logger"
	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/relevance"
	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/session"
	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/skills"
	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/tokens"
)

// Skip reasons reported for candidates that were not admitted.
const (
	SkipBelowThreshold = "below-threshold"
	SkipBudgetExceeded = session.ReasonBudgetExceeded
	SkipNotFound       = "not-found"
)

// Request carries the conversational context for one activation pass.
type Request struct {
	Intent  string
	File    string
	Context string
}

// SkippedSkill records a candidate that was ranked but not admitted.
type SkippedSkill struct {
	Name   string
	Score  float64
	Reason string
}

// Result is the outcome of one activation pass.
type Result struct {
	Loaded   []string
	Skipped  []SkippedSkill
	Conflict relevance.ConflictResult
	Report   session.Report
}

// Pipeline wires the index, scorer, store, and session together.
type Pipeline struct {
	index   *index.Index
	scorer  *relevance.Scorer
	store   skills.Store
	counter tokens.Counter
}

// NewPipeline creates an activation pipeline. A nil counter falls back to
// the heuristic estimator.
func NewPipeline(ix *index.Index, scorer *relevance.Scorer, store skills.Store, counter tokens.Counter) *Pipeline {
	if counter == nil {
		counter = tokens.NewHeuristicCounter()
	}
	return &Pipeline{index: ix, scorer: scorer, store: store, counter: counter}
}

// Activate runs one retrieval-and-admission pass against sess. Trigger
// matches take priority; when no trigger fires, every enabled skill is
// offered to semantic ranking instead. The fallback is an explicit ordered
// choice: exact-trigger first, ranked-similarity second, never mixed.
func (p *Pipeline) Activate(ctx context.Context, sess *session.SkillSession, req Request) (*Result, error) {
	enabled, err := p.index.GetEnabled(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load enabled skills")
	}

	matchType := relevance.MatchExactTrigger
	candidates := p.index.FindByTrigger(index.TriggerQuery{
		Intent:  req.Intent,
		File:    req.File,
		Context: req.Context,
	})
	if len(candidates) == 0 {
		matchType = relevance.MatchRankedSimilarity
		candidates = enabled
	}

	// Conflicts only exist among trigger-matched candidates: ranked
	// fallback candidates never shared a trigger space.
	conflict := relevance.ConflictResult{Resolution: relevance.ResolutionPriority}
	if matchType == relevance.MatchExactTrigger {
		conflict = relevance.DetectConflicts(candidates)
	}
	if conflict.HasConflict {
		logger.G(ctx).WithField("skills", conflict.Skills).
			Debug("Overlapping trigger space, resolving by priority")
	}

	if err := p.scorer.IndexSkills(ctx, candidates); err != nil {
		return nil, errors.Wrap(err, "failed to index candidates for scoring")
	}
	scored, err := p.scorer.ScoreAgainstQuery(ctx, queryText(req))
	if err != nil {
		return nil, errors.Wrap(err, "failed to score candidates")
	}
	for i := range scored {
		scored[i].MatchType = matchType
	}

	result := &Result{Conflict: conflict}
	thresholds := activationThresholds(candidates)

	for _, candidate := range relevance.ResolveByPriority(scored) {
		if matchType == relevance.MatchRankedSimilarity {
			if threshold, ok := thresholds[candidate.Name]; ok && candidate.Score < threshold {
				result.Skipped = append(result.Skipped, SkippedSkill{
					Name: candidate.Name, Score: candidate.Score, Reason: SkipBelowThreshold,
				})
				continue
			}
		}

		skill, err := p.store.Read(candidate.Name)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("skill", candidate.Name).
				Warn("Skipping unreadable skill during activation")
			result.Skipped = append(result.Skipped, SkippedSkill{
				Name: candidate.Name, Score: candidate.Score, Reason: SkipNotFound,
			})
			continue
		}

		// Savings use the same estimator as budget enforcement, so the two
		// never drift apart.
		savings := p.counter.Estimate(skill.Content)
		loaded := sess.Load(candidate.Name, skill.Content, candidate.Score, savings)
		if !loaded.Success {
			result.Skipped = append(result.Skipped, SkippedSkill{
				Name: candidate.Name, Score: candidate.Score, Reason: loaded.Reason,
			})
			continue
		}
		result.Loaded = append(result.Loaded, candidate.Name)
	}

	result.Report = sess.GetReport()
	return result, nil
}

// queryText folds the request fields into the free-text query handed to the
// scorer.
func queryText(req Request) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{req.Intent, req.Context, req.File} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "\n")
}

func activationThresholds(candidates []index.Entry) map[string]float64 {
	thresholds := make(map[string]float64)
	for _, entry := range candidates {
		if entry.Triggers != nil && entry.Triggers.Threshold > 0 {
			thresholds[entry.Name] = entry.Triggers.Threshold
		}
	}
	return thresholds
}
