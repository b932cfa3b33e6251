// Package relevance ranks indexed skills against a free-text query and
// resolves conflicts among overlapping candidates into a deterministic
// activation order.
package relevance

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/embedding"
	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/index"
	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/logger"
)

// MatchType records how a candidate was selected.
type MatchType string

const (
	// MatchExactTrigger marks candidates selected by a trigger pattern hit.
	MatchExactTrigger MatchType = "exact-trigger"
	// MatchRankedSimilarity marks candidates selected by semantic ranking.
	MatchRankedSimilarity MatchType = "ranked-similarity"
)

// ScoredSkill is one ranked candidate, produced per query.
type ScoredSkill struct {
	Name      string
	Score     float64
	MatchType MatchType
}

// corpusEntry binds a skill to its description embedding.
type corpusEntry struct {
	name        string
	description string
	vector      []float64
}

// Scorer ranks skills by cosine similarity between the query embedding and
// each skill description's embedding. The embedder is chosen at
// construction; wrap it with embedding.NewCachedEmbedder to reuse vectors
// across queries.
type Scorer struct {
	embedder embedding.Embedder
	corpus   []corpusEntry
}

// NewScorer creates a scorer backed by embedder.
func NewScorer(embedder embedding.Embedder) *Scorer {
	return &Scorer{embedder: embedder}
}

// IndexSkills builds the scoring corpus from the given entries, replacing
// any prior corpus. Re-invoke after skill edits to re-index. An entry whose
// embedding fails is skipped with a warning; the rest of the corpus still
// builds.
func (s *Scorer) IndexSkills(ctx context.Context, entries []index.Entry) error {
	corpus := make([]corpusEntry, 0, len(entries))
	for _, entry := range entries {
		vec, err := s.embedder.Embed(ctx, entry.Description)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("skill", entry.Name).
				Warn("Skipping skill during corpus indexing")
			continue
		}
		corpus = append(corpus, corpusEntry{
			name:        entry.Name,
			description: entry.Description,
			vector:      vec,
		})
	}

	s.corpus = corpus
	return nil
}

// ScoreAgainstQuery embeds the query and returns every corpus entry scored
// by similarity, ordered descending. The sort is stable, so ties keep corpus
// insertion order and repeated calls with identical inputs return identical
// results.
func (s *Scorer) ScoreAgainstQuery(ctx context.Context, query string) ([]ScoredSkill, error) {
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}

	scored := make([]ScoredSkill, 0, len(s.corpus))
	for _, entry := range s.corpus {
		scored = append(scored, ScoredSkill{
			Name:      entry.name,
			Score:     embedding.Cosine(queryVec, entry.vector),
			MatchType: MatchRankedSimilarity,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored, nil
}
