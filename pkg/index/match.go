package index

import (
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// TriggerQuery carries the query fields matched against entry triggers. Any
// field may be empty; empty fields never match.
type TriggerQuery struct {
	Intent  string
	File    string
	Context string
}

// Search returns entries whose name or description contains query,
// case-insensitively. Operates on the in-memory snapshot; call GetAll first
// when freshness matters.
func (ix *Index) Search(query string) []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	q := strings.ToLower(query)
	var out []Entry
	for _, entry := range ix.entries {
		if strings.Contains(strings.ToLower(entry.Name), q) ||
			strings.Contains(strings.ToLower(entry.Description), q) {
			out = append(out, entry)
		}
	}
	return out
}

// FindByTrigger returns enabled entries where at least one supplied query
// field matches at least one of the entry's corresponding trigger patterns.
// Matching is a logical OR across fields and across patterns within a field.
func (ix *Index) FindByTrigger(q TriggerQuery) []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []Entry
	for _, entry := range ix.entries {
		if !entry.Enabled || entry.Triggers == nil {
			continue
		}
		if entryMatches(entry.Triggers.Intents, q.Intent, matchIntent) ||
			entryMatches(entry.Triggers.Files, q.File, matchFile) ||
			entryMatches(entry.Triggers.Contexts, q.Context, matchContext) {
			out = append(out, entry)
		}
	}
	return out
}

func entryMatches(patterns []string, value string, match func(pattern, value string) bool) bool {
	if value == "" {
		return false
	}
	for _, pattern := range patterns {
		if match(pattern, value) {
			return true
		}
	}
	return false
}

// matchIntent tries the pattern as a case-insensitive regex first. A pattern
// that does not compile is matched as a case-insensitive substring instead.
// The fallback order is fixed: regex, then substring, never both.
func matchIntent(pattern, intent string) bool {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return strings.Contains(strings.ToLower(intent), strings.ToLower(pattern))
	}
	return re.MatchString(intent)
}

// matchFile treats * and ? as glob wildcards anchored to the entire path.
// * crosses directory separators, so "*.tf" matches at any depth.
func matchFile(pattern, path string) bool {
	g, err := glob.Compile(pattern)
	if err != nil {
		return false
	}
	return g.Match(path)
}

// matchContext is case-insensitive substring containment.
func matchContext(pattern, context string) bool {
	return strings.Contains(strings.ToLower(context), strings.ToLower(pattern))
}
