// Package skills provides read access to file-backed skill definitions.
// Skills are packaged as directories containing a SKILL.md file with YAML
// frontmatter describing the skill's purpose and activation triggers.
package skills

import "github.com/pkg/errors"

// ErrNotFound indicates a skill name does not resolve in the store.
var ErrNotFound = errors.New("skill not found")

// Skill represents a skill definition read from disk.
type Skill struct {
	Name        string    // Unique name from frontmatter
	Description string    // Brief description for relevance decisions
	Enabled     bool      // Disabled skills are never activated
	Triggers    *Triggers // Optional activation triggers
	Path        string    // Full path to the SKILL.md file
	Content     string    // Body of SKILL.md (frontmatter stripped)
}

// Triggers describes the conditions under which a skill is considered
// relevant. All fields are optional; empty triggers mean the skill is only
// reachable through semantic ranking.
type Triggers struct {
	Intents   []string `mapstructure:"intents" json:"intents,omitempty"`
	Files     []string `mapstructure:"files" json:"files,omitempty"`
	Contexts  []string `mapstructure:"contexts" json:"contexts,omitempty"`
	Threshold float64  `mapstructure:"threshold" json:"threshold,omitempty"`
}

// Store is the read-only interface the retrieval core consumes.
type Store interface {
	// Read returns the skill with the given name. Returns an error wrapping
	// ErrNotFound for unknown names.
	Read(name string) (*Skill, error)
	// List returns the names of all skills in the store.
	List() ([]string, error)
}
