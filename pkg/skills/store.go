package skills

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

const skillFileName = "SKILL.md"

// DirStore reads skills from one or more directories laid out as one
// subdirectory per skill, each containing a SKILL.md file. Earlier
// directories take precedence when two skills share a name.
type DirStore struct {
	skillDirs []string
	allowlist []string
}

// Option is a function that configures a DirStore.
type Option func(*DirStore) error

// WithSkillDirs sets custom skill directories.
func WithSkillDirs(dirs ...string) Option {
	return func(s *DirStore) error {
		s.skillDirs = dirs
		return nil
	}
}

// WithDefaultDirs initializes with the default skill directories: the
// repo-local directory first, then the user-global one.
func WithDefaultDirs() Option {
	return func(s *DirStore) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		s.skillDirs = []string{
			"./.skills",
			filepath.Join(homeDir, ".skills"),
		}
		return nil
	}
}

// WithAllowlist restricts the store to the named skills. Reads of any other
// skill report not-found and List omits them. An empty allowlist allows all.
func WithAllowlist(names ...string) Option {
	return func(s *DirStore) error {
		s.allowlist = names
		return nil
	}
}

// NewDirStore creates a new directory-backed skill store.
func NewDirStore(opts ...Option) (*DirStore, error) {
	s := &DirStore{}

	if len(opts) == 0 {
		opts = []Option{WithDefaultDirs()}
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Read returns the skill with the given name, searching the configured
// directories in precedence order.
func (s *DirStore) Read(name string) (*Skill, error) {
	if !s.allowed(name) {
		return nil, errors.Wrapf(ErrNotFound, "skill %q not in allowlist", name)
	}
	for _, dir := range s.skillDirs {
		path := filepath.Join(dir, name, skillFileName)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		skill, err := ParseFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse skill %q", name)
		}
		return skill, nil
	}
	return nil, errors.Wrapf(ErrNotFound, "skill %q", name)
}

// List returns the names of all skills across the configured directories,
// sorted for a stable enumeration order.
func (s *DirStore) List() ([]string, error) {
	seen := make(map[string]bool)
	var names []string

	for _, dir := range s.skillDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !s.allowed(entry.Name()) {
				continue
			}
			skillPath := filepath.Join(dir, entry.Name(), skillFileName)
			if _, err := os.Stat(skillPath); err != nil {
				continue
			}
			if !seen[entry.Name()] {
				seen[entry.Name()] = true
				names = append(names, entry.Name())
			}
		}
	}

	sort.Strings(names)
	return names, nil
}

// allowed reports whether the allowlist admits name. An empty allowlist
// admits everything.
func (s *DirStore) allowed(name string) bool {
	if len(s.allowlist) == 0 {
		return true
	}
	for _, n := range s.allowlist {
		if n == name {
			return true
		}
	}
	return false
}

// ParseFile loads a single skill from its SKILL.md file.
func ParseFile(path string) (*Skill, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return nil, errors.New("missing frontmatter")
	}

	name, _ := metaData["name"].(string)
	description, _ := metaData["description"].(string)

	if name == "" {
		return nil, errors.New("skill name is required in frontmatter")
	}
	if description == "" {
		return nil, errors.New("skill description is required in frontmatter")
	}

	enabled := true
	if v, ok := metaData["enabled"].(bool); ok {
		enabled = v
	}

	var triggers *Triggers
	if raw, ok := metaData["triggers"]; ok {
		triggers = &Triggers{}
		if err := mapstructure.WeakDecode(raw, triggers); err != nil {
			return nil, errors.Wrap(err, "invalid triggers frontmatter")
		}
	}

	return &Skill{
		Name:        name,
		Description: description,
		Enabled:     enabled,
		Triggers:    triggers,
		Path:        path,
		Content:     extractBodyContent(string(content)),
	}, nil
}

// extractBodyContent removes YAML frontmatter and returns the body.
func extractBodyContent(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[frontmatterEnd+1:], "\n"), "\n")
}
