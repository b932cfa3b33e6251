// Package index maintains a persistent, staleness-checked catalogue of skill
// metadata and triggers. The index is the retrieval entry point: queries are
// matched against it to obtain activation candidates without touching every
// skill file on disk.
//
// The persisted file is JSON: {version, buildTime, entries}. A missing,
// unparsable, or wrong-version file is treated as corrupt and recovered by
// rebuilding from the skill store; corruption never surfaces to callers.
package index

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/logger"
	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/skills"
)

// Version identifies the on-disk index format. Files stamped with any other
// version are rebuilt.
const Version = 1

// Entry is the indexed metadata for one skill. Entries are unique by name;
// their order carries no meaning beyond insertion order, which downstream
// consumers rely on for tie-breaking.
type Entry struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Enabled     bool             `json:"enabled"`
	Triggers    *skills.Triggers `json:"triggers,omitempty"`
	Path        string           `json:"path"`
	MTime       int64            `json:"mtime"` // unix milliseconds
}

// file is the persisted index document.
type file struct {
	Version   int       `json:"version"`
	BuildTime time.Time `json:"buildTime"`
	Entries   []Entry   `json:"entries"`
}

// Index is a persistent catalogue over a skill store. The file path is an
// injected dependency so multiple indexes can coexist in tests. Safe for
// concurrent reads; a rebuild writes the new file only after it is fully
// constructed in memory, so in-flight readers of the old file are never
// handed a half-written index.
type Index struct {
	mu     sync.RWMutex
	store  skills.Store
	path   string
	loaded bool

	entries []Entry
	byName  map[string]int
}

// New creates an index over store persisted at path. Nothing is read until
// Load, Refresh, or GetAll is called.
func New(store skills.Store, path string) *Index {
	return &Index{
		store:  store,
		path:   path,
		byName: make(map[string]int),
	}
}

// Load reads the persisted index. Missing or corrupt data falls back to
// Rebuild; the caller never sees a parse error.
func (ix *Index) Load(ctx context.Context) error {
	data, err := os.ReadFile(ix.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.G(ctx).WithError(err).WithField("path", ix.path).
				Warn("Cannot read skill index, rebuilding")
		}
		return ix.Rebuild(ctx)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		logger.G(ctx).WithError(err).WithField("path", ix.path).
			Warn("Skill index is corrupt, rebuilding")
		return ix.Rebuild(ctx)
	}
	if f.Version != Version {
		logger.G(ctx).WithFields(map[string]interface{}{
			"path":    ix.path,
			"version": f.Version,
		}).Warn("Skill index has unknown version, rebuilding")
		return ix.Rebuild(ctx)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.setEntriesLocked(f.Entries)
	return nil
}

// Rebuild enumerates the skill store and re-derives every entry from
// scratch, then persists the result. A skill that fails to load is skipped
// with a warning; one bad skill never aborts the rebuild of the rest.
func (ix *Index) Rebuild(ctx context.Context) error {
	names, err := ix.store.List()
	if err != nil {
		return errors.Wrap(err, "failed to list skills for rebuild")
	}

	var entries []Entry
	var skipped *multierror.Error
	for _, name := range names {
		entry, err := ix.buildEntry(name)
		if err != nil {
			skipped = multierror.Append(skipped, errors.Wrapf(err, "skill %q", name))
			logger.G(ctx).WithError(err).WithField("skill", name).
				Warn("Skipping skill during index rebuild")
			continue
		}
		entries = append(entries, entry)
	}
	if skipped != nil {
		logger.G(ctx).WithField("skipped", skipped.Len()).
			Warn("Index rebuild completed with skipped skills")
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.setEntriesLocked(entries)
	return ix.saveLocked()
}

// Refresh reconciles the index with the live file system: stale entries are
// re-read, entries whose files vanished are dropped, and skills present in
// the store but absent from the index are adopted. The reconciled index is
// persisted. Before the first Load, Refresh degenerates to Load.
func (ix *Index) Refresh(ctx context.Context) error {
	ix.mu.RLock()
	loaded := ix.loaded
	ix.mu.RUnlock()
	if !loaded {
		return ix.Load(ctx)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	var reconciled []Entry
	for _, entry := range ix.entries {
		info, err := os.Stat(entry.Path)
		if err != nil {
			logger.G(ctx).WithField("skill", entry.Name).
				Debug("Skill file removed, dropping index entry")
			continue
		}

		if info.ModTime().UnixMilli() != entry.MTime {
			updated, err := ix.buildEntry(entry.Name)
			if err != nil {
				logger.G(ctx).WithError(err).WithField("skill", entry.Name).
					Warn("Cannot re-read modified skill, dropping index entry")
				continue
			}
			entry = updated
		}
		reconciled = append(reconciled, entry)
	}

	known := make(map[string]bool, len(reconciled))
	for _, entry := range reconciled {
		known[entry.Name] = true
	}

	names, err := ix.store.List()
	if err != nil {
		return errors.Wrap(err, "failed to list skills for refresh")
	}
	for _, name := range names {
		if known[name] {
			continue
		}
		entry, err := ix.buildEntry(name)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("skill", name).
				Warn("Skipping new skill during index refresh")
			continue
		}
		reconciled = append(reconciled, entry)
	}

	ix.setEntriesLocked(reconciled)
	return ix.saveLocked()
}

// GetAll refreshes the index and returns every entry in insertion order.
func (ix *Index) GetAll(ctx context.Context) ([]Entry, error) {
	if err := ix.Refresh(ctx); err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Entry, len(ix.entries))
	copy(out, ix.entries)
	return out, nil
}

// GetEnabled refreshes the index and returns only enabled entries.
func (ix *Index) GetEnabled(ctx context.Context) ([]Entry, error) {
	all, err := ix.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	enabled := make([]Entry, 0, len(all))
	for _, entry := range all {
		if entry.Enabled {
			enabled = append(enabled, entry)
		}
	}
	return enabled, nil
}

// buildEntry derives an index entry for a named skill from the store,
// stamping the skill file's current modification time.
func (ix *Index) buildEntry(name string) (Entry, error) {
	skill, err := ix.store.Read(name)
	if err != nil {
		return Entry{}, err
	}

	info, err := os.Stat(skill.Path)
	if err != nil {
		return Entry{}, errors.Wrap(err, "failed to stat skill file")
	}

	return Entry{
		Name:        skill.Name,
		Description: skill.Description,
		Enabled:     skill.Enabled,
		Triggers:    skill.Triggers,
		Path:        skill.Path,
		MTime:       info.ModTime().UnixMilli(),
	}, nil
}

// setEntriesLocked installs entries, dropping later duplicates of a name so
// the unique-by-name invariant holds even for a hand-edited index file. The
// first occurrence wins, mirroring the store's precedence order.
func (ix *Index) setEntriesLocked(entries []Entry) {
	ix.byName = make(map[string]int, len(entries))
	deduped := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if _, exists := ix.byName[entry.Name]; exists {
			continue
		}
		ix.byName[entry.Name] = len(deduped)
		deduped = append(deduped, entry)
	}
	ix.entries = deduped
	ix.loaded = true
}

// saveLocked persists the index whole-file via temp file + rename. The new
// index is fully serialized before the old file is replaced, so a crash
// mid-write leaves the previous index intact.
func (ix *Index) saveLocked() error {
	data, err := json.MarshalIndent(file{
		Version:   Version,
		BuildTime: time.Now().UTC(),
		Entries:   ix.entries,
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal skill index")
	}

	tempPath := ix.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write temporary index file")
	}
	if err := os.Rename(tempPath, ix.path); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(err, "failed to rename temporary index file")
	}
	return nil
}
