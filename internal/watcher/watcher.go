// Package watcher polls registered projects for changed Java sources and
// reports the changed files so the affected types can be invalidated.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/DeusData/beanprops-mcp/internal/discover"
)

const (
	baseInterval = 1 * time.Second
	maxInterval  = 60 * time.Second
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
	hash    uint64
}

type projectState struct {
	root     string
	snapshot map[string]fileSnapshot
	interval time.Duration
	nextPoll time.Time
}

// Project is one project to watch.
type Project struct {
	Name     string
	RootPath string
}

// ListFunc returns the projects currently registered.
type ListFunc func(ctx context.Context) []Project

// ChangeFunc receives the project-relative paths of added, changed and
// removed source files.
type ChangeFunc func(ctx context.Context, project string, relPaths []string) error

// Watcher polls registered projects for file changes.
type Watcher struct {
	list     ListFunc
	onChange ChangeFunc
	projects map[string]*projectState
}

// New creates a Watcher. onChange is called when file changes are detected.
func New(list ListFunc, onChange ChangeFunc) *Watcher {
	return &Watcher{
		list:     list,
		onChange: onChange,
		projects: make(map[string]*projectState),
	}
}

// Run blocks until ctx is cancelled. Ticks at baseInterval, polling each
// project only when its adaptive interval has elapsed.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(baseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pollAll(ctx)
		}
	}
}

// pollAll polls each registered project that is due and forgets projects
// that are no longer registered.
func (w *Watcher) pollAll(ctx context.Context) {
	projects := w.list(ctx)
	live := make(map[string]struct{}, len(projects))

	now := time.Now()
	for _, p := range projects {
		live[p.Name] = struct{}{}
		state, exists := w.projects[p.Name]
		if !exists || state.root != p.RootPath {
			// New or re-registered at another root: start from a fresh baseline.
			state = &projectState{root: p.RootPath}
			w.projects[p.Name] = state
		} else if now.Before(state.nextPoll) {
			continue
		}
		w.pollProject(ctx, p, state)
	}

	for name := range w.projects {
		if _, ok := live[name]; !ok {
			delete(w.projects, name)
		}
	}
}

// pollProject captures a snapshot of the source tree and compares it with
// the previous one. The first poll only records a baseline.
func (w *Watcher) pollProject(ctx context.Context, p Project, state *projectState) {
	if _, err := os.Stat(p.RootPath); err != nil {
		slog.Warn("watcher.root_gone", "project", p.Name, "path", p.RootPath)
		state.nextPoll = time.Now().Add(maxInterval)
		return
	}

	snap, err := captureSnapshot(ctx, p.RootPath, state.snapshot)
	if err != nil {
		slog.Warn("watcher.snapshot", "project", p.Name, "err", err)
		state.nextPoll = time.Now().Add(state.interval)
		return
	}

	interval := pollInterval(len(snap))

	if state.snapshot == nil {
		slog.Debug("watcher.baseline", "project", p.Name, "files", len(snap))
		state.snapshot = snap
		state.interval = interval
		state.nextPoll = time.Now().Add(interval)
		return
	}

	changed := diffSnapshots(state.snapshot, snap)
	if len(changed) == 0 {
		// Keep touched-but-identical files' new mtimes so they are not rehashed.
		state.snapshot = snap
		state.interval = interval
		state.nextPoll = time.Now().Add(interval)
		return
	}

	slog.Info("watcher.changed", "project", p.Name, "files", len(changed))
	if err := w.onChange(ctx, p.Name, changed); err != nil {
		slog.Warn("watcher.invalidate", "project", p.Name, "err", err)
		// Keep old snapshot so we retry next cycle
		state.nextPoll = time.Now().Add(interval)
		return
	}

	state.snapshot = snap
	state.interval = interval
	state.nextPoll = time.Now().Add(state.interval)
}

// captureSnapshot walks the source tree using discover.Discover and captures
// mtime, size and content hash for each file. Files whose mtime and size
// match prev reuse the previous hash.
func captureSnapshot(ctx context.Context, rootPath string, prev map[string]fileSnapshot) (map[string]fileSnapshot, error) {
	files, err := discover.Discover(ctx, rootPath, nil)
	if err != nil {
		return nil, err
	}

	snap := make(map[string]fileSnapshot, len(files))
	for _, f := range files {
		info, statErr := os.Stat(f.Path)
		if statErr != nil {
			continue
		}
		s := fileSnapshot{modTime: info.ModTime(), size: info.Size()}
		if old, ok := prev[f.RelPath]; ok && old.modTime.Equal(s.modTime) && old.size == s.size {
			s.hash = old.hash
		} else {
			data, readErr := os.ReadFile(f.Path)
			if readErr != nil {
				continue
			}
			s.hash = xxh3.Hash(data)
		}
		snap[f.RelPath] = s
	}
	return snap, nil
}

// diffSnapshots returns the sorted paths that were added, removed or whose
// content hash changed.
func diffSnapshots(a, b map[string]fileSnapshot) []string {
	var changed []string
	for path, aSnap := range a {
		bSnap, ok := b[path]
		if !ok || aSnap.hash != bSnap.hash {
			changed = append(changed, path)
		}
	}
	for path := range b {
		if _, ok := a[path]; !ok {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	return changed
}

// pollInterval computes the adaptive interval from file count.
// 1s base + 1s per 500 files, capped at 60s.
func pollInterval(fileCount int) time.Duration {
	ms := 1000 + (fileCount/500)*1000
	if ms > 60000 {
		ms = 60000
	}
	return time.Duration(ms) * time.Millisecond
}
