package workspace

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry owns every live workspace.
type Registry struct {
	deps Deps
	now  func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry creates an empty registry. Zero poll settings in deps get defaults.
func NewRegistry(deps Deps) *Registry {
	deps.setDefaults()
	return &Registry{
		deps:       deps,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Get returns the workspace with id and marks it as used.
func (r *Registry) Get(id string) (*Workspace, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.Lock()
	w, ok := r.workspaces[id]
	r.mu.Unlock()
	if ok {
		w.touch(r.now())
	}
	return w, ok
}

// Create starts a new workspace with a random id.
func (r *Registry) Create() *Workspace {
	w := newWorkspace(uuid.NewString(), r.deps, r.now())

	r.mu.Lock()
	r.workspaces[w.ID] = w
	count := len(r.workspaces)
	r.mu.Unlock()

	r.deps.Logger.Debug("workspace created", "workspace_id", w.ID, "workspaces", count)
	return w
}

// Teardown stops the workspace's poll, closes its hub and drops it. It
// reports whether id was known.
func (r *Registry) Teardown(id string) bool {
	r.mu.Lock()
	w, ok := r.workspaces[id]
	delete(r.workspaces, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	w.close()
	r.deps.Logger.Debug("workspace torn down", "workspace_id", id)
	return true
}

// Sweep tears down workspaces unused for longer than idle that have no feed
// subscribers. It returns how many were removed.
func (r *Registry) Sweep(idle time.Duration) int {
	now := r.now()

	r.mu.Lock()
	var stale []string
	for id, w := range r.workspaces {
		if w.idleSince(now) > idle && w.Hub.Subscribers() == 0 {
			stale = append(stale, id)
		}
	}
	r.mu.Unlock()

	removed := 0
	for _, id := range stale {
		if r.Teardown(id) {
			removed++
		}
	}
	if removed > 0 {
		r.deps.Logger.Info("idle workspaces swept", "removed", removed)
	}
	return removed
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Close tears down every workspace.
func (r *Registry) Close() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.workspaces))
	for id := range r.workspaces {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Teardown(id)
	}
}
