// Package workspace holds the per-browser context: one session controller,
// one tree store, an event hub and a connectivity poll.
package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"linkvault/internal/auth"
	"linkvault/internal/domain/repositories"
	"linkvault/internal/service/session"
	"linkvault/internal/service/tree"
	"linkvault/internal/supabase"
)

// EventSource delivers backend session events.
type EventSource interface {
	Subscribe() (<-chan supabase.AuthEvent, func())
}

// Deps are the collaborators shared by every workspace.
type Deps struct {
	Auth       session.AuthClient
	Repos      repositories.Set
	Verifier   auth.JWTVerifier
	Prober     tree.Prober
	Events     EventSource // optional
	Translator *supabase.Translator
	Scheduler  *Scheduler
	Logger     *slog.Logger

	PollSchedule  string        // cron spec of the connectivity poll
	PollTimeout   time.Duration // budget of one poll round
	RefreshWindow time.Duration // renew tokens expiring this soon
}

const (
	defaultPollSchedule  = "@every 30s"
	defaultPollTimeout   = 10 * time.Second
	defaultRefreshWindow = time.Minute
)

func (d *Deps) setDefaults() {
	if d.PollSchedule == "" {
		d.PollSchedule = defaultPollSchedule
	}
	if d.PollTimeout <= 0 {
		d.PollTimeout = defaultPollTimeout
	}
	if d.RefreshWindow <= 0 {
		d.RefreshWindow = defaultRefreshWindow
	}
}

// ConnectivityStatus is the payload of a connectivity event.
type ConnectivityStatus struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message,omitempty"`
}

// Notice is the payload of a notice event.
type Notice struct {
	Message string `json:"message"`
}

// Workspace is the state behind one browser session.
type Workspace struct {
	ID      string
	Session *session.Controller
	Tree    *tree.Store
	Hub     *Hub

	deps   Deps
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	initMu      sync.Mutex
	initialized bool

	mu       sync.Mutex
	userID   string
	lastSeen time.Time
	closed   bool
}

func newWorkspace(id string, deps Deps, now time.Time) *Workspace {
	logger := deps.Logger.With("workspace_id", id)
	ctx, cancel := context.WithCancel(context.Background())

	w := &Workspace{
		ID:       id,
		Hub:      NewHub(),
		deps:     deps,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		lastSeen: now,
	}
	w.Session = session.NewController(deps.Auth, deps.Repos.Profiles, deps.Verifier, deps.Translator, logger)
	w.Tree = tree.NewStore(deps.Repos, deps.Prober, deps.Translator, logger, tree.WithChangeFunc(w.treeChanged))
	w.Session.OnChange(w.authChanged)

	if deps.Events != nil {
		events, unsubscribe := deps.Events.Subscribe()
		go func() {
			defer unsubscribe()
			// Tokens adopted here reach the cookie through SyncStorage.
			w.Session.Watch(ctx, events, nil)
		}()
	}
	return w
}

func (w *Workspace) pollJob() string {
	return "connectivity:" + w.ID
}

// authChanged keeps the tree store and the poll in step with the session.
func (w *Workspace) authChanged(s session.State) {
	w.Hub.Publish(Event{Type: EventAuth, Data: s})
	if s.Loading {
		return
	}

	if s.Authenticated && s.Session != nil {
		w.Tree.Bind(s.UserID(), s.Session.AccessToken)

		w.mu.Lock()
		switched := w.userID != s.UserID()
		w.userID = s.UserID()
		closed := w.closed
		w.mu.Unlock()

		if switched && !closed {
			w.startPolling()
		}
		return
	}

	w.mu.Lock()
	had := w.userID != ""
	w.userID = ""
	w.mu.Unlock()

	if had {
		w.stopPolling()
		w.Tree.Unbind()
	}
}

func (w *Workspace) treeChanged(c tree.Change) {
	switch c {
	case tree.ChangeConnectivity:
		status := ConnectivityStatus{Connected: w.Tree.Connected()}
		if !status.Connected {
			status.Message = w.deps.Translator.Notice(supabase.NoticeConnectionLost)
		}
		w.Hub.Publish(Event{Type: EventConnectivity, Data: status})
	default:
		w.Hub.Publish(Event{Type: EventTree, Data: w.Tree.Snapshot()})
	}
}

func (w *Workspace) startPolling() {
	if w.deps.Scheduler == nil {
		return
	}
	err := w.deps.Scheduler.AddJob(w.pollJob(), w.deps.PollSchedule, func() {
		w.Poll(w.ctx)
	})
	if err != nil {
		w.logger.Error("failed to schedule connectivity poll", "schedule", w.deps.PollSchedule, "error", err)
	}
}

func (w *Workspace) stopPolling() {
	if w.deps.Scheduler != nil {
		w.deps.Scheduler.RemoveJob(w.pollJob())
	}
}

// Poll runs one round of background upkeep: it renews an expiring access
// token, samples connectivity and refetches the tree after a reconnect.
func (w *Workspace) Poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.deps.PollTimeout)
	defer cancel()

	if err := w.Session.RefreshIfNeeded(ctx, w.deps.RefreshWindow); err != nil {
		w.logger.Warn("scheduled token refresh failed", "error", err)
	}
	if !w.Tree.Bound() {
		return
	}

	connected, changed := w.Tree.Probe(ctx)
	if changed && connected {
		w.logger.Info("backend reachable again, refetching tree")
		w.fetch(ctx)
	}
}

func (w *Workspace) fetch(ctx context.Context) {
	if err := w.Tree.FetchAll(ctx); err != nil {
		w.logger.Warn("tree fetch failed", "error", err)
	}
}

// Initialize restores the persisted session the first time it is called and
// loads the tree when that succeeds. Later calls are no-ops.
func (w *Workspace) Initialize(ctx context.Context, storage session.Storage) error {
	w.initMu.Lock()
	defer w.initMu.Unlock()
	if w.initialized {
		return nil
	}
	w.initialized = true

	err := w.Session.Initialize(ctx, storage)
	if w.Session.State().Authenticated {
		w.fetch(ctx)
	}
	return err
}

// Login signs in and loads the tree. A tree fetch failure does not fail the
// login; it shows up in the tree snapshot instead.
func (w *Workspace) Login(ctx context.Context, storage session.Storage, email, password string) error {
	w.initMu.Lock()
	w.initialized = true
	w.initMu.Unlock()

	if err := w.Session.Login(ctx, storage, email, password); err != nil {
		return err
	}
	w.fetch(ctx)
	w.Notify(supabase.NoticeLoginSuccess)
	return nil
}

// Logout ends the session. The tree is unbound through the auth listener.
func (w *Workspace) Logout(ctx context.Context, storage session.Storage) {
	w.Session.Logout(ctx, storage)
}

// SyncStorage brings storage in line with the session state. Tokens renewed
// in the background are written; a session ended by a backend event (signed
// out elsewhere) is removed so it cannot be restored later.
func (w *Workspace) SyncStorage(storage session.Storage) error {
	s := w.Session.State()
	if s.Loading {
		return nil
	}
	if !s.Authenticated || s.Session == nil {
		stored, err := storage.Load()
		if err != nil || stored == nil {
			return nil
		}
		w.logger.Info("removing stored session ended by the backend", "user_id", stored.User.ID)
		return storage.Clear()
	}
	stored, err := storage.Load()
	if err == nil && stored != nil && stored.AccessToken == s.Session.AccessToken {
		return nil
	}
	w.logger.Debug("persisting renewed session")
	return storage.Save(s.Session)
}

// Notice returns the localized text of a notice key.
func (w *Workspace) Notice(key string) string {
	return w.deps.Translator.Notice(key)
}

// Notify publishes a localized notice on the feed and returns its text.
func (w *Workspace) Notify(key string) string {
	msg := w.Notice(key)
	w.Hub.Publish(Event{Type: EventNotice, Data: Notice{Message: msg}})
	return msg
}

// Polling reports whether the connectivity poll is registered.
func (w *Workspace) Polling() bool {
	return w.deps.Scheduler != nil && w.deps.Scheduler.HasJob(w.pollJob())
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Sub(w.lastSeen)
}

// close stops background work. The backend session is left alone so the
// cookie can restore it into a new workspace.
func (w *Workspace) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.stopPolling()
	w.cancel()
	w.Hub.Close()
}
