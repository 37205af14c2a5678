package workspace

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkvault/internal/domain"
	"linkvault/internal/domain/models"
	"linkvault/internal/repository/memory"
	"linkvault/internal/sessionstore"
	"linkvault/internal/supabase"
)

type fakeAuth struct {
	mu        sync.Mutex
	signInErr error
	expiresIn time.Duration
	refreshes int
	signOuts  int
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	s := &models.Session{
		ID:           "sess-1",
		AccessToken:  "valid:user-1",
		RefreshToken: "refresh-1",
		User:         models.User{ID: "user-1", Email: email},
	}
	if f.expiresIn > 0 {
		s.ExpiresAt = time.Now().Add(f.expiresIn)
	}
	return s, nil
}

func (f *fakeAuth) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return &models.Session{
		ID:           "sess-1",
		AccessToken:  "valid:user-1#renewed",
		RefreshToken: "refresh-2",
		User:         models.User{ID: "user-1"},
	}, nil
}

func (f *fakeAuth) SignOut(ctx context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	return nil
}

func (f *fakeAuth) counts() (refreshes, signOuts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes, f.signOuts
}

type fakeVerifier struct{}

func (fakeVerifier) VerifyToken(token string) (*models.AuthClaims, error) {
	if user, ok := strings.CutPrefix(token, "valid:"); ok {
		c := &models.AuthClaims{Role: "authenticated", SessionID: "sess-1"}
		c.Subject = user
		return c, nil
	}
	return nil, domain.ErrUnauthorized
}

func (fakeVerifier) Close() error { return nil }

type fakeProber struct {
	connected atomic.Bool
}

func (p *fakeProber) CheckConnection(ctx context.Context) bool {
	return p.connected.Load()
}

type fixture struct {
	auth      *fakeAuth
	db        *memory.Store
	prober    *fakeProber
	events    *supabase.Broadcaster
	scheduler *Scheduler
	registry  *Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	translator, err := supabase.NewTranslator("en")
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		auth:      &fakeAuth{},
		db:        memory.New(),
		prober:    &fakeProber{},
		events:    supabase.NewBroadcaster(),
		scheduler: NewScheduler(logger),
	}
	f.prober.connected.Store(true)
	f.db.AddProfile(models.Profile{ID: "user-1", Email: "ana@example.com"})

	f.registry = NewRegistry(Deps{
		Auth:       f.auth,
		Repos:      f.db.Repositories(),
		Verifier:   fakeVerifier{},
		Prober:     f.prober,
		Events:     f.events,
		Translator: translator,
		Scheduler:  f.scheduler,
		Logger:     logger,
	})
	t.Cleanup(f.registry.Close)
	return f
}

func (f *fixture) seedGroup(t *testing.T, name string) {
	t.Helper()
	g := models.Group{Name: name, UserID: "user-1"}
	require.NoError(t, f.db.Repositories().Groups.Create(context.Background(), &g))
}

// drain collects the events buffered on ch without blocking.
func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func ofType(events []Event, typ string) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func TestWorkspace_LoginBindsTreeAndStartsPolling(t *testing.T) {
	f := newFixture(t)
	f.seedGroup(t, "Work")
	w := f.registry.Create()
	feed, cancel := w.Hub.Subscribe()
	defer cancel()

	storage := &sessionstore.Memory{}
	require.NoError(t, w.Login(context.Background(), storage, "ana@example.com", "secret"))

	assert.True(t, w.Session.State().Authenticated)
	assert.True(t, w.Tree.Bound())
	assert.True(t, w.Polling())

	view := w.Tree.Snapshot()
	require.Len(t, view.Groups, 1)
	assert.Equal(t, "Work", view.Groups[0].Name)

	stored, err := storage.Load()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "valid:user-1", stored.AccessToken)

	events := drain(feed)
	assert.NotEmpty(t, ofType(events, EventAuth))
	assert.NotEmpty(t, ofType(events, EventTree))
	notices := ofType(events, EventNotice)
	require.Len(t, notices, 1)
	assert.NotEmpty(t, notices[0].Data.(Notice).Message)
}

func TestWorkspace_LoginFailureLeavesWorkspaceUnbound(t *testing.T) {
	f := newFixture(t)
	f.auth.signInErr = &supabase.APIError{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
	w := f.registry.Create()

	err := w.Login(context.Background(), &sessionstore.Memory{}, "ana@example.com", "wrong")
	require.Error(t, err)

	var ue *supabase.UserError
	require.ErrorAs(t, err, &ue)
	assert.False(t, w.Session.State().Authenticated)
	assert.False(t, w.Tree.Bound())
	assert.False(t, w.Polling())
	assert.Zero(t, f.db.Calls(memory.OpGroupList))
}

func TestWorkspace_LogoutUnbindsAndStopsPolling(t *testing.T) {
	f := newFixture(t)
	f.seedGroup(t, "Work")
	w := f.registry.Create()
	storage := &sessionstore.Memory{}
	require.NoError(t, w.Login(context.Background(), storage, "ana@example.com", "secret"))

	w.Logout(context.Background(), storage)

	assert.False(t, w.Session.State().Authenticated)
	assert.False(t, w.Tree.Bound())
	assert.False(t, w.Polling())
	assert.Empty(t, w.Tree.Snapshot().Groups)

	stored, err := storage.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)

	_, signOuts := f.auth.counts()
	assert.Equal(t, 1, signOuts)
}

func TestWorkspace_InitializeRestoresOnce(t *testing.T) {
	f := newFixture(t)
	f.seedGroup(t, "Work")
	w := f.registry.Create()

	storage := &sessionstore.Memory{}
	require.NoError(t, storage.Save(&models.Session{
		AccessToken:  "valid:user-1",
		RefreshToken: "refresh-1",
		User:         models.User{ID: "user-1"},
	}))

	require.NoError(t, w.Initialize(context.Background(), storage))
	require.NoError(t, w.Initialize(context.Background(), storage))

	assert.True(t, w.Session.State().Authenticated)
	assert.Len(t, w.Tree.Snapshot().Groups, 1)
	assert.Equal(t, 1, f.db.Calls(memory.OpGroupList))
	assert.True(t, w.Polling())
}

func TestWorkspace_InitializeWithoutSession(t *testing.T) {
	f := newFixture(t)
	w := f.registry.Create()
	assert.True(t, w.Session.State().Loading)

	require.NoError(t, w.Initialize(context.Background(), &sessionstore.Memory{}))

	s := w.Session.State()
	assert.False(t, s.Loading)
	assert.False(t, s.Authenticated)
	assert.False(t, w.Polling())
	assert.Zero(t, f.db.TotalCalls())
}

func TestWorkspace_PollReportsOutageAndRefetchesOnReconnect(t *testing.T) {
	f := newFixture(t)
	w := f.registry.Create()
	require.NoError(t, w.Login(context.Background(), &sessionstore.Memory{}, "ana@example.com", "secret"))
	require.Equal(t, 1, f.db.Calls(memory.OpGroupList))

	feed, cancel := w.Hub.Subscribe()
	defer cancel()

	f.prober.connected.Store(false)
	w.Poll(context.Background())

	conn := ofType(drain(feed), EventConnectivity)
	require.Len(t, conn, 1)
	status := conn[0].Data.(ConnectivityStatus)
	assert.False(t, status.Connected)
	assert.NotEmpty(t, status.Message)
	assert.Equal(t, 1, f.db.Calls(memory.OpGroupList))

	// Still down: nothing changes, nothing is published.
	w.Poll(context.Background())
	assert.Empty(t, ofType(drain(feed), EventConnectivity))

	f.seedGroup(t, "Added while offline")
	f.prober.connected.Store(true)
	w.Poll(context.Background())

	conn = ofType(drain(feed), EventConnectivity)
	require.Len(t, conn, 1)
	assert.True(t, conn[0].Data.(ConnectivityStatus).Connected)
	assert.Equal(t, 2, f.db.Calls(memory.OpGroupList))
	assert.Len(t, w.Tree.Snapshot().Groups, 1)
}

func TestWorkspace_PollRenewsExpiringToken(t *testing.T) {
	f := newFixture(t)
	f.auth.expiresIn = 30 * time.Second
	w := f.registry.Create()
	storage := &sessionstore.Memory{}
	require.NoError(t, w.Login(context.Background(), storage, "ana@example.com", "secret"))

	w.Poll(context.Background())

	refreshes, _ := f.auth.counts()
	assert.Equal(t, 1, refreshes)
	assert.Equal(t, "valid:user-1#renewed", w.Session.State().Session.AccessToken)

	// The cookie still holds the old token until the next request syncs it.
	stored, _ := storage.Load()
	assert.Equal(t, "valid:user-1", stored.AccessToken)

	require.NoError(t, w.SyncStorage(storage))
	stored, _ = storage.Load()
	assert.Equal(t, "valid:user-1#renewed", stored.AccessToken)
	assert.Equal(t, "refresh-2", stored.RefreshToken)
}

func TestWorkspace_SyncStorageSkipsUnchangedSession(t *testing.T) {
	f := newFixture(t)
	w := f.registry.Create()
	storage := &countingStorage{}
	require.NoError(t, w.Login(context.Background(), storage, "ana@example.com", "secret"))
	saves := storage.saves

	require.NoError(t, w.SyncStorage(storage))
	assert.Equal(t, saves, storage.saves)
}

type countingStorage struct {
	sessionstore.Memory
	saves int
}

func (s *countingStorage) Save(sess *models.Session) error {
	s.saves++
	return s.Memory.Save(sess)
}

func TestWorkspace_SignedOutElsewhereEndsSession(t *testing.T) {
	f := newFixture(t)
	w := f.registry.Create()
	storage := &sessionstore.Memory{}
	require.NoError(t, w.Login(context.Background(), storage, "ana@example.com", "secret"))

	f.events.Publish(supabase.AuthEvent{Type: supabase.EventSignedOut, UserID: "user-1"})

	require.Eventually(t, func() bool {
		return !w.Session.State().Authenticated
	}, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return !w.Tree.Bound() && !w.Polling()
	}, time.Second, 10*time.Millisecond)

	// The revoked tokens leave storage on the next sync, so a fresh
	// workspace cannot restore them.
	stored, err := storage.Load()
	require.NoError(t, err)
	require.NotNil(t, stored)

	require.NoError(t, w.SyncStorage(storage))
	stored, err = storage.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)

	fresh := f.registry.Create()
	require.NoError(t, fresh.Initialize(context.Background(), storage))
	assert.False(t, fresh.Session.State().Authenticated)
}

func TestWorkspace_SyncStorageLeavesEmptyStorageAlone(t *testing.T) {
	f := newFixture(t)
	w := f.registry.Create()
	storage := &countingStorage{}
	require.NoError(t, w.Initialize(context.Background(), storage))

	require.NoError(t, w.SyncStorage(storage))
	assert.Zero(t, storage.saves)
	stored, err := storage.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)
}
