package workspace

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkvault/internal/sessionstore"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	f := newFixture(t)

	w := f.registry.Create()
	require.NotEmpty(t, w.ID)

	got, ok := f.registry.Get(w.ID)
	require.True(t, ok)
	assert.Same(t, w, got)

	_, ok = f.registry.Get("")
	assert.False(t, ok)
	_, ok = f.registry.Get("unknown")
	assert.False(t, ok)

	other := f.registry.Create()
	assert.NotEqual(t, w.ID, other.ID)
	assert.Equal(t, 2, f.registry.Len())
}

func TestRegistry_TeardownClosesFeedAndPoll(t *testing.T) {
	f := newFixture(t)
	w := f.registry.Create()
	require.NoError(t, w.Login(context.Background(), &sessionstore.Memory{}, "ana@example.com", "secret"))
	require.True(t, w.Polling())

	feed, cancel := w.Hub.Subscribe()
	defer cancel()

	assert.True(t, f.registry.Teardown(w.ID))
	assert.False(t, f.registry.Teardown(w.ID))

	_, ok := f.registry.Get(w.ID)
	assert.False(t, ok)
	assert.False(t, w.Polling())

	for range feed {
	}
	// Teardown leaves the backend session alone.
	_, signOuts := f.auth.counts()
	assert.Zero(t, signOuts)
}

func TestRegistry_SweepRemovesIdleWorkspaces(t *testing.T) {
	f := newFixture(t)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f.registry.now = func() time.Time { return clock }

	idle := f.registry.Create()
	watched := f.registry.Create()
	active := f.registry.Create()

	_, cancel := watched.Hub.Subscribe()
	defer cancel()

	clock = clock.Add(2 * time.Hour)
	_, ok := f.registry.Get(active.ID)
	require.True(t, ok)

	assert.Equal(t, 1, f.registry.Sweep(time.Hour))

	_, ok = f.registry.Get(idle.ID)
	assert.False(t, ok)
	_, ok = f.registry.Get(watched.ID)
	assert.True(t, ok)
	_, ok = f.registry.Get(active.ID)
	assert.True(t, ok)
}

func TestHub_PublishSubscribe(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.Publish(Event{Type: EventTree})
	assert.Equal(t, EventTree, (<-a).Type)
	assert.Equal(t, EventTree, (<-b).Type)

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, h.Subscribers())

	h.Close()
	_, open = <-b
	assert.False(t, open)
	cancelB()

	// Subscribing to a closed hub yields a closed channel.
	c, _ := h.Subscribe()
	_, open = <-c
	assert.False(t, open)
	h.Publish(Event{Type: EventAuth})
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < hubBuffer+10; i++ {
		h.Publish(Event{Type: EventTree, Data: i})
	}
	assert.Len(t, drain(ch), hubBuffer)
}

func TestScheduler_Jobs(t *testing.T) {
	s := NewScheduler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Error(t, s.AddJob("bad", "not a schedule", func() {}))
	assert.False(t, s.HasJob("bad"))

	require.NoError(t, s.AddJob("job", "@every 30s", func() {}))
	require.NoError(t, s.AddJob("job", "@every 1m", func() {}))
	assert.True(t, s.HasJob("job"))

	s.RemoveJob("job")
	s.RemoveJob("job")
	assert.False(t, s.HasJob("job"))
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := NewScheduler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	var runs atomic.Int32
	require.NoError(t, s.AddJob("tick", "@every 1s", func() { runs.Add(1) }))

	s.Start()
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
