package seed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkvault/internal/domain/repositories"
	"linkvault/internal/repository/memory"
)

// recordingTx runs fn directly and remembers that it was asked to.
type recordingTx struct {
	calls int
}

func (tx *recordingTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	tx.calls++
	return fn(ctx)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSeedTree(t *testing.T) {
	store := memory.New()
	tx := &recordingTx{}
	seeder := NewTreeSeeder(store.Repositories(), tx, discardLogger())

	counts, err := seeder.SeedTree(t.Context(), "u1", DefaultTree)
	require.NoError(t, err)
	assert.Equal(t, Counts{Groups: 2, Subgroups: 4, Files: 4}, counts)
	assert.Equal(t, 1, tx.calls)

	groups, subgroups, files := store.Rows("u1")
	assert.Len(t, groups, 2)
	assert.Len(t, subgroups, 4)
	assert.Len(t, files, 4)

	byID := map[string]string{}
	for _, g := range groups {
		byID[g.ID] = g.Name
	}
	for _, sg := range subgroups {
		assert.Contains(t, byID, sg.GroupID)
	}
}

func TestSeedTree_SkipsExistingUser(t *testing.T) {
	store := memory.New()
	seeder := NewTreeSeeder(store.Repositories(), nil, discardLogger())

	_, err := seeder.SeedTree(t.Context(), "u1", DefaultTree)
	require.NoError(t, err)

	counts, err := seeder.SeedTree(t.Context(), "u1", DefaultTree)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)

	groups, _, _ := store.Rows("u1")
	assert.Len(t, groups, 2)
}

func TestSeedTree_PropagatesWriteError(t *testing.T) {
	store := memory.New()
	boom := errors.New("insert failed")
	store.Fail(memory.OpFileCreate, boom)
	seeder := NewTreeSeeder(store.Repositories(), &recordingTx{}, discardLogger())

	counts, err := seeder.SeedTree(t.Context(), "u1", DefaultTree)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Counts{}, counts)
}
