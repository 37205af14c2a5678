// Package memory is an in-process implementation of the repositories. It
// mirrors the backend's foreign keys (inserts need an existing parent, deletes
// cascade) and lets tests inject failures or pause calls.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"linkvault/internal/domain"
	"linkvault/internal/domain/models"
	"linkvault/internal/domain/repositories"
)

// Operation names accepted by Fail, Hook and Calls.
const (
	OpProfileGet     = "profiles.get"
	OpGroupList      = "groups.list"
	OpGroupCreate    = "groups.create"
	OpGroupUpdate    = "groups.update"
	OpGroupDelete    = "groups.delete"
	OpSubgroupList   = "subgroups.list"
	OpSubgroupCreate = "subgroups.create"
	OpSubgroupUpdate = "subgroups.update"
	OpSubgroupDelete = "subgroups.delete"
	OpFileList       = "files.list"
	OpFileCreate     = "files.create"
	OpFileUpdate     = "files.update"
	OpFileDelete     = "files.delete"
)

// Store holds the four tables.
type Store struct {
	mu        sync.Mutex
	profiles  map[string]models.Profile
	groups    []models.Group
	subgroups []models.Subgroup
	files     []models.File

	failures map[string]error
	hooks    map[string]func(ctx context.Context)
	calls    map[string]int
	clock    time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		profiles: make(map[string]models.Profile),
		failures: make(map[string]error),
		hooks:    make(map[string]func(ctx context.Context)),
		calls:    make(map[string]int),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Repositories returns repository views over the store.
func (s *Store) Repositories() repositories.Set {
	return repositories.Set{
		Profiles:  profileRepo{s},
		Groups:    groupRepo{s},
		Subgroups: subgroupRepo{s},
		Files:     fileRepo{s},
	}
}

// AddProfile inserts a profile row.
func (s *Store) AddProfile(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

// Fail makes every later call of op return err. A nil err clears the failure.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Hook runs fn after every successful call of op has read or written its
// rows, just before it returns. fn runs outside the store lock.
func (s *Store) Hook(op string, fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		delete(s.hooks, op)
		return
	}
	s.hooks[op] = fn
}

// Calls reports how many times op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// TotalCalls reports the number of calls across all operations.
func (s *Store) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Rows returns copies of the three tree tables filtered by user.
func (s *Store) Rows(userID string) ([]models.Group, []models.Subgroup, []models.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterByUser(s.groups, userID, func(g models.Group) string { return g.UserID }),
		filterByUser(s.subgroups, userID, func(sg models.Subgroup) string { return sg.UserID }),
		filterByUser(s.files, userID, func(f models.File) string { return f.UserID })
}

// enter records the call. The returned error is the injected failure, if any.
func (s *Store) enter(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.failures[op]
}

// leave runs the hook of op.
func (s *Store) leave(ctx context.Context, op string) error {
	s.mu.Lock()
	hook := s.hooks[op]
	s.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	return ctx.Err()
}

// write runs fn under the store lock.
func (s *Store) write(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// stamp returns a strictly increasing creation time. Caller holds s.mu.
func (s *Store) stamp() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func filterByUser[T any](rows []T, userID string, owner func(T) string) []T {
	out := []T{}
	for _, r := range rows {
		if owner(r) == userID {
			out = append(out, r)
		}
	}
	return out
}

type profileRepo struct{ s *Store }

func (r profileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	if err := r.s.enter(ctx, OpProfileGet); err != nil {
		return nil, err
	}
	var p models.Profile
	err := r.s.write(func() error {
		found, ok := r.s.profiles[id]
		if !ok {
			return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
		}
		p = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, r.s.leave(ctx, OpProfileGet)
}

type groupRepo struct{ s *Store }

func (r groupRepo) ListByUser(ctx context.Context, userID string) ([]models.Group, error) {
	if err := r.s.enter(ctx, OpGroupList); err != nil {
		return nil, err
	}
	groups, _, _ := r.s.Rows(userID)
	return groups, r.s.leave(ctx, OpGroupList)
}

func (r groupRepo) Create(ctx context.Context, group *models.Group) error {
	if err := r.s.enter(ctx, OpGroupCreate); err != nil {
		return err
	}
	r.s.write(func() error {
		group.ID = uuid.NewString()
		group.CreatedAt = r.s.stamp()
		r.s.groups = append(r.s.groups, *group)
		return nil
	})
	return r.s.leave(ctx, OpGroupCreate)
}

func (r groupRepo) UpdateName(ctx context.Context, id, userID, name string) error {
	if err := r.s.enter(ctx, OpGroupUpdate); err != nil {
		return err
	}
	err := r.s.write(func() error {
		for i := range r.s.groups {
			if r.s.groups[i].ID == id && r.s.groups[i].UserID == userID {
				r.s.groups[i].Name = name
				return nil
			}
		}
		return fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	})
	if err != nil {
		return err
	}
	return r.s.leave(ctx, OpGroupUpdate)
}

func (r groupRepo) Delete(ctx context.Context, id, userID string) error {
	if err := r.s.enter(ctx, OpGroupDelete); err != nil {
		return err
	}
	r.s.write(func() error {
		kept := r.s.groups[:0]
		for _, g := range r.s.groups {
			if g.ID == id && g.UserID == userID {
				continue
			}
			kept = append(kept, g)
		}
		r.s.groups = kept

		var dropped []string
		subgroups := r.s.subgroups[:0]
		for _, sg := range r.s.subgroups {
			if sg.GroupID == id {
				dropped = append(dropped, sg.ID)
				continue
			}
			subgroups = append(subgroups, sg)
		}
		r.s.subgroups = subgroups
		for _, sgID := range dropped {
			r.s.dropFiles(sgID)
		}
		return nil
	})
	return r.s.leave(ctx, OpGroupDelete)
}

type subgroupRepo struct{ s *Store }

func (r subgroupRepo) ListByUser(ctx context.Context, userID string) ([]models.Subgroup, error) {
	if err := r.s.enter(ctx, OpSubgroupList); err != nil {
		return nil, err
	}
	_, subgroups, _ := r.s.Rows(userID)
	return subgroups, r.s.leave(ctx, OpSubgroupList)
}

func (r subgroupRepo) Create(ctx context.Context, subgroup *models.Subgroup) error {
	if err := r.s.enter(ctx, OpSubgroupCreate); err != nil {
		return err
	}
	err := r.s.write(func() error {
		for _, g := range r.s.groups {
			if g.ID == subgroup.GroupID && g.UserID == subgroup.UserID {
				subgroup.ID = uuid.NewString()
				subgroup.CreatedAt = r.s.stamp()
				r.s.subgroups = append(r.s.subgroups, *subgroup)
				return nil
			}
		}
		return &domain.ValidationError{Message: fmt.Sprintf("group %s does not exist", subgroup.GroupID)}
	})
	if err != nil {
		return err
	}
	return r.s.leave(ctx, OpSubgroupCreate)
}

func (r subgroupRepo) UpdateName(ctx context.Context, id, userID, name string) error {
	if err := r.s.enter(ctx, OpSubgroupUpdate); err != nil {
		return err
	}
	err := r.s.write(func() error {
		for i := range r.s.subgroups {
			if r.s.subgroups[i].ID == id && r.s.subgroups[i].UserID == userID {
				r.s.subgroups[i].Name = name
				return nil
			}
		}
		return fmt.Errorf("subgroup %s: %w", id, domain.ErrNotFound)
	})
	if err != nil {
		return err
	}
	return r.s.leave(ctx, OpSubgroupUpdate)
}

func (r subgroupRepo) Delete(ctx context.Context, id, userID string) error {
	if err := r.s.enter(ctx, OpSubgroupDelete); err != nil {
		return err
	}
	r.s.write(func() error {
		kept := r.s.subgroups[:0]
		for _, sg := range r.s.subgroups {
			if sg.ID == id && sg.UserID == userID {
				continue
			}
			kept = append(kept, sg)
		}
		r.s.subgroups = kept
		r.s.dropFiles(id)
		return nil
	})
	return r.s.leave(ctx, OpSubgroupDelete)
}

// dropFiles removes the files of a subgroup. Caller holds s.mu.
func (s *Store) dropFiles(subgroupID string) {
	kept := s.files[:0]
	for _, f := range s.files {
		if f.SubgroupID != subgroupID {
			kept = append(kept, f)
		}
	}
	s.files = kept
}

type fileRepo struct{ s *Store }

func (r fileRepo) ListByUser(ctx context.Context, userID string) ([]models.File, error) {
	if err := r.s.enter(ctx, OpFileList); err != nil {
		return nil, err
	}
	_, _, files := r.s.Rows(userID)
	return files, r.s.leave(ctx, OpFileList)
}

func (r fileRepo) Create(ctx context.Context, file *models.File) error {
	if err := r.s.enter(ctx, OpFileCreate); err != nil {
		return err
	}
	err := r.s.write(func() error {
		for _, sg := range r.s.subgroups {
			if sg.ID == file.SubgroupID && sg.UserID == file.UserID {
				file.ID = uuid.NewString()
				file.CreatedAt = r.s.stamp()
				r.s.files = append(r.s.files, *file)
				return nil
			}
		}
		return &domain.ValidationError{Message: fmt.Sprintf("subgroup %s does not exist", file.SubgroupID)}
	})
	if err != nil {
		return err
	}
	return r.s.leave(ctx, OpFileCreate)
}

func (r fileRepo) UpdateName(ctx context.Context, id, userID, name string) error {
	if err := r.s.enter(ctx, OpFileUpdate); err != nil {
		return err
	}
	err := r.s.write(func() error {
		for i := range r.s.files {
			if r.s.files[i].ID == id && r.s.files[i].UserID == userID {
				r.s.files[i].Name = name
				return nil
			}
		}
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	})
	if err != nil {
		return err
	}
	return r.s.leave(ctx, OpFileUpdate)
}

func (r fileRepo) Delete(ctx context.Context, id, userID string) error {
	if err := r.s.enter(ctx, OpFileDelete); err != nil {
		return err
	}
	r.s.write(func() error {
		kept := r.s.files[:0]
		for _, f := range r.s.files {
			if f.ID == id && f.UserID == userID {
				continue
			}
			kept = append(kept, f)
		}
		r.s.files = kept
		return nil
	})
	return r.s.leave(ctx, OpFileDelete)
}
