// Package tree keeps the in-memory Group → Subgroup → File view of one user's
// rows consistent with the backend tables.
package tree

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"linkvault/internal/domain"
	"linkvault/internal/domain/models"
	"linkvault/internal/domain/repositories"
	"linkvault/internal/supabase"
)

// Change names what part of the view moved.
type Change string

const (
	ChangeTree         Change = "tree"
	ChangeConnectivity Change = "connectivity"
)

// Prober samples backend reachability.
type Prober interface {
	CheckConnection(ctx context.Context) bool
}

// Option configures a Store.
type Option func(*Store)

// WithChangeFunc registers fn to run after every state change. It is called
// without the store lock held.
func WithChangeFunc(fn func(Change)) Option {
	return func(s *Store) {
		s.onChange = fn
	}
}

// Store owns the tree view model of one workspace.
//
// Backend calls never run under mu. Fetch results are committed only if no
// newer fetch and no mutation has been committed since the fetch started.
type Store struct {
	repos      repositories.Set
	prober     Prober
	translator *supabase.Translator
	logger     *slog.Logger
	onChange   func(Change)

	mu          sync.Mutex
	userID      string
	accessToken string
	groups      []*models.GroupNode
	selected    string
	errMsg      string
	connected   bool
	fetching    int    // fetches in flight
	ticket      uint64 // last sequence number handed out
	applied     uint64 // sequence number of the last committed change
}

// NewStore creates an unbound store.
func NewStore(repos repositories.Set, prober Prober, translator *supabase.Translator, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		repos:      repos,
		prober:     prober,
		translator: translator,
		logger:     logger,
		groups:     []*models.GroupNode{},
		connected:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind attaches the store to a user. Switching to a different user discards
// the current tree; the same user only picks up the new token.
func (s *Store) Bind(userID, accessToken string) {
	s.mu.Lock()
	if s.userID != userID {
		s.resetLocked()
	}
	s.userID = userID
	s.accessToken = accessToken
	s.mu.Unlock()
}

// Unbind clears the tree and identity. In-flight fetches are discarded.
func (s *Store) Unbind() {
	s.mu.Lock()
	s.resetLocked()
	s.userID = ""
	s.accessToken = ""
	s.mu.Unlock()
	s.notify(ChangeTree)
}

// Bound reports whether a user is attached.
func (s *Store) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID != ""
}

func (s *Store) resetLocked() {
	s.groups = []*models.GroupNode{}
	s.selected = ""
	s.errMsg = ""
	s.ticket++
	s.applied = s.ticket
}

// authorize returns a context carrying the bound token and the bound user id.
func (s *Store) authorize(ctx context.Context) (context.Context, string, error) {
	s.mu.Lock()
	userID, token := s.userID, s.accessToken
	s.mu.Unlock()

	if userID == "" || token == "" {
		return nil, "", domain.ErrUnauthorized
	}
	return supabase.WithAccessToken(ctx, token), userID, nil
}

// commitLocked marks a mutation as applied so that fetches started before it are discarded.
func (s *Store) commitLocked() {
	s.ticket++
	s.applied = s.ticket
}

func (s *Store) notify(c Change) {
	if s.onChange != nil {
		s.onChange(c)
	}
}

// fail logs a backend failure and returns it translated for the user.
func (s *Store) fail(op string, err error, attrs ...any) error {
	attrs = append(attrs, "error", err)
	s.logger.Warn(op+" failed", attrs...)
	return s.translator.Translate(err)
}

// FetchAll reloads the three tables concurrently and rebuilds the tree.
// On failure the tree is kept, the error message is set and connectivity is
// re-sampled. The returned error is a *supabase.UserError.
func (s *Store) FetchAll(ctx context.Context) error {
	authCtx, userID, err := s.authorize(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ticket++
	seq := s.ticket
	s.fetching++
	s.mu.Unlock()

	var (
		groups    []models.Group
		subgroups []models.Subgroup
		files     []models.File
	)

	g, gctx := errgroup.WithContext(authCtx)
	g.Go(func() error {
		var err error
		groups, err = s.repos.Groups.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		subgroups, err = s.repos.Subgroups.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		files, err = s.repos.Files.ListByUser(gctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		userErr := s.fail("fetch tree", err, "user_id", userID)
		connected := s.prober.CheckConnection(authCtx)

		s.mu.Lock()
		if seq > s.applied {
			s.errMsg = userErr.Error()
		}
		changed := s.connected != connected
		s.connected = connected
		s.fetching--
		s.mu.Unlock()

		if changed {
			s.notify(ChangeConnectivity)
		}
		s.notify(ChangeTree)
		return userErr
	}

	s.mu.Lock()
	s.fetching--
	if seq <= s.applied {
		s.mu.Unlock()
		s.logger.Debug("discarding stale fetch", "user_id", userID, "seq", seq)
		return nil
	}

	s.groups = Assemble(groups, subgroups, files, s.groups)
	s.applied = seq
	s.errMsg = ""
	s.connected = true
	if s.selected != "" && s.findSubgroupLocked(s.selected) == nil {
		s.selected = ""
	}
	s.mu.Unlock()

	s.logger.Debug("tree fetched",
		"user_id", userID,
		"group_count", len(groups),
		"subgroup_count", len(subgroups),
		"file_count", len(files),
	)
	s.notify(ChangeTree)
	return nil
}

// AddGroup creates a group and appends it expanded and empty.
func (s *Store) AddGroup(ctx context.Context, name string) (*models.GroupNode, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	authCtx, userID, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}

	group := &models.Group{Name: name, UserID: userID}
	if err := s.repos.Groups.Create(authCtx, group); err != nil {
		return nil, s.fail("create group", err, "name", name)
	}

	node := models.NewGroupNode(*group, true)
	s.mu.Lock()
	s.commitLocked()
	s.groups = append(s.groups, node)
	out := node.Clone()
	s.mu.Unlock()

	s.logger.Info("group created", "id", group.ID, "user_id", userID)
	s.notify(ChangeTree)
	return out, nil
}

// AddSubgroup creates a subgroup under a group of the tree. The new subgroup
// becomes the selection and both levels are expanded.
func (s *Store) AddSubgroup(ctx context.Context, groupID, name string) (*models.SubgroupNode, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	authCtx, userID, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	exists := s.findGroupLocked(groupID) != nil
	s.mu.Unlock()
	if !exists {
		return nil, fmt.Errorf("group %s: %w", groupID, domain.ErrNotFound)
	}

	subgroup := &models.Subgroup{Name: name, GroupID: groupID, UserID: userID}
	if err := s.repos.Subgroups.Create(authCtx, subgroup); err != nil {
		return nil, s.fail("create subgroup", err, "group_id", groupID)
	}

	node := models.NewSubgroupNode(*subgroup, true)
	s.mu.Lock()
	s.commitLocked()
	if parent := s.findGroupLocked(groupID); parent != nil {
		parent.IsExpanded = true
		parent.Subgroups = append(parent.Subgroups, node)
		s.selected = subgroup.ID
	}
	out := node.Clone()
	s.mu.Unlock()

	s.logger.Info("subgroup created", "id", subgroup.ID, "group_id", groupID, "user_id", userID)
	s.notify(ChangeTree)
	return out, nil
}

// AddFile creates a file entry. An empty subgroupID targets the selected subgroup.
func (s *Store) AddFile(ctx context.Context, subgroupID, name, link string) (*models.File, error) {
	s.mu.Lock()
	if subgroupID == "" {
		subgroupID = s.selected
	}
	exists := subgroupID != "" && s.findSubgroupLocked(subgroupID) != nil
	s.mu.Unlock()

	if subgroupID == "" {
		return nil, domain.ErrNoSubgroupSelected
	}

	in := fileInput{Name: name, Link: link}
	if err := in.validate(); err != nil {
		return nil, err
	}
	authCtx, userID, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("subgroup %s: %w", subgroupID, domain.ErrNotFound)
	}

	file := &models.File{Name: in.Name, Link: in.Link, SubgroupID: subgroupID, UserID: userID}
	if err := s.repos.Files.Create(authCtx, file); err != nil {
		return nil, s.fail("create file", err, "subgroup_id", subgroupID)
	}

	s.mu.Lock()
	s.commitLocked()
	if parent := s.findSubgroupLocked(subgroupID); parent != nil {
		parent.IsExpanded = true
		parent.Files = append(parent.Files, *file)
	}
	s.mu.Unlock()

	s.logger.Info("file created", "id", file.ID, "subgroup_id", subgroupID, "user_id", userID)
	s.notify(ChangeTree)
	out := *file
	return &out, nil
}

// Rename changes only the name of one row and of its node.
func (s *Store) Rename(ctx context.Context, kind models.Kind, id, name string) error {
	name, err := validateName(name)
	if err != nil {
		return err
	}
	authCtx, userID, err := s.authorize(ctx)
	if err != nil {
		return err
	}

	repo, err := s.writerFor(kind)
	if err != nil {
		return err
	}
	s.mu.Lock()
	exists := s.containsLocked(kind, id)
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}

	if err := repo.UpdateName(authCtx, id, userID, name); err != nil {
		return s.fail("rename "+string(kind), err, "id", id)
	}

	s.mu.Lock()
	s.commitLocked()
	s.renameLocked(kind, id, name)
	s.mu.Unlock()

	s.logger.Info(string(kind)+" renamed", "id", id, "user_id", userID)
	s.notify(ChangeTree)
	return nil
}

// Remove deletes one row and drops its node with all descendants. Removing
// the selected subgroup, or the group holding it, clears the selection.
func (s *Store) Remove(ctx context.Context, kind models.Kind, id string) error {
	authCtx, userID, err := s.authorize(ctx)
	if err != nil {
		return err
	}

	repo, err := s.writerFor(kind)
	if err != nil {
		return err
	}
	s.mu.Lock()
	exists := s.containsLocked(kind, id)
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}

	if err := repo.Delete(authCtx, id, userID); err != nil {
		return s.fail("delete "+string(kind), err, "id", id)
	}

	s.mu.Lock()
	s.commitLocked()
	s.removeLocked(kind, id)
	s.mu.Unlock()

	s.logger.Info(string(kind)+" deleted", "id", id, "user_id", userID)
	s.notify(ChangeTree)
	return nil
}

// ToggleExpansion flips the expansion flag of a group or subgroup.
func (s *Store) ToggleExpansion(kind models.Kind, id string) error {
	s.mu.Lock()
	switch kind {
	case models.KindGroup:
		if g := s.findGroupLocked(id); g != nil {
			g.IsExpanded = !g.IsExpanded
			s.mu.Unlock()
			s.notify(ChangeTree)
			return nil
		}
	case models.KindSubgroup:
		if sg := s.findSubgroupLocked(id); sg != nil {
			sg.IsExpanded = !sg.IsExpanded
			s.mu.Unlock()
			s.notify(ChangeTree)
			return nil
		}
	default:
		s.mu.Unlock()
		return fmt.Errorf("%w: %s nodes cannot be expanded", domain.ErrValidation, kind)
	}
	s.mu.Unlock()
	return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
}

// SelectSubgroup toggles the selection of a subgroup. The containing group is
// expanded and the subgroup's own expansion flag flips.
func (s *Store) SelectSubgroup(subgroupID string) error {
	s.mu.Lock()
	for _, g := range s.groups {
		for _, sg := range g.Subgroups {
			if sg.ID != subgroupID {
				continue
			}
			if s.selected == subgroupID {
				s.selected = ""
			} else {
				s.selected = subgroupID
			}
			g.IsExpanded = true
			sg.IsExpanded = !sg.IsExpanded
			s.mu.Unlock()
			s.notify(ChangeTree)
			return nil
		}
	}
	s.mu.Unlock()
	return fmt.Errorf("subgroup %s: %w", subgroupID, domain.ErrNotFound)
}

// Snapshot returns a deep copy of the view for rendering.
func (s *Store) Snapshot() models.TreeView {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := make([]*models.GroupNode, len(s.groups))
	for i, g := range s.groups {
		groups[i] = g.Clone()
	}
	return models.TreeView{
		Groups:             groups,
		SelectedSubgroupID: s.selected,
		Error:              s.errMsg,
		Connected:          s.connected,
		Loading:            s.fetching > 0,
	}
}

// SelectedSubgroup returns a copy of the selected subgroup, or nil.
func (s *Store) SelectedSubgroup() *models.SubgroupNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == "" {
		return nil
	}
	if sg := s.findSubgroupLocked(s.selected); sg != nil {
		return sg.Clone()
	}
	return nil
}

// SelectedFiles returns the files of the selected subgroup.
func (s *Store) SelectedFiles() []models.File {
	if sg := s.SelectedSubgroup(); sg != nil {
		return sg.Files
	}
	return nil
}

// File looks up a file entry of the tree by id.
func (s *Store) File(id string) (models.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		for _, sg := range g.Subgroups {
			for _, f := range sg.Files {
				if f.ID == id {
					return f, true
				}
			}
		}
	}
	return models.File{}, false
}

// Connected returns the last connectivity sample.
func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Probe samples connectivity and records it. It reports the new value and
// whether it changed.
func (s *Store) Probe(ctx context.Context) (connected, changed bool) {
	if authCtx, _, err := s.authorize(ctx); err == nil {
		ctx = authCtx
	}
	connected = s.prober.CheckConnection(ctx)

	s.mu.Lock()
	changed = s.connected != connected
	s.connected = connected
	s.mu.Unlock()

	if changed {
		s.logger.Info("connectivity changed", "connected", connected)
		s.notify(ChangeConnectivity)
	}
	return connected, changed
}

type nameWriter interface {
	UpdateName(ctx context.Context, id, userID, name string) error
	Delete(ctx context.Context, id, userID string) error
}

func (s *Store) writerFor(kind models.Kind) (nameWriter, error) {
	switch kind {
	case models.KindGroup:
		return s.repos.Groups, nil
	case models.KindSubgroup:
		return s.repos.Subgroups, nil
	case models.KindFile:
		return s.repos.Files, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrValidation, kind)
}

func (s *Store) findGroupLocked(id string) *models.GroupNode {
	for _, g := range s.groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

func (s *Store) findSubgroupLocked(id string) *models.SubgroupNode {
	for _, g := range s.groups {
		for _, sg := range g.Subgroups {
			if sg.ID == id {
				return sg
			}
		}
	}
	return nil
}

func (s *Store) containsLocked(kind models.Kind, id string) bool {
	switch kind {
	case models.KindGroup:
		return s.findGroupLocked(id) != nil
	case models.KindSubgroup:
		return s.findSubgroupLocked(id) != nil
	case models.KindFile:
		for _, g := range s.groups {
			for _, sg := range g.Subgroups {
				for _, f := range sg.Files {
					if f.ID == id {
						return true
					}
				}
			}
		}
	}
	return false
}

func (s *Store) renameLocked(kind models.Kind, id, name string) {
	for _, g := range s.groups {
		if kind == models.KindGroup && g.ID == id {
			g.Name = name
			return
		}
		for _, sg := range g.Subgroups {
			if kind == models.KindSubgroup && sg.ID == id {
				sg.Name = name
				return
			}
			if kind != models.KindFile {
				continue
			}
			for i := range sg.Files {
				if sg.Files[i].ID == id {
					sg.Files[i].Name = name
					return
				}
			}
		}
	}
}

func (s *Store) removeLocked(kind models.Kind, id string) {
	switch kind {
	case models.KindGroup:
		kept := s.groups[:0]
		for _, g := range s.groups {
			if g.ID != id {
				kept = append(kept, g)
				continue
			}
			for _, sg := range g.Subgroups {
				if sg.ID == s.selected {
					s.selected = ""
				}
			}
		}
		s.groups = kept
	case models.KindSubgroup:
		for _, g := range s.groups {
			kept := g.Subgroups[:0]
			for _, sg := range g.Subgroups {
				if sg.ID != id {
					kept = append(kept, sg)
				}
			}
			g.Subgroups = kept
		}
		if s.selected == id {
			s.selected = ""
		}
	case models.KindFile:
		for _, g := range s.groups {
			for _, sg := range g.Subgroups {
				kept := sg.Files[:0]
				for _, f := range sg.Files {
					if f.ID != id {
						kept = append(kept, f)
					}
				}
				sg.Files = kept
			}
		}
	}
}
