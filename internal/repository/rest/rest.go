// Package rest implements the repositories over PostgREST. Every call runs
// with the access token carried by the context (supabase.WithAccessToken),
// so the backend's row-level security scopes the rows.
package rest

import (
	"context"
	"fmt"

	"linkvault/internal/database"
	"linkvault/internal/domain"
	"linkvault/internal/domain/models"
	"linkvault/internal/domain/repositories"
	"linkvault/internal/supabase"
)

// NewRepositories wires the four table repositories over one client.
func NewRepositories(client *supabase.Client, tables *database.TableNames) repositories.Set {
	return repositories.Set{
		Profiles:  &ProfileRepository{client: client, table: tables.Profiles},
		Groups:    &GroupRepository{table[models.Group]{client: client, name: tables.Groups, label: "group"}},
		Subgroups: &SubgroupRepository{table[models.Subgroup]{client: client, name: tables.Subgroups, label: "subgroup"}},
		Files:     &FileRepository{table[models.File]{client: client, name: tables.Files, label: "file"}},
	}
}

// table holds the operations shared by groups, subgroups and files.
type table[T any] struct {
	client *supabase.Client
	name   string
	label  string
}

func (t table[T]) listByUser(ctx context.Context, userID string) ([]T, error) {
	rows := []T{}
	err := t.client.From(t.name).
		Eq("user_id", userID).
		Order("created_at", true).
		Select(ctx, "*", &rows)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", t.label, err)
	}
	return rows, nil
}

func (t table[T]) insert(ctx context.Context, row interface{}) (*T, error) {
	var created []T
	if err := t.client.From(t.name).Insert(ctx, row, &created); err != nil {
		return nil, fmt.Errorf("create %s: %w", t.label, err)
	}
	if len(created) == 0 {
		// RLS rejected the row silently
		return nil, fmt.Errorf("create %s: no row returned: %w", t.label, domain.ErrForbidden)
	}
	return &created[0], nil
}

func (t table[T]) updateName(ctx context.Context, id, userID, name string) error {
	var updated []T
	err := t.client.From(t.name).
		Eq("id", id).
		Eq("user_id", userID).
		Update(ctx, map[string]string{"name": name}, &updated)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.label, err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("%s %s: %w", t.label, id, domain.ErrNotFound)
	}
	return nil
}

func (t table[T]) delete(ctx context.Context, id, userID string) error {
	err := t.client.From(t.name).
		Eq("id", id).
		Eq("user_id", userID).
		Delete(ctx)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.label, err)
	}
	return nil
}

// ProfileRepository reads profiles over PostgREST
type ProfileRepository struct {
	client *supabase.Client
	table  string
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var rows []models.Profile
	if err := r.client.From(r.table).Eq("id", id).Limit(1).Select(ctx, "*", &rows); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	return &rows[0], nil
}

// GroupRepository stores groups over PostgREST
type GroupRepository struct {
	t table[models.Group]
}

func (r *GroupRepository) ListByUser(ctx context.Context, userID string) ([]models.Group, error) {
	return r.t.listByUser(ctx, userID)
}

func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	created, err := r.t.insert(ctx, map[string]string{
		"name":    group.Name,
		"user_id": group.UserID,
	})
	if err != nil {
		return err
	}
	*group = *created
	return nil
}

func (r *GroupRepository) UpdateName(ctx context.Context, id, userID, name string) error {
	return r.t.updateName(ctx, id, userID, name)
}

func (r *GroupRepository) Delete(ctx context.Context, id, userID string) error {
	return r.t.delete(ctx, id, userID)
}

// SubgroupRepository stores subgroups over PostgREST
type SubgroupRepository struct {
	t table[models.Subgroup]
}

func (r *SubgroupRepository) ListByUser(ctx context.Context, userID string) ([]models.Subgroup, error) {
	return r.t.listByUser(ctx, userID)
}

func (r *SubgroupRepository) Create(ctx context.Context, subgroup *models.Subgroup) error {
	created, err := r.t.insert(ctx, map[string]string{
		"name":     subgroup.Name,
		"group_id": subgroup.GroupID,
		"user_id":  subgroup.UserID,
	})
	if err != nil {
		return err
	}
	*subgroup = *created
	return nil
}

func (r *SubgroupRepository) UpdateName(ctx context.Context, id, userID, name string) error {
	return r.t.updateName(ctx, id, userID, name)
}

func (r *SubgroupRepository) Delete(ctx context.Context, id, userID string) error {
	return r.t.delete(ctx, id, userID)
}

// FileRepository stores file entries over PostgREST
type FileRepository struct {
	t table[models.File]
}

func (r *FileRepository) ListByUser(ctx context.Context, userID string) ([]models.File, error) {
	return r.t.listByUser(ctx, userID)
}

func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	created, err := r.t.insert(ctx, map[string]string{
		"name":        file.Name,
		"link":        file.Link,
		"subgroup_id": file.SubgroupID,
		"user_id":     file.UserID,
	})
	if err != nil {
		return err
	}
	*file = *created
	return nil
}

func (r *FileRepository) UpdateName(ctx context.Context, id, userID, name string) error {
	return r.t.updateName(ctx, id, userID, name)
}

func (r *FileRepository) Delete(ctx context.Context, id, userID string) error {
	return r.t.delete(ctx, id, userID)
}
