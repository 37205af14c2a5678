package repositories

import (
	"context"

	"linkvault/internal/domain/models"
)

// ProfileRepository reads the backend-managed profiles table.
type ProfileRepository interface {
	// GetByID returns the profile for a user id, or domain.ErrNotFound
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

// GroupRepository defines data access operations for groups
type GroupRepository interface {
	// ListByUser returns every group owned by userID, oldest first
	ListByUser(ctx context.Context, userID string) ([]models.Group, error)

	// Create inserts a group and fills in the generated ID and CreatedAt
	Create(ctx context.Context, group *models.Group) error

	// UpdateName renames a group. Returns domain.ErrNotFound if no row matched.
	UpdateName(ctx context.Context, id, userID, name string) error

	// Delete removes a group row. Children are the backend's concern.
	Delete(ctx context.Context, id, userID string) error
}

// SubgroupRepository defines data access operations for subgroups
type SubgroupRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Subgroup, error)
	Create(ctx context.Context, subgroup *models.Subgroup) error
	UpdateName(ctx context.Context, id, userID, name string) error
	Delete(ctx context.Context, id, userID string) error
}

// FileRepository defines data access operations for file entries
type FileRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.File, error)
	Create(ctx context.Context, file *models.File) error
	UpdateName(ctx context.Context, id, userID, name string) error
	Delete(ctx context.Context, id, userID string) error
}

// Set bundles the four table repositories so backends can be swapped as a unit.
type Set struct {
	Profiles  ProfileRepository
	Groups    GroupRepository
	Subgroups SubgroupRepository
	Files     FileRepository
}
