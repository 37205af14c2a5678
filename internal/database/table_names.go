// Package database holds naming shared by every storage backend.
package database

import (
	"fmt"

	"linkvault/internal/domain/models"
)

// TableNames holds the prefixed table names for the current environment
type TableNames struct {
	Profiles  string
	Groups    string
	Subgroups string
	Files     string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Profiles:  fmt.Sprintf("%sprofiles", prefix),
		Groups:    fmt.Sprintf("%sgroups", prefix),
		Subgroups: fmt.Sprintf("%ssubgroups", prefix),
		Files:     fmt.Sprintf("%sfiles", prefix),
	}
}

// ForKind returns the table that stores rows of the given tree level.
func (t *TableNames) ForKind(kind models.Kind) string {
	switch kind {
	case models.KindGroup:
		return t.Groups
	case models.KindSubgroup:
		return t.Subgroups
	case models.KindFile:
		return t.Files
	default:
		return ""
	}
}
