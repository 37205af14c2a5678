package models

import (
	"fmt"
	"time"
)

// Kind names one level of the group tree.
type Kind string

const (
	KindGroup    Kind = "group"
	KindSubgroup Kind = "subgroup"
	KindFile     Kind = "file"
)

// ParseKind converts a path segment or request field into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindGroup, KindSubgroup, KindFile:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// Group is the root of a user's tree.
type Group struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Subgroup belongs to exactly one Group. GroupID never changes after insert.
type Subgroup struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	GroupID   string    `json:"group_id" db:"group_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// File is a named external link inside a Subgroup. Link is never interpreted.
type File struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Link       string    `json:"link" db:"link"`
	SubgroupID string    `json:"subgroup_id" db:"subgroup_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
