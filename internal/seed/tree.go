package seed

import (
	"context"
	"fmt"
	"log/slog"

	"linkvault/internal/domain/models"
	"linkvault/internal/domain/repositories"
)

// SampleFile is one link of the sample tree.
type SampleFile struct {
	Name string
	Link string
}

// SampleSubgroup groups sample links.
type SampleSubgroup struct {
	Name  string
	Files []SampleFile
}

// SampleGroup is a root of the sample tree.
type SampleGroup struct {
	Name      string
	Subgroups []SampleSubgroup
}

// DefaultTree is what a fresh dev account starts with.
var DefaultTree = []SampleGroup{
	{
		Name: "Work",
		Subgroups: []SampleSubgroup{
			{
				Name: "Reports",
				Files: []SampleFile{
					{Name: "Quarterly numbers", Link: "https://docs.google.com/spreadsheets/d/quarterly"},
					{Name: "Board deck", Link: "https://docs.google.com/presentation/d/board"},
				},
			},
			{
				Name: "Onboarding",
				Files: []SampleFile{
					{Name: "Handbook", Link: "https://www.notion.so/handbook"},
				},
			},
		},
	},
	{
		Name: "Personal",
		Subgroups: []SampleSubgroup{
			{
				Name: "Reading",
				Files: []SampleFile{
					{Name: "Effective Go", Link: "https://go.dev/doc/effective_go"},
				},
			},
			{Name: "Travel"},
		},
	},
}

// TreeSeeder writes a sample group tree for one user
type TreeSeeder struct {
	repos     repositories.Set
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewTreeSeeder creates a new tree seeder. txManager may be nil, in which
// case rows are written without a surrounding transaction.
func NewTreeSeeder(repos repositories.Set, txManager repositories.TransactionManager, logger *slog.Logger) *TreeSeeder {
	return &TreeSeeder{
		repos:     repos,
		txManager: txManager,
		logger:    logger,
	}
}

// Counts reports how many rows a seeding run wrote.
type Counts struct {
	Groups    int
	Subgroups int
	Files     int
}

// SeedTree writes tree for userID. It refuses to touch a user who already has
// groups, so running the seeder twice never duplicates the sample.
func (s *TreeSeeder) SeedTree(ctx context.Context, userID string, tree []SampleGroup) (Counts, error) {
	existing, err := s.repos.Groups.ListByUser(ctx, userID)
	if err != nil {
		return Counts{}, fmt.Errorf("list existing groups: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("user already has groups, skipping sample tree", "user_id", userID, "groups", len(existing))
		return Counts{}, nil
	}

	var counts Counts
	write := func(ctx context.Context) error {
		counts = Counts{}
		for _, sg := range tree {
			group := &models.Group{Name: sg.Name, UserID: userID}
			if err := s.repos.Groups.Create(ctx, group); err != nil {
				return fmt.Errorf("create group %q: %w", sg.Name, err)
			}
			counts.Groups++

			for _, ss := range sg.Subgroups {
				subgroup := &models.Subgroup{Name: ss.Name, GroupID: group.ID, UserID: userID}
				if err := s.repos.Subgroups.Create(ctx, subgroup); err != nil {
					return fmt.Errorf("create subgroup %q: %w", ss.Name, err)
				}
				counts.Subgroups++

				for _, sf := range ss.Files {
					file := &models.File{Name: sf.Name, Link: sf.Link, SubgroupID: subgroup.ID, UserID: userID}
					if err := s.repos.Files.Create(ctx, file); err != nil {
						return fmt.Errorf("create file %q: %w", sf.Name, err)
					}
					counts.Files++
				}
			}
		}
		return nil
	}

	if s.txManager != nil {
		err = s.txManager.ExecTx(ctx, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		return Counts{}, err
	}

	s.logger.Info("sample tree seeded",
		"user_id", userID,
		"groups", counts.Groups,
		"subgroups", counts.Subgroups,
		"files", counts.Files,
	)
	return counts, nil
}
