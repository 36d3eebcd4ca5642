/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package lanes maintains the ordered virtual-channel directory the packer
// assigns events onto. The directory is fixed for the duration of a build.
package lanes

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/gridcast/internal/models"
)

// Default seeding parameters, matching the original deployment layout.
const (
	DefaultLaneCount   = 40
	DefaultStartNumber = 20010
	DefaultGroupName   = "Gridcast VC"
)

// laneSpec is one entry of a YAML lane directory file.
type laneSpec struct {
	ID     string `yaml:"id"`
	Number int    `yaml:"chno"`
	Name   string `yaml:"name"`
	Group  string `yaml:"group"`
}

// Directory loads and seeds the channel table.
type Directory struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New creates a lane directory backed by the channel table.
func New(database *gorm.DB, logger zerolog.Logger) *Directory {
	return &Directory{
		db:     database,
		logger: logger.With().Str("component", "lanes").Logger(),
	}
}

// Load returns the active channels in canonical (guide number) order.
func (d *Directory) Load(ctx context.Context) ([]models.Channel, error) {
	var channels []models.Channel
	err := d.db.WithContext(ctx).
		Where("active = ?", true).
		Order("chno ASC").
		Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}
	return channels, nil
}

// SeedIfEmpty populates the channel table with n default lanes when no
// active channel exists. Returns the number of active channels afterwards.
func (d *Directory) SeedIfEmpty(ctx context.Context, n int) (int, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.Channel{}).
		Where("active = ?", true).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count channels: %w", err)
	}
	if count > 0 {
		return int(count), nil
	}
	if n <= 0 {
		n = DefaultLaneCount
	}

	channels := make([]models.Channel, 0, n)
	for i := 1; i <= n; i++ {
		channels = append(channels, models.Channel{
			ID:        fmt.Sprintf("vc%d", i),
			Number:    DefaultStartNumber + i - 1,
			Name:      fmt.Sprintf("Gridcast VC %02d", i),
			GroupName: DefaultGroupName,
			Active:    true,
		})
	}
	if err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&channels).Error; err != nil {
		return 0, fmt.Errorf("seed channels: %w", err)
	}

	d.logger.Info().Int("count", n).Msg("seeded default lanes")
	return n, nil
}

// SyncFromFile upserts the channel table from a YAML lane directory file.
// Lanes present in the table but absent from the file are deactivated, not
// deleted, so prior plans keep their channel references.
func (d *Directory) SyncFromFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read lane file: %w", err)
	}

	var specs []laneSpec
	if err := yaml.Unmarshal(raw, &specs); err != nil {
		return fmt.Errorf("parse lane file: %w", err)
	}
	if len(specs) == 0 {
		return fmt.Errorf("lane file %s holds no lanes", path)
	}

	seen := make(map[string]struct{}, len(specs))
	ids := make([]string, 0, len(specs))
	for i, spec := range specs {
		if spec.ID == "" || spec.Number <= 0 {
			return fmt.Errorf("lane file entry %d: id and chno are required", i)
		}
		if _, dup := seen[spec.ID]; dup {
			return fmt.Errorf("lane file entry %d: duplicate lane id %q", i, spec.ID)
		}
		seen[spec.ID] = struct{}{}
		ids = append(ids, spec.ID)
	}

	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, spec := range specs {
			group := spec.Group
			if group == "" {
				group = DefaultGroupName
			}
			ch := models.Channel{
				ID:        spec.ID,
				Number:    spec.Number,
				Name:      spec.Name,
				GroupName: group,
				Active:    true,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"chno", "name", "group_name", "active"}),
			}).Create(&ch).Error; err != nil {
				return fmt.Errorf("upsert lane %s: %w", spec.ID, err)
			}
		}
		if err := tx.Model(&models.Channel{}).
			Where("id NOT IN ?", ids).
			Update("active", false).Error; err != nil {
			return fmt.Errorf("deactivate removed lanes: %w", err)
		}
		d.logger.Info().Int("count", len(specs)).Str("file", path).Msg("lane directory synced")
		return nil
	})
}
