/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/gridcast/internal/models"
)

// StickyStore is the durable event-identity to lane map consulted by the
// packer. One snapshot is read per build; upserts are staged and applied
// inside the plan writer's transaction.
type StickyStore struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewStickyStore creates a sticky store over the sticky_assignments table.
func NewStickyStore(database *gorm.DB, logger zerolog.Logger) *StickyStore {
	return &StickyStore{
		db:     database,
		logger: logger.With().Str("component", "sticky").Logger(),
	}
}

// Load returns a read-only snapshot of the sticky map. A read failure
// degrades the build (no stickiness) rather than aborting it.
func (s *StickyStore) Load(ctx context.Context) map[string]string {
	var rows []models.StickyAssignment
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		s.logger.Warn().Err(err).Msg("sticky map unreadable, building without lane affinity")
		return map[string]string{}
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.EventID] = row.ChannelID
	}
	return out
}

// applyUpdates upserts staged assignments within the caller's transaction.
// PinnedAt is set on first insert only; LastSeenAt always advances.
func applyUpdates(tx *gorm.DB, updates []StickyUpdate, now time.Time) error {
	for _, u := range updates {
		row := models.StickyAssignment{
			EventID:    u.EventID,
			ChannelID:  u.ChannelID,
			PinnedAt:   now,
			LastSeenAt: now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"channel_id", "last_seen_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("upsert sticky assignment %s: %w", u.EventID, err)
		}
	}
	return nil
}

// Count reports the number of stored assignments.
func (s *StickyStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.StickyAssignment{}).Count(&n).Error
	return n, err
}

// Clear deletes all stored assignments and returns how many were removed.
// The next build assigns lanes from scratch. This is the explicit reset
// path; ordinary builds never delete sticky rows.
func (s *StickyStore) Clear(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.StickyAssignment{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear sticky assignments: %w", res.Error)
	}
	return res.RowsAffected, nil
}
