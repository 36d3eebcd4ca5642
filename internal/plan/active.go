/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/gridcast/internal/models"
)

// ErrNoActivePlan is returned before the first successful build.
var ErrNoActivePlan = errors.New("no active plan published")

// ActivePlanID reads the active-plan pointer.
func ActivePlanID(ctx context.Context, database *gorm.DB) (string, error) {
	var meta models.PlanMeta
	err := database.WithContext(ctx).
		First(&meta, "key = ?", models.MetaActivePlanID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNoActivePlan
	}
	if err != nil {
		return "", fmt.Errorf("read active plan pointer: %w", err)
	}
	return meta.Value, nil
}

// ActivePlan loads the currently served plan's metadata.
func ActivePlan(ctx context.Context, database *gorm.DB) (*models.Plan, error) {
	id, err := ActivePlanID(ctx, database)
	if err != nil {
		return nil, err
	}
	var row models.Plan
	if err := database.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("load plan %s: %w", id, err)
	}
	return &row, nil
}

// SlotsForPlan returns a plan's slots ordered by lane then start.
func SlotsForPlan(ctx context.Context, database *gorm.DB, planID string) ([]models.PlanSlot, error) {
	var slots []models.PlanSlot
	err := database.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("channel_id ASC, start_utc ASC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("load slots for plan %s: %w", planID, err)
	}
	return slots, nil
}

// PrunePlans deletes all but the newest keep plans. The active plan is
// never pruned regardless of age. Returns how many plans were removed.
func PrunePlans(ctx context.Context, database *gorm.DB, keep int, logger zerolog.Logger) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	activeID, err := ActivePlanID(ctx, database)
	if err != nil && !errors.Is(err, ErrNoActivePlan) {
		return 0, err
	}

	var stale []models.Plan
	err = database.WithContext(ctx).
		Order("generated_at DESC").
		Offset(keep).
		Find(&stale).Error
	if err != nil {
		return 0, fmt.Errorf("list stale plans: %w", err)
	}

	removed := 0
	for _, p := range stale {
		if p.ID == activeID {
			continue
		}
		err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("plan_id = ?", p.ID).Delete(&models.PlanSlot{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Plan{}, "id = ?", p.ID).Error
		})
		if err != nil {
			return removed, fmt.Errorf("prune plan %s: %w", p.ID, err)
		}
		removed++
	}

	if removed > 0 {
		logger.Info().Int("removed", removed).Int("kept", keep).Msg("stale plans pruned")
	}
	return removed, nil
}
