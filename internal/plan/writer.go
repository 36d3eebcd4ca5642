/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package plan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/gridcast/internal/models"
)

const slotInsertBatch = 500

// Writer persists finished plans. Everything mutable (plan rows, slot
// rows, staged sticky upserts, and the active-plan pointer) changes inside
// one transaction; a write failure leaves the previously active plan
// serving traffic untouched.
type Writer struct {
	db      *gorm.DB
	logger  zerolog.Logger
	version string
}

// NewWriter creates a plan writer. version is recorded on each plan row.
func NewWriter(database *gorm.DB, version string, logger zerolog.Logger) *Writer {
	return &Writer{
		db:      database,
		logger:  logger.With().Str("component", "plan_writer").Logger(),
		version: version,
	}
}

// checksumRow is the canonical serialization unit: fixed field order
// (alphabetical), second-resolution UTC instants.
type checksumRow struct {
	ChannelID string  `json:"channel_id"`
	End       string  `json:"end"`
	EventID   *string `json:"event_id"`
	Kind      string  `json:"kind"`
	Reason    *string `json:"reason"`
	Start     string  `json:"start"`
}

func canonicalTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// Checksum hashes the canonicalized slot list. Two builds over identical
// inputs with identical tie-break outcomes hash identically.
func Checksum(slots []Slot) string {
	h := sha256.New()
	for _, s := range slots {
		row := checksumRow{
			ChannelID: s.ChannelID,
			End:       canonicalTime(s.End),
			Kind:      string(s.Kind),
			Start:     canonicalTime(s.Start),
		}
		if s.EventID != "" {
			id := s.EventID
			row.EventID = &id
		}
		if s.Reason != "" {
			reason := s.Reason
			row.Reason = &reason
		}
		// Struct field order is fixed, so Marshal output is stable.
		raw, _ := json.Marshal(row)
		h.Write(raw)
		h.Write([]byte("\n"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// WriteInput is everything one build hands to the writer.
type WriteInput struct {
	Slots         []Slot
	StickyUpdates []StickyUpdate
	ValidFrom     time.Time
	ValidTo       time.Time
	GeneratedAt   time.Time
	Note          string
}

// Write persists a new immutable plan and flips the active-plan pointer to
// it. This is the core's one fatal failure mode: any error rolls the whole
// transaction back.
func (w *Writer) Write(ctx context.Context, in WriteInput) (*models.Plan, error) {
	planRow := models.Plan{
		ID:             uuid.NewString(),
		GeneratedAt:    in.GeneratedAt.UTC().Truncate(time.Second),
		ValidFrom:      in.ValidFrom,
		ValidTo:        in.ValidTo,
		BuilderVersion: w.version,
		Note:           in.Note,
		Checksum:       Checksum(in.Slots),
	}

	slotRows := make([]models.PlanSlot, 0, len(in.Slots))
	for _, s := range in.Slots {
		row := models.PlanSlot{
			PlanID:    planRow.ID,
			ChannelID: s.ChannelID,
			StartUTC:  s.Start,
			EndUTC:    s.End,
			Kind:      s.Kind,
			Reason:    s.Reason,
		}
		if s.EventID != "" {
			id := s.EventID
			row.EventID = &id
		}
		slotRows = append(slotRows, row)
	}

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&planRow).Error; err != nil {
			return fmt.Errorf("insert plan: %w", err)
		}
		if len(slotRows) > 0 {
			if err := tx.CreateInBatches(slotRows, slotInsertBatch).Error; err != nil {
				return fmt.Errorf("insert plan slots: %w", err)
			}
		}
		if err := applyUpdates(tx, in.StickyUpdates, planRow.GeneratedAt); err != nil {
			return err
		}
		pointer := models.PlanMeta{Key: models.MetaActivePlanID, Value: planRow.ID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&pointer).Error; err != nil {
			return fmt.Errorf("flip active plan pointer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info().
		Str("plan", planRow.ID).
		Str("checksum", planRow.Checksum).
		Int("slots", len(slotRows)).
		Int("sticky_updates", len(in.StickyUpdates)).
		Msg("plan published")
	return &planRow, nil
}
