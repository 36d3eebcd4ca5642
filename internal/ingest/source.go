/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package ingest reads events the external ingester maintains. The plan
// builder never writes event rows.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/gridcast/internal/models"
)

// Source reads candidate events for one build window.
type Source struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New creates an event source over the events table.
func New(database *gorm.DB, logger zerolog.Logger) *Source {
	return &Source{
		db:     database,
		logger: logger.With().Str("component", "ingest").Logger(),
	}
}

// EventsInWindow returns events intersecting [from, to), ordered by start
// then identity. The event-source contract does not guarantee identity
// uniqueness, so duplicates are collapsed here before packing: the first
// occurrence in scan order wins and later ones are logged and discarded.
func (s *Source) EventsInWindow(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	var rows []models.Event
	err := s.db.WithContext(ctx).
		Where("start_utc < ? AND end_utc > ?", to, from).
		Order("start_utc ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	seen := make(map[string]struct{}, len(rows))
	out := rows[:0]
	for _, ev := range rows {
		if _, dup := seen[ev.ID]; dup {
			s.logger.Warn().Str("event", ev.ID).Msg("duplicate event identity dropped")
			continue
		}
		seen[ev.ID] = struct{}{}
		out = append(out, ev)
	}
	return out, nil
}
