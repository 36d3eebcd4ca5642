/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduler runs the periodic plan rebuild loop.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/gridcast/internal/config"
	"github.com/friendsincode/gridcast/internal/plan"
)

// Service rebuilds the plan on a fixed interval and prunes old plans.
type Service struct {
	db       *gorm.DB
	builder  *plan.Builder
	interval time.Duration
	params   plan.Params
	keep     int
	logger   zerolog.Logger
}

// New creates the rebuild loop.
func New(database *gorm.DB, builder *plan.Builder, cfg *config.Config, logger zerolog.Logger) *Service {
	return &Service{
		db:       database,
		builder:  builder,
		interval: cfg.RebuildInterval,
		params: plan.Params{
			Window:   cfg.Window(),
			GridStep: cfg.GridStep(),
			MinGap:   cfg.MinGap(),
			Pad: plan.PadPolicy{
				Lead:       time.Duration(cfg.LeadPadMinutes) * time.Minute,
				Trail:      time.Duration(cfg.TrailPadMinutes) * time.Minute,
				ApplyToAll: cfg.PadAllEvents,
			},
			Note: "scheduled rebuild",
		},
		keep:   cfg.PlanRetention,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// Run executes the rebuild loop until the context is cancelled.
// A rebuild happens immediately on start, then once per interval.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("rebuild loop started")
	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("rebuild loop stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	started := time.Now()
	res, err := s.builder.Build(ctx, time.Now().UTC(), s.params)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled rebuild failed")
		return
	}
	s.logger.Info().
		Str("plan", res.PlanID).
		Int("slots", res.TotalSlots).
		Int("dropped", res.Dropped).
		Dur("took", time.Since(started)).
		Msg("scheduled rebuild complete")

	pruned, err := plan.PrunePlans(ctx, s.db, s.keep, s.logger)
	if err != nil {
		s.logger.Warn().Err(err).Msg("plan prune failed")
		return
	}
	if pruned > 0 {
		s.logger.Info().Int("pruned", pruned).Msg("old plans removed")
	}
}
