/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package plan

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/gridcast/internal/ingest"
	"github.com/friendsincode/gridcast/internal/lanes"
	"github.com/friendsincode/gridcast/internal/models"
	"github.com/friendsincode/gridcast/internal/telemetry"
)

// Params are the knobs for one build pass.
type Params struct {
	Window      time.Duration
	GridStep    time.Duration
	MinGap      time.Duration
	Pad         PadPolicy
	ForceReplan bool
	Note        string
}

// LaneStats counts slots per lane in the finished plan.
type LaneStats struct {
	Events       int
	Placeholders int
}

// Result summarizes one completed build.
type Result struct {
	PlanID       string
	Checksum     string
	ValidFrom    time.Time
	ValidTo      time.Time
	TotalSlots   int
	EventSlots   int
	Placeholders int
	Dropped      int
	ByChannel    map[string]LaneStats
}

// Builder runs the full pipeline: normalize, pack, align, fill, resolve,
// write. One invocation is one offline batch pass; callers serialize
// concurrent invocations.
type Builder struct {
	db     *gorm.DB
	lanes  *lanes.Directory
	source *ingest.Source
	sticky *StickyStore
	writer *Writer
	logger zerolog.Logger
}

// NewBuilder wires a builder over the shared database handle.
func NewBuilder(database *gorm.DB, version string, logger zerolog.Logger) *Builder {
	return &Builder{
		db:     database,
		lanes:  lanes.New(database, logger),
		source: ingest.New(database, logger),
		sticky: NewStickyStore(database, logger),
		writer: NewWriter(database, version, logger),
		logger: logger.With().Str("component", "plan_builder").Logger(),
	}
}

// Sticky exposes the builder's sticky store (for the reset command).
func (b *Builder) Sticky() *StickyStore {
	return b.sticky
}

// Build runs one batch pass. The window starts at now floored to the grid
// step, so the plan itself begins on a guide boundary.
func (b *Builder) Build(ctx context.Context, now time.Time, p Params) (*Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "plan", "build")
	defer span.End()

	started := time.Now()
	winStart := floorTo(now, p.GridStep)
	winEnd := winStart.Add(p.Window)

	channels, err := b.lanes.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("no active lanes configured")
	}

	events, err := b.source.EventsInWindow(ctx, winStart, winEnd)
	if err != nil {
		return nil, err
	}

	stickyMap := map[string]string{}
	if p.ForceReplan {
		b.logger.Info().Msg("force replan: ignoring sticky assignments for this build")
	} else {
		stickyMap = b.sticky.Load(ctx)
	}

	b.logger.Info().
		Time("window_start", winStart).
		Time("window_end", winEnd).
		Int("channels", len(channels)).
		Int("events", len(events)).
		Int("sticky", len(stickyMap)).
		Msg("plan build started")

	normalized := NormalizeEvents(events, winStart, winEnd, p.Pad, b.logger)
	packed := Pack(normalized, channels, stickyMap, winStart, b.logger)

	var slots []Slot
	for _, ch := range channels {
		aligned := alignEvents(packed.Timelines[ch.ID], p.GridStep, winStart, winEnd)
		laneSlots := fillLane(ch.ID, aligned, winStart, winEnd, p.MinGap, p.GridStep)
		slots = append(slots, resolveLane(laneSlots, b.logger)...)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].ChannelID != slots[j].ChannelID {
			return slots[i].ChannelID < slots[j].ChannelID
		}
		return slots[i].Start.Before(slots[j].Start)
	})

	planRow, err := b.writer.Write(ctx, WriteInput{
		Slots:         slots,
		StickyUpdates: packed.StickyUpdates,
		ValidFrom:     winStart,
		ValidTo:       winEnd,
		GeneratedAt:   now,
		Note:          p.Note,
	})
	if err != nil {
		telemetry.BuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("write plan: %w", err)
	}

	result := &Result{
		PlanID:    planRow.ID,
		Checksum:  planRow.Checksum,
		ValidFrom: winStart,
		ValidTo:   winEnd,
		Dropped:   packed.Dropped(),
		ByChannel: make(map[string]LaneStats, len(channels)),
	}
	for _, s := range slots {
		stats := result.ByChannel[s.ChannelID]
		if s.Kind == models.SlotEvent {
			stats.Events++
			result.EventSlots++
		} else {
			stats.Placeholders++
			result.Placeholders++
		}
		result.ByChannel[s.ChannelID] = stats
	}
	result.TotalSlots = len(slots)

	telemetry.BuildsTotal.WithLabelValues("ok").Inc()
	telemetry.BuildDuration.Observe(time.Since(started).Seconds())
	telemetry.PlanSlots.WithLabelValues(string(models.SlotEvent)).Set(float64(result.EventSlots))
	telemetry.PlanSlots.WithLabelValues(string(models.SlotPlaceholder)).Set(float64(result.Placeholders))
	telemetry.EventsDropped.Add(float64(result.Dropped))

	telemetry.AddSpanAttributes(span, map[string]any{
		"plan.id":       result.PlanID,
		"plan.slots":    result.TotalSlots,
		"plan.dropped":  result.Dropped,
		"plan.channels": len(channels),
	})

	b.logger.Info().
		Str("plan", result.PlanID).
		Str("checksum", result.Checksum).
		Int("total_slots", result.TotalSlots).
		Int("event_slots", result.EventSlots).
		Int("placeholder_slots", result.Placeholders).
		Int("dropped_events", result.Dropped).
		Dur("elapsed", time.Since(started)).
		Msg("plan build done")

	return result, nil
}
