/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package plan turns a window of events into a gapless per-lane guide plan:
// normalize, pack with lane stickiness, snap to the display grid, fill gaps
// with placeholders, repair overlaps, and persist the result atomically.
package plan

import (
	"time"

	"github.com/friendsincode/gridcast/internal/models"
)

// Interval is a half-open [Start, End) range in UTC.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// NormalizedEvent is an event clipped (and possibly padded) into the build
// window, carrying only what the packer and renderers downstream need.
type NormalizedEvent struct {
	ID       string
	Title    string
	Start    time.Time
	End      time.Time
	IsReplay bool
	IsStudio bool
}

// Slot is one in-memory plan slot prior to persistence. EventID is empty
// for placeholders.
type Slot struct {
	ChannelID string
	EventID   string
	Start     time.Time
	End       time.Time
	Kind      models.SlotKind
	Reason    string
}

// PlacementStatus tags the per-event outcome of one packing pass.
type PlacementStatus string

const (
	// StatusPlaced means the event landed on exactly one lane.
	StatusPlaced PlacementStatus = "placed"
	// StatusDropped means no lane was free in time; the event is absent
	// from this plan.
	StatusDropped PlacementStatus = "dropped"
)

// Placement records where (or why not) a single event was assigned.
type Placement struct {
	EventID   string
	Status    PlacementStatus
	ChannelID string
	Reason    string
}

// StickyUpdate is a staged sticky-map upsert, applied inside the plan
// writer's transaction once the build succeeds.
type StickyUpdate struct {
	EventID   string
	ChannelID string
}
