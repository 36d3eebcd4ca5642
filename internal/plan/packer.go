/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package plan

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/gridcast/internal/models"
)

// PackResult carries the per-lane event timelines plus the bookkeeping the
// rest of the build needs.
type PackResult struct {
	// Timelines maps channel ID to its events ordered by start.
	Timelines map[string][]NormalizedEvent
	// Placements holds one tagged outcome per input event.
	Placements []Placement
	// StickyUpdates are staged for the writer's transaction; an update is
	// staged whenever an event lands on a different lane than the sticky
	// map recorded, or had no record at all.
	StickyUpdates []StickyUpdate
}

// Placed returns the number of events that landed on a lane.
func (r *PackResult) Placed() int {
	n := 0
	for _, p := range r.Placements {
		if p.Status == StatusPlaced {
			n++
		}
	}
	return n
}

// Dropped returns the number of events absent from this plan.
func (r *PackResult) Dropped() int {
	return len(r.Placements) - r.Placed()
}

// laneState tracks how far each lane is committed.
type laneState struct {
	id     string
	freeAt time.Time
}

// Pack assigns each event to at most one lane. Events are processed in
// (start, identity) order so reruns with identical input reproduce the same
// assignment. Each event first tries its sticky lane, then the first free
// lane in guide-number order; with no lane free in time it is dropped.
//
// Events arrive sorted by start, so a lane is free for [ev.Start, ev.End)
// exactly when its last committed end is at or before ev.Start.
func Pack(events []NormalizedEvent, channels []models.Channel, sticky map[string]string, winStart time.Time, logger zerolog.Logger) *PackResult {
	ordered := make([]NormalizedEvent, len(events))
	copy(ordered, events)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Start.Equal(ordered[j].Start) {
			return ordered[i].Start.Before(ordered[j].Start)
		}
		return ordered[i].ID < ordered[j].ID
	})

	lanes := make([]*laneState, 0, len(channels))
	byID := make(map[string]*laneState, len(channels))
	result := &PackResult{
		Timelines: make(map[string][]NormalizedEvent, len(channels)),
	}
	for _, ch := range channels {
		ls := &laneState{id: ch.ID, freeAt: winStart}
		lanes = append(lanes, ls)
		byID[ch.ID] = ls
		result.Timelines[ch.ID] = nil
	}

	for _, ev := range ordered {
		var chosen *laneState

		if prior, ok := sticky[ev.ID]; ok {
			if ls, known := byID[prior]; known && !ls.freeAt.After(ev.Start) {
				chosen = ls
			}
		}
		if chosen == nil {
			for _, ls := range lanes {
				if !ls.freeAt.After(ev.Start) {
					chosen = ls
					break
				}
			}
		}

		if chosen == nil {
			logger.Warn().
				Str("event", ev.ID).
				Time("start", ev.Start).
				Msg("no lane free, event dropped from plan")
			result.Placements = append(result.Placements, Placement{
				EventID: ev.ID,
				Status:  StatusDropped,
				Reason:  "no_free_lane",
			})
			continue
		}

		chosen.freeAt = ev.End
		result.Timelines[chosen.id] = append(result.Timelines[chosen.id], ev)
		result.Placements = append(result.Placements, Placement{
			EventID:   ev.ID,
			Status:    StatusPlaced,
			ChannelID: chosen.id,
		})
		if sticky[ev.ID] != chosen.id {
			result.StickyUpdates = append(result.StickyUpdates, StickyUpdate{
				EventID:   ev.ID,
				ChannelID: chosen.id,
			})
		}
	}

	return result
}
