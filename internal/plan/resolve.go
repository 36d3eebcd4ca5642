/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package plan

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/friendsincode/gridcast/internal/models"
)

// resolveLane repairs overlaps in one lane's merged slot sequence and
// returns a clean, fully ordered output list (the input is never mutated
// in place).
//
// Grid expansion may push an event into an adjacent placeholder; the event
// always wins and the placeholder is trimmed or dropped. Two events
// overlapping each other is not a scheduling decision this pass makes: it
// signals garbled upstream data or sticky-lane contention, so the
// earlier-starting event is kept, the later one dropped with a warning.
func resolveLane(slots []Slot, logger zerolog.Logger) []Slot {
	ordered := make([]Slot, len(slots))
	copy(ordered, slots)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Start.Equal(ordered[j].Start) {
			return ordered[i].Start.Before(ordered[j].Start)
		}
		// Events sort ahead of placeholders at equal starts so the
		// placeholder gets trimmed, not the event.
		return ordered[i].Kind == models.SlotEvent && ordered[j].Kind != models.SlotEvent
	})

	out := make([]Slot, 0, len(ordered))
	for _, s := range ordered {
		if len(out) == 0 {
			out = append(out, s)
			continue
		}
		last := &out[len(out)-1]
		if !s.Start.Before(last.End) {
			out = append(out, s)
			continue
		}

		switch {
		case last.Kind == models.SlotEvent && s.Kind == models.SlotEvent:
			logger.Warn().
				Str("kept", last.EventID).
				Str("dropped", s.EventID).
				Time("at", s.Start).
				Msg("event overlap on lane, later event dropped")

		case last.Kind == models.SlotPlaceholder && s.Kind == models.SlotEvent:
			last.End = s.Start
			if !last.End.After(last.Start) {
				out = out[:len(out)-1]
			}
			out = append(out, s)

		default:
			// Placeholder trailing into an event's expanded end, or two
			// touching filler chunks: advance its start past the prior slot.
			s.Start = last.End
			if s.End.After(s.Start) {
				out = append(out, s)
			}
		}
	}

	return out
}
