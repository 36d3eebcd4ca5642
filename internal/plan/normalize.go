/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package plan

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/gridcast/internal/models"
)

// PadPolicy describes lead/trail padding applied ahead of clipping. Padding
// covers pre-game and overtime spill for live coverage; replays and studio
// programming keep their listed times unless ApplyToAll is set.
type PadPolicy struct {
	Lead       time.Duration
	Trail      time.Duration
	ApplyToAll bool
}

func (p PadPolicy) eligible(ev models.Event) bool {
	if p.Lead == 0 && p.Trail == 0 {
		return false
	}
	return p.ApplyToAll || (!ev.IsReplay && !ev.IsStudio)
}

// NormalizeEvents pads eligible events, clips everything to [winStart,
// winEnd), and drops what does not survive. Malformed rows are skipped with
// a diagnostic, never fatal.
func NormalizeEvents(events []models.Event, winStart, winEnd time.Time, pad PadPolicy, logger zerolog.Logger) []NormalizedEvent {
	out := make([]NormalizedEvent, 0, len(events))
	for _, ev := range events {
		if ev.StartUTC.IsZero() || ev.EndUTC.IsZero() || !ev.EndUTC.After(ev.StartUTC) {
			logger.Warn().
				Str("event", ev.ID).
				Time("start", ev.StartUTC).
				Time("end", ev.EndUTC).
				Msg("event has malformed timestamps, skipped")
			continue
		}

		start := ev.StartUTC.UTC()
		end := ev.EndUTC.UTC()
		if pad.eligible(ev) {
			start = start.Add(-pad.Lead)
			end = end.Add(pad.Trail)
		}

		if start.Before(winStart) {
			start = winStart
		}
		if end.After(winEnd) {
			end = winEnd
		}
		if !end.After(start) {
			continue
		}

		out = append(out, NormalizedEvent{
			ID:       ev.ID,
			Title:    ev.Title,
			Start:    start,
			End:      end,
			IsReplay: ev.IsReplay,
			IsStudio: ev.IsStudio,
		})
	}
	return out
}
