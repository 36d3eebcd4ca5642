/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package plan

import (
	"time"

	"github.com/friendsincode/gridcast/internal/models"
)

// fillLane walks one lane's aligned, ordered events and emits the full slot
// sequence for the window: placeholder runs before each event, the event
// slots themselves, and a tail run after the last event. Gaps shorter than
// minGap stay uncovered so the guide is not fragmented by micro-gaps; that
// means window coverage only holds modulo sub-minGap holes.
func fillLane(channelID string, events []NormalizedEvent, winStart, winEnd time.Time, minGap, step time.Duration) []Slot {
	var slots []Slot
	cursor := winStart

	emitFiller := func(from, to time.Time, reason string) {
		for _, chunk := range segmentGap(from, to, step) {
			slots = append(slots, Slot{
				ChannelID: channelID,
				Start:     chunk.Start,
				End:       chunk.End,
				Kind:      models.SlotPlaceholder,
				Reason:    reason,
			})
		}
	}

	for _, ev := range events {
		if ev.Start.Sub(cursor) >= minGap {
			emitFiller(cursor, ev.Start, models.ReasonGap)
		}
		slots = append(slots, Slot{
			ChannelID: channelID,
			EventID:   ev.ID,
			Start:     ev.Start,
			End:       ev.End,
			Kind:      models.SlotEvent,
		})
		if ev.End.After(cursor) {
			cursor = ev.End
		}
	}

	if winEnd.Sub(cursor) >= minGap {
		emitFiller(cursor, winEnd, models.ReasonTail)
	}

	return slots
}
