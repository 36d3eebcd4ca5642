/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package plan

import (
	"testing"
	"time"

	"github.com/friendsincode/gridcast/internal/models"
)

func TestFillLaneEmptyLaneIsAllTail(t *testing.T) {
	winStart := ts(t, "2026-03-01T00:00:00Z")
	winEnd := ts(t, "2026-03-01T02:00:00Z")

	slots := fillLane("vc1", nil, winStart, winEnd, 30*time.Minute, 30*time.Minute)
	if len(slots) != 4 {
		t.Fatalf("got %d slots, want 4 half-hour placeholders", len(slots))
	}
	for _, s := range slots {
		if s.Kind != models.SlotPlaceholder || s.Reason != models.ReasonTail {
			t.Errorf("slot [%s, %s) = %s/%s, want placeholder/tail", s.Start, s.End, s.Kind, s.Reason)
		}
	}
}

func TestFillLaneGapBeforeAndAfterEvent(t *testing.T) {
	winStart := ts(t, "2026-03-01T00:00:00Z")
	winEnd := ts(t, "2026-03-01T03:00:00Z")
	events := []NormalizedEvent{
		{ID: "game", Start: ts(t, "2026-03-01T01:00:00Z"), End: ts(t, "2026-03-01T02:00:00Z")},
	}

	slots := fillLane("vc1", events, winStart, winEnd, 30*time.Minute, 30*time.Minute)

	var gaps, tails, evs int
	for _, s := range slots {
		switch {
		case s.Kind == models.SlotEvent:
			evs++
		case s.Reason == models.ReasonGap:
			gaps++
		case s.Reason == models.ReasonTail:
			tails++
		}
	}
	if evs != 1 || gaps != 2 || tails != 2 {
		t.Errorf("events=%d gaps=%d tails=%d, want 1/2/2", evs, gaps, tails)
	}

	// Full coverage: consecutive slots touch exactly.
	for i := 1; i < len(slots); i++ {
		if !slots[i].Start.Equal(slots[i-1].End) {
			t.Errorf("hole between slot %d and %d: %s != %s", i-1, i, slots[i-1].End, slots[i].Start)
		}
	}
	if !slots[0].Start.Equal(winStart) || !slots[len(slots)-1].End.Equal(winEnd) {
		t.Error("slots do not span the window")
	}
}

func TestFillLaneSuppressesShortGaps(t *testing.T) {
	winStart := ts(t, "2026-03-01T00:00:00Z")
	winEnd := ts(t, "2026-03-01T04:00:00Z")
	// 15-minute hole between the events, under the 30-minute minimum.
	events := []NormalizedEvent{
		{ID: "a", Start: winStart, End: ts(t, "2026-03-01T01:00:00Z")},
		{ID: "b", Start: ts(t, "2026-03-01T01:15:00Z"), End: winEnd},
	}

	slots := fillLane("vc1", events, winStart, winEnd, 30*time.Minute, 30*time.Minute)
	for _, s := range slots {
		if s.Kind == models.SlotPlaceholder {
			t.Errorf("unexpected placeholder [%s, %s) for a sub-minimum gap", s.Start, s.End)
		}
	}
}

func TestFillLaneSkipsSuppressedTail(t *testing.T) {
	winStart := ts(t, "2026-03-01T00:00:00Z")
	winEnd := ts(t, "2026-03-01T01:15:00Z")
	events := []NormalizedEvent{
		{ID: "a", Start: winStart, End: ts(t, "2026-03-01T01:00:00Z")},
	}

	slots := fillLane("vc1", events, winStart, winEnd, 30*time.Minute, 30*time.Minute)
	if len(slots) != 1 {
		t.Fatalf("got %d slots, want just the event (15m tail under minimum)", len(slots))
	}
}
