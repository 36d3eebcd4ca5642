/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package plan

import (
	"testing"
	"time"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return parsed.UTC()
}

func TestFloorCeilTo(t *testing.T) {
	step := 30 * time.Minute
	tests := []struct {
		name      string
		in        string
		wantFloor string
		wantCeil  string
	}{
		{"unaligned", "2026-03-01T10:05:00Z", "2026-03-01T10:00:00Z", "2026-03-01T10:30:00Z"},
		{"aligned", "2026-03-01T10:30:00Z", "2026-03-01T10:30:00Z", "2026-03-01T10:30:00Z"},
		{"just past boundary", "2026-03-01T10:30:01Z", "2026-03-01T10:30:00Z", "2026-03-01T11:00:00Z"},
		{"just before boundary", "2026-03-01T10:59:59Z", "2026-03-01T10:30:00Z", "2026-03-01T11:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ts(t, tt.in)
			if got := floorTo(in, step); !got.Equal(ts(t, tt.wantFloor)) {
				t.Errorf("floorTo(%s) = %s, want %s", tt.in, got, tt.wantFloor)
			}
			if got := ceilTo(in, step); !got.Equal(ts(t, tt.wantCeil)) {
				t.Errorf("ceilTo(%s) = %s, want %s", tt.in, got, tt.wantCeil)
			}
		})
	}
}

func TestAlignEventsExpandsOutward(t *testing.T) {
	step := 30 * time.Minute
	winStart := ts(t, "2026-03-01T00:00:00Z")
	winEnd := ts(t, "2026-03-04T00:00:00Z")

	in := []NormalizedEvent{
		{ID: "e1", Start: ts(t, "2026-03-01T10:05:00Z"), End: ts(t, "2026-03-01T10:50:00Z")},
	}
	out := alignEvents(in, step, winStart, winEnd)
	if len(out) != 1 {
		t.Fatalf("got %d events, want 1", len(out))
	}
	if !out[0].Start.Equal(ts(t, "2026-03-01T10:00:00Z")) {
		t.Errorf("start = %s, want 10:00", out[0].Start)
	}
	if !out[0].End.Equal(ts(t, "2026-03-01T11:00:00Z")) {
		t.Errorf("end = %s, want 11:00", out[0].End)
	}

	// Alignment never shrinks.
	if out[0].Start.After(in[0].Start) || out[0].End.Before(in[0].End) {
		t.Error("aligned interval does not contain the original")
	}
}

func TestAlignEventsClampsToWindow(t *testing.T) {
	step := 30 * time.Minute
	winStart := ts(t, "2026-03-01T00:00:00Z")
	winEnd := ts(t, "2026-03-01T12:00:00Z")

	in := []NormalizedEvent{
		{ID: "head", Start: winStart, End: ts(t, "2026-03-01T01:00:00Z")},
		{ID: "tail", Start: ts(t, "2026-03-01T11:45:00Z"), End: winEnd},
	}
	out := alignEvents(in, step, winStart, winEnd)
	if len(out) != 2 {
		t.Fatalf("got %d events, want 2", len(out))
	}
	for _, ev := range out {
		if ev.Start.Before(winStart) || ev.End.After(winEnd) {
			t.Errorf("event %s [%s, %s) escapes the window", ev.ID, ev.Start, ev.End)
		}
	}
}

func TestSegmentGap(t *testing.T) {
	step := 30 * time.Minute
	tests := []struct {
		name string
		from string
		to   string
		want []Interval
	}{
		{
			name: "empty",
			from: "2026-03-01T10:00:00Z",
			to:   "2026-03-01T10:00:00Z",
			want: nil,
		},
		{
			name: "aligned multi chunk",
			from: "2026-03-01T10:00:00Z",
			to:   "2026-03-01T11:00:00Z",
			want: []Interval{
				{Start: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), End: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)},
				{Start: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC), End: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)},
			},
		},
		{
			name: "unaligned head chunk is short",
			from: "2026-03-01T10:10:00Z",
			to:   "2026-03-01T11:00:00Z",
			want: []Interval{
				{Start: time.Date(2026, 3, 1, 10, 10, 0, 0, time.UTC), End: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)},
				{Start: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC), End: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segmentGap(ts(t, tt.from), ts(t, tt.to), step)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d chunks, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !got[i].Start.Equal(tt.want[i].Start) || !got[i].End.Equal(tt.want[i].End) {
					t.Errorf("chunk %d = [%s, %s), want [%s, %s)",
						i, got[i].Start, got[i].End, tt.want[i].Start, tt.want[i].End)
				}
			}
		})
	}
}
