/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package plan

import "time"

// floorTo snaps t down to the previous step boundary. Steps are expected to
// divide an hour evenly (e.g. 15 or 30 minutes) so boundaries land on
// display-friendly wall-clock marks.
func floorTo(t time.Time, step time.Duration) time.Time {
	return t.UTC().Truncate(step)
}

// ceilTo snaps t up to the next step boundary; aligned instants are returned
// unchanged.
func ceilTo(t time.Time, step time.Duration) time.Time {
	f := floorTo(t, step)
	if f.Equal(t.UTC()) {
		return f
	}
	return f.Add(step)
}

// alignEvents expands every event outward to the step grid: floor the start,
// ceil the end. Expansion never shrinks an event, and the result stays
// clamped to the build window. Expanded neighbors may now overlap; the
// overlap resolver repairs that afterwards.
func alignEvents(events []NormalizedEvent, step time.Duration, winStart, winEnd time.Time) []NormalizedEvent {
	out := make([]NormalizedEvent, 0, len(events))
	for _, ev := range events {
		ev.Start = floorTo(ev.Start, step)
		ev.End = ceilTo(ev.End, step)
		if ev.Start.Before(winStart) {
			ev.Start = winStart
		}
		if ev.End.After(winEnd) {
			ev.End = winEnd
		}
		if !ev.End.After(ev.Start) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// segmentGap splits [from, to) into chunks that start and stop on the step
// grid, so filler material also honors guide boundaries. The first chunk may
// be shorter when from is unaligned; the last is clipped to to.
func segmentGap(from, to time.Time, step time.Duration) []Interval {
	if !to.After(from) {
		return nil
	}
	var chunks []Interval
	cursor := from
	for cursor.Before(to) {
		next := floorTo(cursor, step).Add(step)
		if next.After(to) {
			next = to
		}
		chunks = append(chunks, Interval{Start: cursor, End: next})
		cursor = next
	}
	return chunks
}
