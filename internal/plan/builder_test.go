/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package plan

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/gridcast/internal/models"
)

func testParams() Params {
	return Params{
		Window:   72 * time.Hour,
		GridStep: 30 * time.Minute,
		MinGap:   30 * time.Minute,
	}
}

func seedChannels(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	ids := []string{"vc1", "vc2", "vc3", "vc4"}
	for i := 0; i < n; i++ {
		ch := models.Channel{ID: ids[i], Number: 20010 + i, Name: ids[i], Active: true}
		if err := db.Create(&ch).Error; err != nil {
			t.Fatalf("seed channel: %v", err)
		}
	}
}

func seedEvent(t *testing.T, db *gorm.DB, id, start, end string) {
	t.Helper()
	ev := models.Event{
		ID:       id,
		Title:    id,
		StartUTC: ts(t, start),
		EndUTC:   ts(t, end),
	}
	if err := db.Create(&ev).Error; err != nil {
		t.Fatalf("seed event %s: %v", id, err)
	}
}

func TestBuildEndToEnd(t *testing.T) {
	db := setupTestDB(t)
	seedChannels(t, db, 2)
	seedEvent(t, db, "early", "2026-03-01T10:05:00Z", "2026-03-01T10:50:00Z")
	seedEvent(t, db, "late", "2026-03-01T14:00:00Z", "2026-03-01T16:00:00Z")

	b := NewBuilder(db, "test", zerolog.Nop())
	now := ts(t, "2026-03-01T09:40:00Z")

	res, err := b.Build(context.Background(), now, testParams())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Window starts on the grid boundary below now.
	if !res.ValidFrom.Equal(ts(t, "2026-03-01T09:30:00Z")) {
		t.Errorf("valid_from = %s, want 09:30", res.ValidFrom)
	}
	if res.Dropped != 0 {
		t.Errorf("dropped %d events with free lanes", res.Dropped)
	}
	if res.EventSlots != 2 {
		t.Errorf("event slots = %d, want 2", res.EventSlots)
	}

	slots, err := SlotsForPlan(context.Background(), db, res.PlanID)
	if err != nil {
		t.Fatalf("load slots: %v", err)
	}

	// Per lane: ordered, disjoint, grid-aligned event boundaries.
	byLane := make(map[string][]models.PlanSlot)
	for _, s := range slots {
		byLane[s.ChannelID] = append(byLane[s.ChannelID], s)
	}
	for lane, laneSlots := range byLane {
		for i := 1; i < len(laneSlots); i++ {
			if laneSlots[i].StartUTC.Before(laneSlots[i-1].EndUTC) {
				t.Errorf("lane %s: overlap at slot %d", lane, i)
			}
		}
		for _, s := range laneSlots {
			if s.StartUTC.UTC().Minute()%30 != 0 || s.StartUTC.UTC().Second() != 0 {
				t.Errorf("lane %s: slot start %s off grid", lane, s.StartUTC)
			}
		}
	}

	// The unaligned event expanded to [10:00, 11:00).
	var gameSlot *models.PlanSlot
	for i := range slots {
		if slots[i].EventID != nil && *slots[i].EventID == "early" {
			gameSlot = &slots[i]
		}
	}
	if gameSlot == nil {
		t.Fatal("event 'early' missing from plan")
	}
	if !gameSlot.StartUTC.Equal(ts(t, "2026-03-01T10:00:00Z")) || !gameSlot.EndUTC.Equal(ts(t, "2026-03-01T11:00:00Z")) {
		t.Errorf("early = [%s, %s), want [10:00, 11:00)", gameSlot.StartUTC, gameSlot.EndUTC)
	}
}

func TestBuildNoLanesFails(t *testing.T) {
	db := setupTestDB(t)
	b := NewBuilder(db, "test", zerolog.Nop())
	if _, err := b.Build(context.Background(), ts(t, "2026-03-01T10:00:00Z"), testParams()); err == nil {
		t.Fatal("expected error with no lanes configured")
	}
}

func TestBuildEmptyWindowIsAllPlaceholders(t *testing.T) {
	db := setupTestDB(t)
	seedChannels(t, db, 1)

	b := NewBuilder(db, "test", zerolog.Nop())
	res, err := b.Build(context.Background(), ts(t, "2026-03-01T10:00:00Z"), testParams())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.EventSlots != 0 {
		t.Errorf("event slots = %d, want 0", res.EventSlots)
	}
	if res.Placeholders == 0 {
		t.Error("expected placeholder coverage for an empty window")
	}
}

func TestBuildHonorsStickyLaneOverDefault(t *testing.T) {
	db := setupTestDB(t)
	seedChannels(t, db, 2)
	seedEvent(t, db, "game", "2026-03-01T12:00:00Z", "2026-03-01T14:00:00Z")

	// A scratch pack would put the only event on vc1; the sticky map pins
	// it to vc2 and must win while vc2 is free.
	pin := models.StickyAssignment{EventID: "game", ChannelID: "vc2", PinnedAt: ts(t, "2026-03-01T00:00:00Z"), LastSeenAt: ts(t, "2026-03-01T00:00:00Z")}
	if err := db.Create(&pin).Error; err != nil {
		t.Fatalf("seed sticky: %v", err)
	}

	b := NewBuilder(db, "test", zerolog.Nop())
	ctx := context.Background()

	res, err := b.Build(ctx, ts(t, "2026-03-01T10:00:00Z"), testParams())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	slots, err := SlotsForPlan(ctx, db, res.PlanID)
	if err != nil {
		t.Fatalf("load slots: %v", err)
	}
	for _, s := range slots {
		if s.EventID != nil && *s.EventID == "game" && s.ChannelID != "vc2" {
			t.Errorf("game on %s, want sticky lane vc2", s.ChannelID)
		}
	}
	if got := b.Sticky().Load(ctx)["game"]; got != "vc2" {
		t.Errorf("sticky map now %s, want vc2 unchanged", got)
	}
}

func TestBuildForceReplanIgnoresSticky(t *testing.T) {
	db := setupTestDB(t)
	seedChannels(t, db, 2)
	seedEvent(t, db, "game", "2026-03-01T12:00:00Z", "2026-03-01T14:00:00Z")

	// Pin game to vc2 by hand; a scratch pack puts the only event on vc1.
	pin := models.StickyAssignment{EventID: "game", ChannelID: "vc2", PinnedAt: ts(t, "2026-03-01T00:00:00Z"), LastSeenAt: ts(t, "2026-03-01T00:00:00Z")}
	if err := db.Create(&pin).Error; err != nil {
		t.Fatalf("seed sticky: %v", err)
	}

	b := NewBuilder(db, "test", zerolog.Nop())
	ctx := context.Background()

	p := testParams()
	p.ForceReplan = true
	if _, err := b.Build(ctx, ts(t, "2026-03-01T10:00:00Z"), p); err != nil {
		t.Fatalf("build: %v", err)
	}

	if got := b.Sticky().Load(ctx)["game"]; got != "vc1" {
		t.Errorf("game on %s after force replan, want vc1", got)
	}
}

func TestBuildChecksumStableAcrossIdenticalRuns(t *testing.T) {
	db := setupTestDB(t)
	seedChannels(t, db, 2)
	seedEvent(t, db, "a", "2026-03-01T10:00:00Z", "2026-03-01T12:00:00Z")
	seedEvent(t, db, "b", "2026-03-01T10:00:00Z", "2026-03-01T11:00:00Z")

	b := NewBuilder(db, "test", zerolog.Nop())
	ctx := context.Background()
	now := ts(t, "2026-03-01T10:00:00Z")

	first, err := b.Build(ctx, now, testParams())
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	second, err := b.Build(ctx, now, testParams())
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if first.Checksum != second.Checksum {
		t.Errorf("checksums differ across identical runs: %s vs %s", first.Checksum, second.Checksum)
	}
	if first.PlanID == second.PlanID {
		t.Error("plans must be distinct rows even when identical")
	}
}

func TestPrunePlansKeepsNewestAndActive(t *testing.T) {
	db := setupTestDB(t)
	seedChannels(t, db, 1)

	b := NewBuilder(db, "test", zerolog.Nop())
	ctx := context.Background()

	// Five builds at advancing times.
	for i := 0; i < 5; i++ {
		now := ts(t, "2026-03-01T10:00:00Z").Add(time.Duration(i) * time.Hour)
		if _, err := b.Build(ctx, now, testParams()); err != nil {
			t.Fatalf("build %d: %v", i, err)
		}
	}

	removed, err := PrunePlans(ctx, db, 2, zerolog.Nop())
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed %d plans, want 3", removed)
	}

	activeID, err := ActivePlanID(ctx, db)
	if err != nil {
		t.Fatalf("active pointer: %v", err)
	}
	var survivors []models.Plan
	if err := db.Find(&survivors).Error; err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(survivors) != 2 {
		t.Fatalf("%d plans survive, want 2", len(survivors))
	}
	found := false
	for _, p := range survivors {
		if p.ID == activeID {
			found = true
		}
	}
	if !found {
		t.Error("active plan was pruned")
	}

	// Orphaned slots must be gone with their plans.
	var slotPlans []string
	if err := db.Model(&models.PlanSlot{}).Distinct("plan_id").Pluck("plan_id", &slotPlans).Error; err != nil {
		t.Fatalf("list slot plans: %v", err)
	}
	if len(slotPlans) != 2 {
		t.Errorf("slots remain for %d plans, want 2", len(slotPlans))
	}
}

func TestStickyClear(t *testing.T) {
	db := setupTestDB(t)
	store := NewStickyStore(db, zerolog.Nop())
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		row := models.StickyAssignment{EventID: id, ChannelID: "vc1", PinnedAt: ts(t, "2026-03-01T00:00:00Z"), LastSeenAt: ts(t, "2026-03-01T00:00:00Z")}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed sticky %s: %v", id, err)
		}
	}

	n, err := store.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("count = %d (%v), want 3", n, err)
	}

	cleared, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared != 3 {
		t.Errorf("cleared %d rows, want 3", cleared)
	}
	if m := store.Load(ctx); len(m) != 0 {
		t.Errorf("%d assignments survive clear", len(m))
	}
}
