/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/gridcast/internal/db"
	"github.com/friendsincode/gridcast/internal/lanes"
	"github.com/friendsincode/gridcast/internal/plan"
	"github.com/friendsincode/gridcast/internal/version"
)

var (
	buildWindowHours int
	buildGridStep    int
	buildMinGap      int
	buildLeadPad     int
	buildTrailPad    int
	buildPadAll      bool
	buildForceReplan bool
	buildNote        string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a plan and activate it",
	Long: `Run one plan build: pack events onto lanes, align to the EPG grid,
fill gaps, write the plan, and flip the active pointer to it.

Flags override the corresponding GRIDCAST_* environment defaults for
this invocation only.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().IntVar(&buildWindowHours, "window-hours", 0, "Plan window length in hours (default from env)")
	buildCmd.Flags().IntVar(&buildGridStep, "grid-step", 0, "EPG grid step in minutes (default from env)")
	buildCmd.Flags().IntVar(&buildMinGap, "min-gap", -1, "Minimum placeholder gap in minutes (default from env)")
	buildCmd.Flags().IntVar(&buildLeadPad, "lead-pad", -1, "Minutes of pre-roll padding per event (default from env)")
	buildCmd.Flags().IntVar(&buildTrailPad, "trail-pad", -1, "Minutes of post-roll padding per event (default from env)")
	buildCmd.Flags().BoolVar(&buildPadAll, "pad-all", false, "Pad replays and studio shows too")
	buildCmd.Flags().BoolVar(&buildForceReplan, "force-replan", false, "Ignore sticky assignments and repack from scratch")
	buildCmd.Flags().StringVar(&buildNote, "note", "", "Free-form note stored on the plan")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	ctx := context.Background()

	laneDir := lanes.New(database, logger)
	if cfg.LaneFile != "" {
		if err := laneDir.SyncFromFile(ctx, cfg.LaneFile); err != nil {
			return fmt.Errorf("sync lane file: %w", err)
		}
	} else {
		if _, err := laneDir.SeedIfEmpty(ctx, cfg.SeedLanes); err != nil {
			return fmt.Errorf("seed lanes: %w", err)
		}
	}

	params := plan.Params{
		Window:      cfg.Window(),
		GridStep:    cfg.GridStep(),
		MinGap:      cfg.MinGap(),
		ForceReplan: buildForceReplan,
		Note:        buildNote,
	}
	params.Pad.Lead = time.Duration(cfg.LeadPadMinutes) * time.Minute
	params.Pad.Trail = time.Duration(cfg.TrailPadMinutes) * time.Minute
	params.Pad.ApplyToAll = cfg.PadAllEvents

	if buildWindowHours > 0 {
		params.Window = time.Duration(buildWindowHours) * time.Hour
	}
	if buildGridStep > 0 {
		params.GridStep = time.Duration(buildGridStep) * time.Minute
	}
	if buildMinGap >= 0 {
		params.MinGap = time.Duration(buildMinGap) * time.Minute
	}
	if buildLeadPad >= 0 {
		params.Pad.Lead = time.Duration(buildLeadPad) * time.Minute
	}
	if buildTrailPad >= 0 {
		params.Pad.Trail = time.Duration(buildTrailPad) * time.Minute
	}
	if cmd.Flags().Changed("pad-all") {
		params.Pad.ApplyToAll = buildPadAll
	}

	builder := plan.NewBuilder(database, version.Version, logger)
	res, err := builder.Build(ctx, time.Now().UTC(), params)
	if err != nil {
		return fmt.Errorf("build plan: %w", err)
	}

	fmt.Printf("plan %s active\n", res.PlanID)
	fmt.Printf("  window    %s .. %s\n",
		res.ValidFrom.Format(time.RFC3339), res.ValidTo.Format(time.RFC3339))
	fmt.Printf("  slots     %d (%d events, %d placeholders)\n",
		res.TotalSlots, res.EventSlots, res.Placeholders)
	fmt.Printf("  dropped   %d\n", res.Dropped)
	fmt.Printf("  checksum  %s\n", res.Checksum)
	return nil
}
