/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/friendsincode/gridcast/internal/db"
	"github.com/friendsincode/gridcast/internal/plan"
)

var (
	resetForce  bool
	resetDryRun bool
)

var resetStickyCmd = &cobra.Command{
	Use:   "reset-sticky",
	Short: "Clear all sticky lane assignments",
	Long: `Delete every sticky assignment so the next build packs from scratch.

Events will be reassigned to lanes purely by packing order, which can
move ongoing events to different channel numbers in the next plan.

Examples:
  # Interactive (will prompt for confirmation)
  gridcast reset-sticky

  # Skip the prompt
  gridcast reset-sticky --force

  # Only report how many assignments would be removed
  gridcast reset-sticky --dry-run
`,
	RunE: runResetSticky,
}

func init() {
	resetStickyCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "Skip confirmation prompt")
	resetStickyCmd.Flags().BoolVar(&resetDryRun, "dry-run", false, "Report the count without deleting")
	rootCmd.AddCommand(resetStickyCmd)
}

func runResetSticky(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	ctx := context.Background()
	store := plan.NewStickyStore(database, logger)

	count, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count sticky assignments: %w", err)
	}
	if count == 0 {
		fmt.Println("No sticky assignments to clear.")
		return nil
	}
	if resetDryRun {
		fmt.Printf("Would clear %d sticky assignment(s).\n", count)
		return nil
	}

	if !resetForce {
		fmt.Printf("This will clear %d sticky assignment(s). Ongoing events may land on different lanes in the next plan.\n", count)
		fmt.Print("Type 'yes' to confirm: ")
		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if strings.TrimSpace(strings.ToLower(response)) != "yes" {
			fmt.Println("Reset cancelled.")
			return nil
		}
	}

	cleared, err := store.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clear sticky assignments: %w", err)
	}

	logger.Info().Int64("cleared", cleared).Msg("sticky assignments cleared")
	fmt.Printf("Cleared %d sticky assignment(s).\n", cleared)
	return nil
}
