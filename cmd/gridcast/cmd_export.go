/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/friendsincode/gridcast/internal/db"
	"github.com/friendsincode/gridcast/internal/guide"
)

var (
	exportFormat  string
	exportOut     string
	exportBaseURL string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the active plan as XMLTV or M3U",
	Long: `Render the active plan into a guide document.

Formats:
  xmltv  EPG programme listing
  m3u    lane playlist with tvg attributes

With --out the file is written atomically (temp file then rename);
otherwise the document goes to stdout.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "xmltv", "Output format: xmltv or m3u")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Write to this path instead of stdout")
	exportCmd.Flags().StringVar(&exportBaseURL, "base-url", "", "Stream URL prefix for m3u entries")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	ctx := context.Background()
	svc := guide.New(database, logger)

	var data []byte
	switch exportFormat {
	case "xmltv":
		data, err = svc.RenderXMLTV(ctx)
	case "m3u":
		data, err = svc.RenderM3U(ctx, guide.M3UOptions{BaseURL: exportBaseURL})
	default:
		return fmt.Errorf("unknown format %q (want xmltv or m3u)", exportFormat)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", exportFormat, err)
	}

	if exportOut == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return svc.WriteFile(exportOut, data)
}
