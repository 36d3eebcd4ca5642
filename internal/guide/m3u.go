/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package guide

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/friendsincode/gridcast/internal/models"
)

// M3UOptions controls playlist rendering.
type M3UOptions struct {
	// BaseURL is the stream endpoint prefix, e.g. "http://host:8093".
	// Each lane streams at BaseURL/vc/<channel-id>.
	BaseURL string
}

// RenderM3U builds an M3U playlist listing every active lane.
func (s *Service) RenderM3U(ctx context.Context, opts M3UOptions) ([]byte, error) {
	channels, err := s.channelsByID(ctx)
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "http://localhost:8093"
	}

	var b strings.Builder
	b.WriteString("#EXTM3U\n")

	// channelsByID returns a map; re-walk in chno order.
	ordered := make([]string, 0, len(channels))
	for id := range channels {
		ordered = append(ordered, id)
	}
	sortByNumber(ordered, channels)

	count := 0
	for _, id := range ordered {
		ch := channels[id]
		if !ch.Active {
			continue
		}
		fmt.Fprintf(&b, "#EXTINF:-1 tvg-id=%q tvg-name=%q tvg-chno=%q group-title=%q,%s\n",
			ch.ID, ch.Name, fmt.Sprintf("%d", ch.Number), ch.GroupName, ch.Name)
		fmt.Fprintf(&b, "%s/vc/%s\n", base, ch.ID)
		count++
	}

	s.logger.Info().Int("channels", count).Msg("m3u rendered")
	return []byte(b.String()), nil
}

// WriteFile writes rendered guide output atomically via temp file rename.
func (s *Service) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	s.logger.Info().Str("path", path).Int("bytes", len(data)).Msg("guide file written")
	return nil
}

func sortByNumber(ids []string, channels map[string]models.Channel) {
	sort.Slice(ids, func(i, j int) bool {
		return channels[ids[i]].Number < channels[ids[j]].Number
	})
}
