/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/friendsincode/gridcast/internal/models"
	"github.com/friendsincode/gridcast/internal/plan"
)

type nowEntry struct {
	ChannelID string     `json:"channel_id"`
	Chno      int        `json:"chno"`
	Channel   string     `json:"channel"`
	Kind      string     `json:"kind"`
	Reason    string     `json:"reason,omitempty"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	EventID   *string    `json:"event_id,omitempty"`
	Title     string     `json:"title,omitempty"`
	Subtitle  string     `json:"subtitle,omitempty"`
	Sport     string     `json:"sport,omitempty"`
	Live      bool       `json:"live"`
}

// handleNow reports what each lane is carrying at a point in time.
// Filters: ?lane=<channel-id>, ?chno=<number>, ?at=<RFC3339>,
// ?include_placeholders=true.
func (a *API) handleNow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	at := time.Now().UTC()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'at' timestamp")
			return
		}
		at = parsed.UTC()
	}
	includePlaceholders := r.URL.Query().Get("include_placeholders") == "true"

	planID, err := plan.ActivePlanID(ctx, a.db)
	if err != nil {
		if errors.Is(err, plan.ErrNoActivePlan) {
			writeError(w, http.StatusNotFound, "no active plan")
			return
		}
		a.logger.Error().Err(err).Msg("active plan lookup failed")
		writeError(w, http.StatusInternalServerError, "plan lookup failed")
		return
	}

	q := a.db.WithContext(ctx).
		Where("plan_id = ? AND start_utc <= ? AND end_utc > ?", planID, at, at)
	if lane := r.URL.Query().Get("lane"); lane != "" {
		q = q.Where("channel_id = ?", lane)
	}
	if rawChno := r.URL.Query().Get("chno"); rawChno != "" {
		chno, err := strconv.Atoi(rawChno)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'chno'")
			return
		}
		var ch models.Channel
		if err := a.db.WithContext(ctx).Where("chno = ?", chno).First(&ch).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				writeError(w, http.StatusNotFound, "unknown chno")
				return
			}
			a.logger.Error().Err(err).Msg("channel lookup failed")
			writeError(w, http.StatusInternalServerError, "channel lookup failed")
			return
		}
		q = q.Where("channel_id = ?", ch.ID)
	}
	if !includePlaceholders {
		q = q.Where("kind = ?", models.SlotEvent)
	}

	var slots []models.PlanSlot
	if err := q.Order("channel_id ASC").Find(&slots).Error; err != nil {
		a.logger.Error().Err(err).Msg("now query failed")
		writeError(w, http.StatusInternalServerError, "now query failed")
		return
	}

	entries, err := a.entriesForSlots(r, slots)
	if err != nil {
		a.logger.Error().Err(err).Msg("now hydrate failed")
		writeError(w, http.StatusInternalServerError, "now query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"plan_id": planID,
		"at":      at,
		"entries": entries,
	})
}

// handleLookup finds where an event landed in the active plan.
func (a *API) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "event_id required")
		return
	}

	planID, err := plan.ActivePlanID(ctx, a.db)
	if err != nil {
		if errors.Is(err, plan.ErrNoActivePlan) {
			writeError(w, http.StatusNotFound, "no active plan")
			return
		}
		a.logger.Error().Err(err).Msg("active plan lookup failed")
		writeError(w, http.StatusInternalServerError, "plan lookup failed")
		return
	}

	var slots []models.PlanSlot
	if err := a.db.WithContext(ctx).
		Where("plan_id = ? AND event_id = ?", planID, eventID).
		Order("start_utc ASC").Find(&slots).Error; err != nil {
		a.logger.Error().Err(err).Msg("lookup query failed")
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if len(slots) == 0 {
		writeError(w, http.StatusNotFound, "event not in active plan")
		return
	}

	entries, err := a.entriesForSlots(r, slots)
	if err != nil {
		a.logger.Error().Err(err).Msg("lookup hydrate failed")
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"plan_id": planID,
		"entries": entries,
	})
}

func (a *API) entriesForSlots(r *http.Request, slots []models.PlanSlot) ([]nowEntry, error) {
	ctx := r.Context()

	channelIDs := make([]string, 0, len(slots))
	eventIDs := make([]string, 0, len(slots))
	for _, s := range slots {
		channelIDs = append(channelIDs, s.ChannelID)
		if s.EventID != nil {
			eventIDs = append(eventIDs, *s.EventID)
		}
	}

	channels := make(map[string]models.Channel, len(channelIDs))
	if len(channelIDs) > 0 {
		var rows []models.Channel
		if err := a.db.WithContext(ctx).Where("id IN ?", channelIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, ch := range rows {
			channels[ch.ID] = ch
		}
	}

	events := make(map[string]models.Event, len(eventIDs))
	if len(eventIDs) > 0 {
		var rows []models.Event
		if err := a.db.WithContext(ctx).Where("id IN ?", eventIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, ev := range rows {
			events[ev.ID] = ev
		}
	}

	entries := make([]nowEntry, 0, len(slots))
	for _, s := range slots {
		entry := nowEntry{
			ChannelID: s.ChannelID,
			Kind:      string(s.Kind),
			Reason:    s.Reason,
			Start:     s.StartUTC,
			End:       s.EndUTC,
			EventID:   s.EventID,
		}
		if ch, ok := channels[s.ChannelID]; ok {
			entry.Chno = ch.Number
			entry.Channel = ch.Name
		}
		if s.EventID != nil {
			if ev, ok := events[*s.EventID]; ok {
				entry.Title = ev.Title
				entry.Subtitle = ev.Subtitle
				entry.Sport = ev.Sport
				entry.Live = !ev.IsReplay && !ev.IsStudio
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
