/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the read-only HTTP surface over the active plan:
// now-playing lookups, plan metadata, and guide documents.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/gridcast/internal/guide"
	"github.com/friendsincode/gridcast/internal/plan"
)

// API exposes HTTP handlers.
type API struct {
	db     *gorm.DB
	guide  *guide.Service
	logger zerolog.Logger
}

// New creates the API router wrapper.
func New(database *gorm.DB, guideSvc *guide.Service, logger zerolog.Logger) *API {
	return &API{
		db:     database,
		guide:  guideSvc,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts all endpoints on the given router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plan", a.handlePlanGet)
		r.Get("/now", a.handleNow)
		r.Get("/lookup", a.handleLookup)
	})
	r.Get("/guide/xmltv", a.handleGuideXMLTV)
	r.Get("/guide/playlist.m3u", a.handleGuideM3U)
}

func (a *API) handlePlanGet(w http.ResponseWriter, r *http.Request) {
	active, err := plan.ActivePlan(r.Context(), a.db)
	if err != nil {
		if errors.Is(err, plan.ErrNoActivePlan) {
			writeError(w, http.StatusNotFound, "no active plan")
			return
		}
		a.logger.Error().Err(err).Msg("active plan load failed")
		writeError(w, http.StatusInternalServerError, "plan load failed")
		return
	}

	var slotCount int64
	if err := a.db.WithContext(r.Context()).
		Table("plan_slots").Where("plan_id = ?", active.ID).
		Count(&slotCount).Error; err != nil {
		a.logger.Error().Err(err).Msg("slot count failed")
		writeError(w, http.StatusInternalServerError, "plan load failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"plan_id":         active.ID,
		"generated_at":    active.GeneratedAt,
		"valid_from":      active.ValidFrom,
		"valid_to":        active.ValidTo,
		"builder_version": active.BuilderVersion,
		"checksum":        active.Checksum,
		"note":            active.Note,
		"slots":           slotCount,
	})
}

func (a *API) handleGuideXMLTV(w http.ResponseWriter, r *http.Request) {
	data, err := a.guide.RenderXMLTV(r.Context())
	if err != nil {
		if errors.Is(err, plan.ErrNoActivePlan) {
			writeError(w, http.StatusNotFound, "no active plan")
			return
		}
		a.logger.Error().Err(err).Msg("xmltv render failed")
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *API) handleGuideM3U(w http.ResponseWriter, r *http.Request) {
	base := "http://" + r.Host
	data, err := a.guide.RenderM3U(r.Context(), guide.M3UOptions{BaseURL: base})
	if err != nil {
		a.logger.Error().Err(err).Msg("m3u render failed")
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "audio/x-mpegurl")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
