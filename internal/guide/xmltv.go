/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package guide renders the active plan into the text formats downstream
// players consume: an XMLTV EPG and an M3U lane playlist.
package guide

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/gridcast/internal/models"
	"github.com/friendsincode/gridcast/internal/plan"
)

const xmltvTimeLayout = "20060102150405 -0700"

// placeholderTitle is shown for filler slots in the guide.
const placeholderTitle = "No Scheduled Event"

// Service renders guide documents from persisted plans.
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New creates a guide renderer.
func New(database *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     database,
		logger: logger.With().Str("component", "guide").Logger(),
	}
}

type xmltvTV struct {
	XMLName       xml.Name         `xml:"tv"`
	GeneratorName string           `xml:"generator-info-name,attr"`
	Channels      []xmltvChannel   `xml:"channel"`
	Programmes    []xmltvProgramme `xml:"programme"`
}

type xmltvChannel struct {
	ID           string   `xml:"id,attr"`
	DisplayNames []string `xml:"display-name"`
}

type xmltvProgramme struct {
	Start      string       `xml:"start,attr"`
	Stop       string       `xml:"stop,attr"`
	Channel    string       `xml:"channel,attr"`
	Title      string       `xml:"title"`
	SubTitle   string       `xml:"sub-title,omitempty"`
	Desc       string       `xml:"desc,omitempty"`
	Categories []string     `xml:"category,omitempty"`
	Live       *xmltvMarker `xml:"live,omitempty"`
}

type xmltvMarker struct{}

// RenderXMLTV builds an XMLTV document for the active plan.
func (s *Service) RenderXMLTV(ctx context.Context) ([]byte, error) {
	active, err := plan.ActivePlan(ctx, s.db)
	if err != nil {
		return nil, err
	}
	slots, err := plan.SlotsForPlan(ctx, s.db, active.ID)
	if err != nil {
		return nil, err
	}

	channels, err := s.channelsByID(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.eventsForSlots(ctx, slots)
	if err != nil {
		return nil, err
	}

	doc := xmltvTV{GeneratorName: "gridcast"}

	seen := make(map[string]bool, len(channels))
	for _, slot := range slots {
		ch, ok := channels[slot.ChannelID]
		if !ok || seen[ch.ID] {
			continue
		}
		seen[ch.ID] = true
		doc.Channels = append(doc.Channels, xmltvChannel{
			ID:           ch.ID,
			DisplayNames: []string{ch.Name, strconv.Itoa(ch.Number)},
		})
	}

	for _, slot := range slots {
		prog := xmltvProgramme{
			Start:   slot.StartUTC.UTC().Format(xmltvTimeLayout),
			Stop:    slot.EndUTC.UTC().Format(xmltvTimeLayout),
			Channel: slot.ChannelID,
		}
		if slot.Kind == models.SlotEvent && slot.EventID != nil {
			ev, ok := events[*slot.EventID]
			if !ok {
				s.logger.Warn().Str("event", *slot.EventID).Msg("slot references missing event row")
				prog.Title = placeholderTitle
			} else {
				prog.Title = ev.Title
				prog.SubTitle = ev.Subtitle
				if ev.Sport != "" {
					prog.Categories = append(prog.Categories, ev.Sport)
				}
				if !ev.IsReplay && !ev.IsStudio {
					prog.Live = &xmltvMarker{}
				}
			}
		} else {
			prog.Title = placeholderTitle
			prog.Categories = []string{"Placeholder"}
		}
		doc.Programmes = append(doc.Programmes, prog)
	}

	raw, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal xmltv: %w", err)
	}
	out := append([]byte(xml.Header), raw...)
	out = append(out, '\n')

	s.logger.Info().
		Str("plan", active.ID).
		Int("channels", len(doc.Channels)).
		Int("programmes", len(doc.Programmes)).
		Msg("xmltv rendered")
	return out, nil
}

func (s *Service) channelsByID(ctx context.Context) (map[string]models.Channel, error) {
	var rows []models.Channel
	if err := s.db.WithContext(ctx).Order("chno ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}
	out := make(map[string]models.Channel, len(rows))
	for _, ch := range rows {
		out[ch.ID] = ch
	}
	return out, nil
}

func (s *Service) eventsForSlots(ctx context.Context, slots []models.PlanSlot) (map[string]models.Event, error) {
	ids := make([]string, 0, len(slots))
	for _, slot := range slots {
		if slot.EventID != nil {
			ids = append(ids, *slot.EventID)
		}
	}
	out := make(map[string]models.Event, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Event
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	for _, ev := range rows {
		out[ev.ID] = ev
	}
	return out, nil
}
