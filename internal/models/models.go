package models

import (
	"time"
)

// Channel is one virtual output lane, ordered by guide number.
type Channel struct {
	ID        string `gorm:"primaryKey"`
	Number    int    `gorm:"column:chno;uniqueIndex"`
	Name      string
	GroupName string
	Active    bool `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Event is a time-bounded content item produced by the upstream ingester.
// The plan builder only reads these rows.
type Event struct {
	ID       string `gorm:"primaryKey"`
	Title    string
	Subtitle string
	Sport    string
	Network  string
	StartUTC time.Time `gorm:"index"`
	EndUTC   time.Time `gorm:"index"`
	IsReplay bool
	IsStudio bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StickyAssignment pins an event identity to the lane it was last placed on,
// so reruns keep events on familiar channels when possible.
type StickyAssignment struct {
	EventID    string `gorm:"primaryKey"`
	ChannelID  string `gorm:"index"`
	PinnedAt   time.Time
	LastSeenAt time.Time
}

// SlotKind distinguishes real programming from filler.
type SlotKind string

const (
	SlotEvent       SlotKind = "event"
	SlotPlaceholder SlotKind = "placeholder"
)

// Placeholder reasons recorded on filler slots.
const (
	ReasonGap  = "gap"
	ReasonTail = "tail"
)

// Plan is one immutable, checksummed output of a full build.
type Plan struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	GeneratedAt    time.Time
	ValidFrom      time.Time `gorm:"index"`
	ValidTo        time.Time
	BuilderVersion string
	Note           string
	Checksum       string `gorm:"index"`
}

// PlanSlot is one interval on one lane in one plan. For a fixed plan and
// lane, slots are ordered by start and pairwise non-overlapping.
type PlanSlot struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	PlanID    string `gorm:"type:uuid;index"`
	ChannelID string `gorm:"index"`
	EventID   *string
	StartUTC  time.Time `gorm:"index"`
	EndUTC    time.Time
	Kind      SlotKind `gorm:"type:varchar(16)"`
	Reason    string   `gorm:"type:varchar(32)"`
}

// PlanMeta is a small key/value table; the active plan pointer lives here
// and is the only mutable piece of plan state.
type PlanMeta struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

// MetaActivePlanID is the PlanMeta key holding the served plan's ID.
const MetaActivePlanID = "active_plan_id"
