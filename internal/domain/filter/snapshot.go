// Package filter defines the immutable filter snapshot the dashboard sends on
// every interaction, the logical request channels derived from it, and the
// normalized cache keys that make snapshots comparable.
package filter

import (
	"fmt"
	"time"

	"github.com/tradepulse/tradepulse/pkg/errors"
	"github.com/tradepulse/tradepulse/pkg/types/trade"
)

// Month is a calendar month, the time granularity of every filter range.
type Month struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// String renders the month as "YYYY-MM".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// IsZero reports whether m is the zero value.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// After reports whether m is strictly later than o.
func (m Month) After(o Month) bool {
	if m.Year != o.Year {
		return m.Year > o.Year
	}
	return m.Month > o.Month
}

// FirstDay returns the first day of the month as "YYYY-MM-DD".
func (m Month) FirstDay() string {
	return fmt.Sprintf("%04d-%02d-01", m.Year, m.Month)
}

// LastDay returns the last day of the month as "YYYY-MM-DD".
func (m Month) LastDay() string {
	// Day 0 of the following month.
	t := time.Date(m.Year, time.Month(m.Month)+1, 0, 0, 0, 0, 0, time.UTC)
	return t.Format("2006-01-02")
}

// Snapshot is an immutable value object capturing the complete filter state
// at one instant of interaction.  The UI owns it and passes it by value; the
// orchestrator never mutates one.  All slice fields are semantically
// unordered sets — ordering must not affect the derived key.
type Snapshot struct {
	// Start and End bound the time range, inclusive, at month granularity.
	// Both zero means "all time".
	Start Month `json:"start"`
	End   Month `json:"end"`

	// Countries holds selected ISO country codes.
	Countries []string `json:"countries,omitempty"`

	// Categories holds selected 2-digit HS code prefixes.
	Categories []string `json:"categories,omitempty"`

	// SubCategories holds optional 2-digit HS code suffixes; the backend
	// combines them with Categories into 4-digit codes.
	SubCategories []string `json:"sub_categories,omitempty"`

	// Companies holds selected exporter/importer names.
	Companies []string `json:"companies,omitempty"`

	// Direction restricts flows to imports, exports, or both.
	Direction trade.Direction `json:"direction,omitempty"`
}

// Validate checks the snapshot invariants.  Empty selection sets are a valid
// "no filter" state, never an error.
func (s Snapshot) Validate() error {
	if s.Start.IsZero() != s.End.IsZero() {
		return errors.Validation("time range must set both start and end or neither")
	}
	if !s.Start.IsZero() && s.Start.After(s.End) {
		return errors.Validation("time range start is after end").
			WithDetail(s.Start.String() + " > " + s.End.String())
	}
	if !s.Direction.Valid() {
		return errors.Validation("unknown trade direction").WithDetail(string(s.Direction))
	}
	return nil
}

// Reason tags a filter change with the interaction that produced it, which
// selects the debounce quiet period.
type Reason string

const (
	// ReasonDrag marks continuous interaction, e.g. a time-slider drag.
	ReasonDrag Reason = "drag"
	// ReasonClick marks a discrete toggle, e.g. a country checkbox.
	ReasonClick Reason = "click"
)

// Valid reports whether r is a recognised reason.
func (r Reason) Valid() bool {
	return r == ReasonDrag || r == ReasonClick
}

// Mode distinguishes the immediate low-cost preview fetch from the delayed
// authoritative final fetch.
type Mode string

const (
	ModePreview Mode = "preview"
	ModeFinal   Mode = "final"
)

// Channel is a logical fetch target.  Each channel owns its own in-flight
// slot and result-cache namespace; requests on different channels never
// collide.
type Channel string

const (
	// ChannelShipments feeds the trade map with raw shipment flows.
	ChannelShipments Channel = "shipments"
	// ChannelCountryStats feeds the country panel with pre-aggregated
	// country/month statistics.
	ChannelCountryStats Channel = "country-trade-stats"
)

// Channels lists every channel the coordinator drives, in fetch order.
var Channels = []Channel{ChannelShipments, ChannelCountryStats}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelShipments || c == ChannelCountryStats
}

// FieldSet selects the snapshot fields a channel's queries depend on.
// Fields outside the set never enter that channel's key, so mutating only an
// irrelevant field cannot bust its cache.
type FieldSet uint8

const (
	FieldTimeRange FieldSet = 1 << iota
	FieldCountries
	FieldCategories
	FieldSubCategories
	FieldCompanies
	FieldDirection
)

// AllFields covers every snapshot field.
const AllFields = FieldTimeRange | FieldCountries | FieldCategories |
	FieldSubCategories | FieldCompanies | FieldDirection

// Has reports whether f includes the given field.
func (f FieldSet) Has(field FieldSet) bool {
	return f&field != 0
}

// Fields returns the snapshot fields relevant to a channel.  The country
// statistics bundle is aggregated without company or sub-category resolution,
// so those selections are excluded from its key.
func (c Channel) Fields() FieldSet {
	switch c {
	case ChannelCountryStats:
		return FieldTimeRange | FieldCountries | FieldCategories | FieldDirection
	default:
		return AllFields
	}
}
