// Package booking contains the core domain types for the darshan notification service.
package booking

import "time"

// Kind identifies one of the two upstream inventory categories.
type Kind string

const (
	Darshan Kind = "darshan"
	Aarti   Kind = "aarti"
)

// Kinds lists all resource kinds in the order they are polled.
var Kinds = []Kind{Darshan, Aarti}

// Slot is one bookable time window on a single date. Darshan slots carry a
// single reporting time; aarti slots carry a reporting start/end pair. A Slot
// is a point-in-time snapshot and is never mutated after fetch.
type Slot struct {
	Kind               Kind   `json:"-"`
	ID                 int    `json:"slotId"`
	Name               string `json:"slotName"`
	Date               string `json:"date"` // formatted date from upstream (DD-MMM-YYYY)
	BeginTime          string `json:"slotBeginTime"`
	EndTime            string `json:"slotEndTime"`
	ReportingTime      string `json:"reportingTime,omitempty"`      // darshan only
	ReportingStartTime string `json:"reportingStartTime,omitempty"` // aarti only
	ReportingEndTime   string `json:"reportingEndTime,omitempty"`   // aarti only
	TicketsAvailable   int    `json:"noOfTicketsAvailable"`
}

// TimeRange renders the slot's begin/end window for display.
func (s Slot) TimeRange() string {
	return s.BeginTime + " - " + s.EndTime
}

// AvailableSlot is one calendar date with at least one open slot.
type AvailableSlot struct {
	Date          string   `json:"date"`          // upstream date key (YYYY-M-D)
	FormattedDate string   `json:"formattedDate"` // human-formatted (DD-MMM-YYYY)
	Slots         []Slot   `json:"slots"`
	MinPersons    int      `json:"minPersons"`
	MaxPersons    int      `json:"maxPersons"`
	Price         *float64 `json:"price"` // nil means free or undisclosed
}

// ChangeReport describes the dates whose availability opened up or grew
// since the previous poll, in the current aggregation's chronological order.
type ChangeReport struct {
	Kind    Kind
	Changed []AvailableSlot
}

// Notifications records which webhook deliveries succeeded during a tick.
type Notifications struct {
	Darshan bool `json:"darshan"`
	Aarti   bool `json:"aarti"`
	Test    bool `json:"test,omitempty"`
}

// TickResult is the outcome of one poll tick.
type TickResult struct {
	Success          bool          `json:"success"`
	TickID           string        `json:"tick_id"`
	Timestamp        time.Time     `json:"timestamp"`
	Notifications    Notifications `json:"notifications"`
	TestMode         bool          `json:"test_mode"`
	DarshanSlotCount int           `json:"darshanSlotCount"`
	AartiSlotCount   int           `json:"aartiSlotCount"`
}
