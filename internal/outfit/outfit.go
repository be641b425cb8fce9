package outfit

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO layout used for every calendar date in the planner.
const DateLayout = "2006-01-02"

// WeekLength is the number of days in a planning window.
const WeekLength = 7

// Date is a calendar day in YYYY-MM-DD form. It is the only key used to
// match outfit records to days.
type Date string

// DateOf returns the calendar date of t in t's own location. The time of
// day is ignored.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// ParseDate validates s and returns it as a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns the date at midnight UTC.
func (d Date) Time() (time.Time, error) {
	return time.Parse(DateLayout, string(d))
}

// AddDays returns the date n days after d. An invalid date is returned unchanged.
func (d Date) AddDays(n int) Date {
	t, err := d.Time()
	if err != nil {
		return d
	}
	return DateOf(t.AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other.
// ISO dates order lexically, so a plain string comparison is enough.
func (d Date) Before(other Date) bool {
	return d < other
}

func (d Date) String() string {
	return string(d)
}

// Label renders the card header used by the planner front ends,
// e.g. "18-OCT-2026-SUN".
func (d Date) Label() string {
	t, err := d.Time()
	if err != nil {
		return string(d)
	}
	return fmt.Sprintf("%02d-%s-%d-%s",
		t.Day(),
		strings.ToUpper(t.Format("Jan")),
		t.Year(),
		strings.ToUpper(t.Format("Mon")),
	)
}

// GarmentRef points at a garment owned by the wardrobe catalog. The planner
// never builds one itself; refs arrive from the history and generation
// services and are passed through untouched.
type GarmentRef struct {
	ID          int64   `json:"id"`
	ImageURL    *string `json:"image_url"`
	ItemType    string  `json:"item_type,omitempty"`
	Color       string  `json:"color,omitempty"`
	IsAvailable bool    `json:"is_available,omitempty"`
}

// Describe returns a short human label such as "navy shirt".
func (g *GarmentRef) Describe() string {
	if g == nil {
		return ""
	}
	desc := strings.TrimSpace(g.Color + " " + g.ItemType)
	if desc == "" {
		return fmt.Sprintf("item #%d", g.ID)
	}
	return desc
}

// DayPlan is the outfit for one calendar day. Top and Bottom are nil when
// nothing is assigned.
type DayPlan struct {
	Date   Date        `json:"date"`
	Top    *GarmentRef `json:"top"`
	Bottom *GarmentRef `json:"bottom"`
}

// Assigned reports whether both garments carry an id.
func (d DayPlan) Assigned() bool {
	return d.Top != nil && d.Top.ID != 0 && d.Bottom != nil && d.Bottom.ID != 0
}

// Week is the ordered planning window. A usable window always holds
// WeekLength consecutive days; it is empty only before the first load.
type Week []DayPlan

// Clone returns a copy of the window so callers cannot mutate shared state.
// Garment refs are shared; they are never modified in place.
func (w Week) Clone() Week {
	if w == nil {
		return nil
	}
	out := make(Week, len(w))
	copy(out, w)
	return out
}

// Dates returns the window's dates in order.
func (w Week) Dates() []Date {
	dates := make([]Date, len(w))
	for i, day := range w {
		dates[i] = day.Date
	}
	return dates
}

// PreviousPlan is the repeat-avoidance hint sent with a generation request.
type PreviousPlan struct {
	Plan []DayPlan `json:"plan"`
}

// GenerateRequest is the body accepted by the generation service.
type GenerateRequest struct {
	City         string        `json:"city"`
	PreviousPlan *PreviousPlan `json:"previous_plan,omitempty"`
}

// SaveEntry is one day of a save request.
type SaveEntry struct {
	Date     Date  `json:"date"`
	TopID    int64 `json:"top_id"`
	BottomID int64 `json:"bottom_id"`
}
