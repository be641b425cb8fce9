package outfit

import (
	"strings"
	"time"
)

// Label is the caption of the generate trigger.
type Label string

const (
	LabelGenerate   Label = "Generate"
	LabelRegenerate Label = "Regenerate"
)

// Slot identifies which half of an outfit a garment fills.
type Slot string

const (
	SlotTop    Slot = "top"
	SlotBottom Slot = "bottom"
)

const (
	fallbackTopImage    = "/images/top-fallback.png"
	fallbackBottomImage = "/images/bottom-fallback.png"
	uploadsPath         = "/static/uploads/"
)

// BuildWeek returns seven empty days starting at ref's calendar date.
func BuildWeek(ref time.Time) Week {
	// Anchor at noon so a DST shift can never move AddDate onto another day.
	y, m, d := ref.Date()
	base := time.Date(y, m, d, 12, 0, 0, 0, ref.Location())

	week := make(Week, WeekLength)
	for i := range week {
		week[i] = DayPlan{Date: DateOf(base.AddDate(0, 0, i))}
	}
	return week
}

// MergeWeek places records onto the window by date. The window's length and
// order are kept; a day with no record stays as it was. When several records
// share a date the first one wins. Records without a valid date never match.
func MergeWeek(window Week, records []DayPlan) Week {
	byDate := make(map[Date]DayPlan, len(records))
	for _, rec := range records {
		if _, err := ParseDate(string(rec.Date)); err != nil {
			continue
		}
		if _, seen := byDate[rec.Date]; seen {
			continue
		}
		byDate[rec.Date] = rec
	}

	merged := make(Week, len(window))
	for i, day := range window {
		if rec, ok := byDate[day.Date]; ok {
			merged[i] = rec
			continue
		}
		merged[i] = day
	}
	return merged
}

// Snapshot returns the fully assigned days of w, in window order.
func Snapshot(w Week) PreviousPlan {
	plan := make([]DayPlan, 0, len(w))
	for _, day := range w {
		if day.Assigned() {
			plan = append(plan, day)
		}
	}
	return PreviousPlan{Plan: plan}
}

// IsComplete reports whether w is a full week with every day assigned.
func IsComplete(w Week) bool {
	if len(w) != WeekLength {
		return false
	}
	for _, day := range w {
		if !day.Assigned() {
			return false
		}
	}
	return true
}

// SavePayload builds the save request for w. It returns false, and no
// payload, when the window is not complete.
func SavePayload(w Week) ([]SaveEntry, bool) {
	if !IsComplete(w) {
		return nil, false
	}
	entries := make([]SaveEntry, len(w))
	for i, day := range w {
		entries[i] = SaveEntry{
			Date:     day.Date,
			TopID:    day.Top.ID,
			BottomID: day.Bottom.ID,
		}
	}
	return entries, true
}

// HasExistingOutfits reports whether any day of w is fully assigned.
func HasExistingOutfits(w Week) bool {
	for _, day := range w {
		if day.Assigned() {
			return true
		}
	}
	return false
}

// IsPastWeek reports whether w starts before today.
func IsPastWeek(w Week, today Date) bool {
	return len(w) > 0 && w[0].Date.Before(today)
}

// ActionLabel picks the generate trigger caption for w. A stale window that
// starts in the past is offered a fresh "Generate" even when populated.
func ActionLabel(w Week, today Date) Label {
	if HasExistingOutfits(w) && !IsPastWeek(w, today) {
		return LabelRegenerate
	}
	return LabelGenerate
}

// ImageSource resolves the image shown for a garment slot: the uploaded
// asset under assetBase when the garment has one, the slot fallback otherwise.
func ImageSource(ref *GarmentRef, slot Slot, assetBase string) string {
	if ref != nil && ref.ImageURL != nil && *ref.ImageURL != "" {
		return strings.TrimRight(assetBase, "/") + uploadsPath + *ref.ImageURL
	}
	if slot == SlotBottom {
		return fallbackBottomImage
	}
	return fallbackTopImage
}
