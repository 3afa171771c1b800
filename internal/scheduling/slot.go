package scheduling

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"evcharge/internal/models"
)

// SlotKind distinguishes grid-aligned fixed slots from reclaimed gap slots.
type SlotKind string

const (
	KindFixed SlotKind = "FIXED"
	KindMini  SlotKind = "MINI"
)

const clockLayout = "15:04"

// TimeSlot is an ephemeral candidate window. It is produced and consumed
// within a single scheduling request and never persisted.
type TimeSlot struct {
	Start time.Time
	End   time.Time
	Kind  SlotKind
}

// Duration returns the window length.
func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Minutes returns the window length in whole minutes.
func (s TimeSlot) Minutes() int {
	return int(s.Duration() / time.Minute)
}

// ID encodes kind and wall-clock bounds, e.g. FIXED_08:30_10:30.
// A window ending at midnight encodes its end as 00:00.
func (s TimeSlot) ID() string {
	return fmt.Sprintf("%s_%s_%s", s.Kind, s.Start.Format(clockLayout), s.End.Format(clockLayout))
}

// ParseSlotID reconstructs a TimeSlot on the given calendar day from its id.
// An end clock at or before the start clock rolls over to the next day.
func ParseSlotID(id string, day time.Time) (TimeSlot, error) {
	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		return TimeSlot{}, fmt.Errorf("malformed slot id %q", id)
	}

	var kind SlotKind
	switch SlotKind(parts[0]) {
	case KindFixed, KindMini:
		kind = SlotKind(parts[0])
	default:
		return TimeSlot{}, fmt.Errorf("unknown slot kind in id %q", id)
	}

	start, err := clockOn(day, parts[1])
	if err != nil {
		return TimeSlot{}, fmt.Errorf("malformed slot id %q: %w", id, err)
	}
	end, err := clockOn(day, parts[2])
	if err != nil {
		return TimeSlot{}, fmt.Errorf("malformed slot id %q: %w", id, err)
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return TimeSlot{Start: start, End: end, Kind: kind}, nil
}

func clockOn(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// Overlaps reports whether the slot intersects the given interval.
// Touching endpoints do not overlap.
func (s TimeSlot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && start.Before(s.End)
}

// AvailableSlot is a free, priced candidate returned to the caller.
type AvailableSlot struct {
	SlotID          string    `json:"slot_id"`
	Kind            SlotKind  `json:"kind"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	EstimatedPrice  float64   `json:"estimated_price"`
}

// sortReservations orders reservations by start time, in place.
func sortReservations(rs []models.Reservation) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].StartTime.Before(rs[j].StartTime) })
}
