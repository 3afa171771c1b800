package scheduling

import (
	"time"

	"evcharge/internal/models"
)

// Availability filters candidate slots against active reservations and
// prices the free ones. Like Generator it is pure and lock-free; the
// authoritative re-check happens later under the reservation commit lock.
type Availability struct {
	buffer time.Duration
}

// NewAvailability builds the filter with the configured safety buffer.
func NewAvailability(buffer time.Duration) *Availability {
	return &Availability{buffer: buffer}
}

// Collision returns the first active (BOOKED or CHARGING) reservation the
// slot collides with, after expanding the reservation outward by the buffer.
// Touching a padded endpoint is not a collision, so a slot separated from a
// reservation by exactly the buffer is bookable.
func (a *Availability) Collision(slot TimeSlot, active []models.Reservation) (*models.Reservation, bool) {
	for i := range active {
		r := &active[i]
		if !r.Status.Active() {
			continue
		}
		if slot.Start.Before(r.EndTime.Add(a.buffer)) && r.StartTime.Add(-a.buffer).Before(slot.End) {
			return r, true
		}
	}
	return nil, false
}

// CollisionWindow is Collision for an arbitrary interval, used by the
// book-now path where the window is computed rather than slot-derived.
func (a *Availability) CollisionWindow(start, end time.Time, active []models.Reservation) (*models.Reservation, bool) {
	return a.Collision(TimeSlot{Start: start, End: end}, active)
}

// Price estimates the cost of a window assuming worst-case continuous draw
// at the connector's rated power.
func Price(slot TimeSlot, powerKW, pricePerKWh float64) float64 {
	return powerKW * (float64(slot.Minutes()) / 60.0) * pricePerKWh
}

// Candidates drops occupied slots from the fixed and mini sets and tags the
// survivors with deterministic ids and estimated prices.
func (a *Availability) Candidates(fixed, mini []TimeSlot, active []models.Reservation, powerKW, pricePerKWh float64) []AvailableSlot {
	out := make([]AvailableSlot, 0, len(fixed)+len(mini))
	for _, slot := range append(append([]TimeSlot{}, fixed...), mini...) {
		if _, hit := a.Collision(slot, active); hit {
			continue
		}
		out = append(out, AvailableSlot{
			SlotID:          slot.ID(),
			Kind:            slot.Kind,
			Start:           slot.Start,
			End:             slot.End,
			DurationMinutes: slot.Minutes(),
			EstimatedPrice:  Price(slot, powerKW, pricePerKWh),
		})
	}
	return out
}
