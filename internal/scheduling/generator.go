package scheduling

import (
	"time"

	"evcharge/internal/models"
)

// Generator produces candidate windows for one charging point over one
// operating day. It is pure and lock-free: safe to run concurrently and
// repeatedly with the same inputs.
type Generator struct {
	slotLen time.Duration
	buffer  time.Duration
	minGap  time.Duration
}

// NewGenerator builds a generator from the scheduling tunables.
func NewGenerator(slotLen, buffer, minGap time.Duration) *Generator {
	return &Generator{slotLen: slotLen, buffer: buffer, minGap: minGap}
}

// FixedSlots walks from the opening time, emitting consecutive fixed-length
// windows each followed by the buffer, until the next window would run past
// closing. Closing at midnight must be passed as 00:00 of the next day
// (Station.OperatingWindow does this) so the final slot can end exactly there.
func (g *Generator) FixedSlots(opens, closes time.Time) []TimeSlot {
	var out []TimeSlot
	for start := opens; !start.Add(g.slotLen).After(closes); start = start.Add(g.slotLen + g.buffer) {
		out = append(out, TimeSlot{Start: start, End: start.Add(g.slotLen), Kind: KindFixed})
	}
	return out
}

// GapSlots reclaims mini windows from the gaps around the point's active
// reservations: before the first, between consecutive ones, after the last,
// and the trailing gap between the final fixed slot and closing time. Edges
// bounded by a reservation retreat by the buffer, so the resulting mini is
// actually bookable next to it. A gap becomes a mini slot when its length is
// in [minGap, slotLen) and no fixed slot already covers it. With no active
// reservations only the trailing gap is considered.
func (g *Generator) GapSlots(opens, closes time.Time, fixed []TimeSlot, active []models.Reservation) []TimeSlot {
	var gaps []window

	if len(active) > 0 {
		rs := make([]models.Reservation, len(active))
		copy(rs, active)
		sortReservations(rs)

		gaps = append(gaps, window{opens, rs[0].StartTime.Add(-g.buffer)})
		for i := 0; i < len(rs)-1; i++ {
			gaps = append(gaps, window{rs[i].EndTime.Add(g.buffer), rs[i+1].StartTime.Add(-g.buffer)})
		}
		gaps = append(gaps, window{rs[len(rs)-1].EndTime.Add(g.buffer), closes})

		// Trailing remainder of the fixed grid. A reservation running
		// past the last fixed slot pushes the remainder's start out so
		// the mini never overlaps it.
		if len(fixed) > 0 {
			start := fixed[len(fixed)-1].End
			for i := range rs {
				if after := rs[i].EndTime.Add(g.buffer); after.After(start) {
					start = after
				}
			}
			gaps = append(gaps, window{start, closes})
		}
	} else if len(fixed) > 0 {
		gaps = append(gaps, window{fixed[len(fixed)-1].End, closes})
	} else {
		// No grid at all: the whole operating window is the remainder.
		gaps = append(gaps, window{opens, closes})
	}

	var out []TimeSlot
	for _, gap := range gaps {
		if gap.start.Before(opens) {
			gap.start = opens
		}
		if gap.end.After(closes) {
			gap.end = closes
		}
		length := gap.end.Sub(gap.start)
		if length < g.minGap || length >= g.slotLen {
			continue
		}
		if coveredByFixed(gap, fixed) {
			continue
		}
		slot := TimeSlot{Start: gap.start, End: gap.end, Kind: KindMini}
		if containsSlot(out, slot) {
			continue
		}
		out = append(out, slot)
	}
	return out
}

// DropElapsed removes slots that have fully elapsed relative to now.
func DropElapsed(slots []TimeSlot, now time.Time) []TimeSlot {
	var out []TimeSlot
	for _, s := range slots {
		if s.End.After(now) {
			out = append(out, s)
		}
	}
	return out
}

type window struct {
	start time.Time
	end   time.Time
}

func coveredByFixed(gap window, fixed []TimeSlot) bool {
	for _, f := range fixed {
		if !gap.start.Before(f.Start) && !gap.end.After(f.End) {
			return true
		}
	}
	return false
}

func containsSlot(slots []TimeSlot, s TimeSlot) bool {
	for _, have := range slots {
		if have.Start.Equal(s.Start) && have.End.Equal(s.End) {
			return true
		}
	}
	return false
}
