package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcharge/internal/models"
)

func day(h, m int) time.Time {
	return time.Date(2026, 9, 14, h, m, 0, 0, time.UTC)
}

func newTestGenerator() *Generator {
	return NewGenerator(120*time.Minute, 15*time.Minute, 30*time.Minute)
}

func TestFixedSlotsWalksGrid(t *testing.T) {
	gen := newTestGenerator()
	slots := gen.FixedSlots(day(8, 0), day(14, 0))

	require.Len(t, slots, 2)
	assert.Equal(t, day(8, 0), slots[0].Start)
	assert.Equal(t, day(10, 0), slots[0].End)
	assert.Equal(t, day(10, 15), slots[1].Start)
	assert.Equal(t, day(12, 15), slots[1].End)
	for _, s := range slots {
		assert.Equal(t, KindFixed, s.Kind)
		assert.Equal(t, 120, s.Minutes())
	}
}

func TestFixedSlotsMidnightClosing(t *testing.T) {
	// Opening 00:30, closing midnight: consecutive 120-minute slots
	// separated by 15-minute gaps, last one ending before 24:00.
	gen := newTestGenerator()
	opens := day(0, 30)
	closes := day(0, 0).AddDate(0, 0, 1)

	slots := gen.FixedSlots(opens, closes)
	require.Len(t, slots, 10)
	for i, s := range slots {
		assert.Equal(t, 120, s.Minutes())
		if i > 0 {
			assert.Equal(t, 15*time.Minute, s.Start.Sub(slots[i-1].End))
		}
	}
	last := slots[len(slots)-1]
	assert.Equal(t, day(22, 45), last.End)

	// The 75-minute remainder becomes exactly one trailing mini slot.
	minis := gen.GapSlots(opens, closes, slots, nil)
	require.Len(t, minis, 1)
	assert.Equal(t, day(22, 45), minis[0].Start)
	assert.Equal(t, closes, minis[0].End)
	assert.Equal(t, 75, minis[0].Minutes())
	assert.Equal(t, KindMini, minis[0].Kind)
}

func TestFixedSlotsNoneWhenDayTooShort(t *testing.T) {
	gen := newTestGenerator()
	slots := gen.FixedSlots(day(9, 0), day(10, 30))
	assert.Empty(t, slots)
}

func TestGapSlotsShortDayStillYieldsMini(t *testing.T) {
	// A 90-minute operating window has no fixed slots but one mini.
	gen := newTestGenerator()
	opens, closes := day(9, 0), day(10, 30)

	minis := gen.GapSlots(opens, closes, nil, nil)
	require.Len(t, minis, 1)
	assert.Equal(t, opens, minis[0].Start)
	assert.Equal(t, closes, minis[0].End)
}

func reservation(start, end time.Time) models.Reservation {
	return models.Reservation{StartTime: start, EndTime: end, Status: models.ReservationBooked}
}

func TestGapSlotsAroundReservations(t *testing.T) {
	gen := newTestGenerator()
	opens, closes := day(8, 0), day(12, 0)
	active := []models.Reservation{
		reservation(day(9, 0), day(10, 0)),
		reservation(day(10, 30), day(11, 15)),
	}

	minis := gen.GapSlots(opens, closes, nil, active)

	// Reservation-bounded edges retreat by the 15-minute buffer: 8:00-8:45
	// before the first reservation, 11:30-12:00 after the last. The raw
	// 30-minute gap between the two shrinks below the minimum and is gone.
	require.Len(t, minis, 2)
	assert.Equal(t, day(8, 0), minis[0].Start)
	assert.Equal(t, day(8, 45), minis[0].End)
	assert.Equal(t, day(11, 30), minis[1].Start)
	assert.Equal(t, day(12, 0), minis[1].End)
}

func TestGapSlotsTrailingGapRespectsIntrudingReservation(t *testing.T) {
	// A reservation running past the end of the last fixed slot pushes the
	// trailing remainder out instead of producing overlapping minis.
	gen := newTestGenerator()
	opens, closes := day(8, 0), day(11, 30)
	fixed := gen.FixedSlots(opens, closes)
	require.Len(t, fixed, 1)
	active := []models.Reservation{reservation(day(8, 10), day(10, 5))}

	minis := gen.GapSlots(opens, closes, fixed, active)
	require.Len(t, minis, 1)
	assert.Equal(t, day(10, 20), minis[0].Start)
	assert.Equal(t, day(11, 30), minis[0].End)
	assert.False(t, minis[0].Overlaps(active[0].StartTime, active[0].EndTime))
}

func TestGapSlotsSkipsTooShortAndTooLong(t *testing.T) {
	gen := newTestGenerator()
	opens, closes := day(8, 0), day(14, 0)
	active := []models.Reservation{
		// Gap before is below the 30-minute minimum.
		reservation(day(8, 20), day(9, 0)),
		// Gap between is still a full fixed slot long after the buffered
		// edges retreat, so it is not a mini either.
		reservation(day(11, 30), day(14, 0)),
	}

	minis := gen.GapSlots(opens, closes, nil, active)
	assert.Empty(t, minis)
}

func TestGapSlotsSkipsGapsCoveredByFixed(t *testing.T) {
	gen := newTestGenerator()
	opens, closes := day(8, 0), day(14, 0)
	fixed := gen.FixedSlots(opens, closes)
	// The buffered 8:45-9:15 gap sits entirely inside the 8:00-10:00
	// fixed slot.
	active := []models.Reservation{
		reservation(day(8, 0), day(8, 30)),
		reservation(day(9, 30), day(14, 0)),
	}

	minis := gen.GapSlots(opens, closes, fixed, active)
	for _, m := range minis {
		assert.False(t, m.Start.Equal(day(8, 45)), "gap covered by a fixed slot must not become a mini")
	}
}

func TestGapSlotsIgnoresNoReservationGapsWhenEmpty(t *testing.T) {
	// With no active reservations only the trailing remainder counts,
	// and a remainder shorter than 30 minutes yields nothing.
	gen := newTestGenerator()
	opens, closes := day(8, 0), day(12, 20)
	fixed := gen.FixedSlots(opens, closes) // 8:00-10:00, 10:15-12:15; remainder 5 min

	minis := gen.GapSlots(opens, closes, fixed, nil)
	assert.Empty(t, minis)
}

func TestFixedAndMiniNeverOverlap(t *testing.T) {
	gen := newTestGenerator()
	opens := day(0, 30)
	closes := day(0, 0).AddDate(0, 0, 1)
	active := []models.Reservation{
		reservation(day(5, 0), day(6, 0)),
		reservation(day(13, 10), day(13, 45)),
	}

	fixed := gen.FixedSlots(opens, closes)
	minis := gen.GapSlots(opens, closes, fixed, active)

	all := append(append([]TimeSlot{}, fixed...), minis...)
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			assert.False(t, all[i].Overlaps(all[j].Start, all[j].End),
				"slots %s and %s overlap", all[i].ID(), all[j].ID())
		}
	}
	for _, m := range minis {
		for _, r := range active {
			assert.False(t, m.Overlaps(r.StartTime, r.EndTime),
				"mini %s overlaps a reservation", m.ID())
		}
	}
}

func TestDropElapsed(t *testing.T) {
	gen := newTestGenerator()
	slots := gen.FixedSlots(day(8, 0), day(14, 0))
	now := day(10, 30)

	kept := DropElapsed(slots, now)
	require.Len(t, kept, 1)
	assert.Equal(t, day(10, 15), kept[0].Start)
}
