package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcharge/internal/models"
)

func TestCollisionRespectsBufferPadding(t *testing.T) {
	// One reservation 10:00-11:00 with a 15-minute buffer blocks the
	// grid slot 08:30-10:30: the padded reservation window [09:45, 11:15]
	// intersects it.
	avail := NewAvailability(15 * time.Minute)
	active := []models.Reservation{reservation(day(10, 0), day(11, 0))}

	slot := TimeSlot{Start: day(8, 30), End: day(10, 30), Kind: KindFixed}
	hit, occupied := avail.Collision(slot, active)
	require.True(t, occupied)
	assert.Equal(t, day(10, 0), hit.StartTime)
}

func TestCollisionFreeSlotsStayClearOfPaddedWindow(t *testing.T) {
	avail := NewAvailability(15 * time.Minute)
	active := []models.Reservation{reservation(day(10, 0), day(11, 0))}

	gen := newTestGenerator()
	fixed := gen.FixedSlots(day(8, 0), day(18, 0))
	minis := gen.GapSlots(day(8, 0), day(18, 0), fixed, active)

	free := avail.Candidates(fixed, minis, active, 22, 0.30)
	for _, s := range free {
		assert.False(t, s.Start.Before(day(11, 15)) && day(9, 45).Before(s.End),
			"free slot %s intersects the padded reservation window", s.SlotID)
	}
}

func TestCollisionIgnoresInactiveReservations(t *testing.T) {
	avail := NewAvailability(15 * time.Minute)
	canceled := reservation(day(10, 0), day(11, 0))
	canceled.Status = models.ReservationCanceled
	completed := reservation(day(12, 0), day(13, 0))
	completed.Status = models.ReservationCompleted

	slot := TimeSlot{Start: day(10, 0), End: day(12, 0), Kind: KindFixed}
	_, occupied := avail.Collision(slot, []models.Reservation{canceled, completed})
	assert.False(t, occupied)
}

func TestCollisionTouchingPaddedEndpointsIsFree(t *testing.T) {
	avail := NewAvailability(15 * time.Minute)
	active := []models.Reservation{reservation(day(10, 0), day(11, 0))}

	// Slot end meets the padded reservation start 09:45 exactly.
	slot := TimeSlot{Start: day(8, 30), End: day(9, 45), Kind: KindMini}
	_, occupied := avail.Collision(slot, active)
	assert.False(t, occupied)
}

func TestReclaimedGapMinisAreBookable(t *testing.T) {
	// A 90-minute gap between two reservations yields a 60-minute mini
	// that survives the availability filter, buffer on both sides.
	avail := NewAvailability(15 * time.Minute)
	gen := newTestGenerator()
	active := []models.Reservation{
		reservation(day(10, 0), day(11, 0)),
		reservation(day(12, 30), day(13, 30)),
	}

	minis := gen.GapSlots(day(8, 0), day(18, 0), nil, active)
	free := avail.Candidates(nil, minis, active, 22, 0.30)

	ids := make([]string, 0, len(free))
	for _, s := range free {
		ids = append(ids, s.SlotID)
	}
	assert.Contains(t, ids, "MINI_11:15_12:15")
	// Every emitted mini clears the reservations that bound it.
	assert.Len(t, free, len(minis))
}

func TestPriceAssumesWorstCaseDraw(t *testing.T) {
	slot := TimeSlot{Start: day(8, 0), End: day(10, 0), Kind: KindFixed}
	// 22 kW for 2 hours at 0.30 per kWh.
	assert.InDelta(t, 13.2, Price(slot, 22, 0.30), 1e-9)

	mini := TimeSlot{Start: day(10, 0), End: day(10, 45), Kind: KindMini}
	assert.InDelta(t, 22*0.75*0.30, Price(mini, 22, 0.30), 1e-9)
}

func TestCandidatesTagAndPrice(t *testing.T) {
	avail := NewAvailability(15 * time.Minute)
	gen := newTestGenerator()
	fixed := gen.FixedSlots(day(8, 30), day(12, 45))

	free := avail.Candidates(fixed, nil, nil, 11, 0.25)
	require.Len(t, free, 2)
	assert.Equal(t, "FIXED_08:30_10:30", free[0].SlotID)
	assert.Equal(t, "FIXED_10:45_12:45", free[1].SlotID)
	assert.Equal(t, 120, free[0].DurationMinutes)
	assert.InDelta(t, 11*2*0.25, free[0].EstimatedPrice, 1e-9)
}

func TestFindAvailableSlotsDeterministic(t *testing.T) {
	// Same inputs, same output: the discovery phase is pure.
	avail := NewAvailability(15 * time.Minute)
	gen := newTestGenerator()
	opens, closes := day(0, 30), day(0, 0).AddDate(0, 0, 1)
	active := []models.Reservation{reservation(day(10, 0), day(11, 0))}

	fixed := gen.FixedSlots(opens, closes)
	minis := gen.GapSlots(opens, closes, fixed, active)

	first := avail.Candidates(fixed, minis, active, 22, 0.30)
	second := avail.Candidates(fixed, minis, active, 22, 0.30)
	assert.Equal(t, first, second)
}
