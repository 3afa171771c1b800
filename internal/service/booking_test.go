package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcharge/internal/faults"
	"evcharge/internal/models"
	"evcharge/internal/scheduling"
)

func at(h, m int) time.Time {
	return time.Date(2026, 9, 14, h, m, 0, 0, time.UTC)
}

func TestChargeMinutesInflatesByConfiguredPct(t *testing.T) {
	// 10% of a 40 kWh pack is 4 kWh; at 20 kW that is 12 minutes raw,
	// inflated by 15% to 13.8 and rounded up.
	assert.Equal(t, 14, ChargeMinutes(20, 30, 40, 20, 15))

	// Exact case: 20 minutes raw at 15% inflation is exactly 23.
	assert.Equal(t, 23, ChargeMinutes(0, 25, 40, 30, 15))

	// No inflation passes the raw figure through.
	assert.Equal(t, 12, ChargeMinutes(20, 30, 40, 20, 0))
}

func TestChargeMinutesZeroDelta(t *testing.T) {
	assert.Equal(t, 0, ChargeMinutes(80, 80, 40, 20, 15))
}

func slotAt(startH, startM, endH, endM int) scheduling.TimeSlot {
	return scheduling.TimeSlot{Start: at(startH, startM), End: at(endH, endM), Kind: scheduling.KindFixed}
}

func TestValidateContiguousAcceptsZeroAndBufferGaps(t *testing.T) {
	buffer := 15 * time.Minute

	// Gap of exactly the buffer.
	sorted, err := ValidateContiguous([]scheduling.TimeSlot{
		slotAt(10, 15, 12, 15),
		slotAt(8, 0, 10, 0),
	}, buffer)
	require.NoError(t, err)
	assert.Equal(t, at(8, 0), sorted[0].Start)
	assert.Equal(t, at(12, 15), sorted[1].End)

	// Gap of exactly zero.
	_, err = ValidateContiguous([]scheduling.TimeSlot{
		slotAt(8, 0, 10, 0),
		slotAt(10, 0, 10, 45),
	}, buffer)
	assert.NoError(t, err)
}

func TestValidateContiguousRejectsOtherGaps(t *testing.T) {
	buffer := 15 * time.Minute

	_, err := ValidateContiguous([]scheduling.TimeSlot{
		slotAt(8, 0, 10, 0),
		slotAt(10, 30, 12, 30),
	}, buffer)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindValidation))

	// Overlapping slots are not contiguous either.
	_, err = ValidateContiguous([]scheduling.TimeSlot{
		slotAt(8, 0, 10, 0),
		slotAt(9, 30, 11, 30),
	}, buffer)
	assert.Error(t, err)
}

func TestValidateContiguousRequiresSlots(t *testing.T) {
	_, err := ValidateContiguous(nil, 15*time.Minute)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindValidation))
}

func TestLateCancelWindow(t *testing.T) {
	threshold := 10 * time.Minute

	// Cancelling at exactly the threshold is still free.
	assert.False(t, lateCancel(at(10, 0), at(9, 50), threshold))
	assert.False(t, lateCancel(at(10, 0), at(9, 30), threshold))
	assert.True(t, lateCancel(at(10, 0), at(9, 51), threshold))
	// A reservation whose start has passed is always a late cancel.
	assert.True(t, lateCancel(at(10, 0), at(10, 5), threshold))
}

func TestNoShowEligibility(t *testing.T) {
	grace := 15 * time.Minute
	start := at(10, 0)

	assert.False(t, noShowEligible(models.ReservationBooked, start, at(10, 14), grace))
	assert.True(t, noShowEligible(models.ReservationBooked, start, at(10, 15), grace))
	assert.True(t, noShowEligible(models.ReservationBooked, start, at(11, 0), grace))

	// A reservation the sweep already canceled is no longer actionable,
	// so running the sweep twice applies the fee exactly once.
	assert.False(t, noShowEligible(models.ReservationCanceled, start, at(11, 0), grace))
	assert.False(t, noShowEligible(models.ReservationCharging, start, at(11, 0), grace))
	assert.False(t, noShowEligible(models.ReservationCompleted, start, at(11, 0), grace))
}

func TestFitsOperatingDay(t *testing.T) {
	opens, closes := at(8, 0), at(22, 0)

	assert.NoError(t, fitsOperatingDay(at(8, 0), at(9, 0), opens, closes))
	assert.NoError(t, fitsOperatingDay(at(21, 0), at(22, 0), opens, closes))

	// An immediate booking before opening hours is rejected even when the
	// point is otherwise free.
	err := fitsOperatingDay(at(7, 30), at(8, 30), opens, closes)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindValidation))

	err = fitsOperatingDay(at(21, 0), at(22, 30), opens, closes)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindValidation))
}
