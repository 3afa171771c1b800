package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotIDRoundTrip(t *testing.T) {
	slot := TimeSlot{Start: day(8, 30), End: day(10, 30), Kind: KindFixed}
	require.Equal(t, "FIXED_08:30_10:30", slot.ID())

	parsed, err := ParseSlotID(slot.ID(), day(0, 0))
	require.NoError(t, err)
	assert.Equal(t, slot, parsed)
}

func TestParseSlotIDMidnightEndRollsOver(t *testing.T) {
	parsed, err := ParseSlotID("MINI_22:45_00:00", day(0, 0))
	require.NoError(t, err)
	assert.Equal(t, day(22, 45), parsed.Start)
	assert.Equal(t, day(0, 0).AddDate(0, 0, 1), parsed.End)
	assert.Equal(t, 75, parsed.Minutes())
}

func TestParseSlotIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{
		"",
		"FIXED_08:30",
		"FIXED_08:30_10:30_extra",
		"TURBO_08:30_10:30",
		"FIXED_8am_10am",
		"FIXED_25:00_26:00",
	} {
		_, err := ParseSlotID(id, day(0, 0))
		assert.Error(t, err, "id %q should be rejected", id)
	}
}

func TestOverlapsTouchingIsFalse(t *testing.T) {
	slot := TimeSlot{Start: day(8, 0), End: day(10, 0)}
	assert.False(t, slot.Overlaps(day(10, 0), day(11, 0)))
	assert.False(t, slot.Overlaps(day(7, 0), day(8, 0)))
	assert.True(t, slot.Overlaps(day(9, 59), day(10, 30)))
}

func TestSlotMinutes(t *testing.T) {
	slot := TimeSlot{Start: day(9, 15), End: day(10, 0)}
	assert.Equal(t, 45, slot.Minutes())
	assert.Equal(t, 45*time.Minute, slot.Duration())
}
