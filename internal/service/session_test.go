package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeProgressMidCharge(t *testing.T) {
	start := at(10, 0)
	// 30 minutes at 20 kW on a 40 kWh pack: 10 kWh, +25 points.
	p := ComputeProgress(start, at(10, 30), 20, 80, 40, 20, 0.30)

	assert.False(t, p.TargetReached)
	assert.InDelta(t, 10.0, p.EnergyKWh, 1e-9)
	assert.InDelta(t, 45.0, p.BatteryPct, 1e-9)
	assert.InDelta(t, 3.0, p.Cost, 1e-9)
}

func TestComputeProgressFreezesAtTarget(t *testing.T) {
	start := at(10, 0)
	// 20 → 80 on 40 kWh is 24 kWh; at 20 kW the target lands at 11:12.
	p := ComputeProgress(start, at(13, 0), 20, 80, 40, 20, 0.30)

	require.True(t, p.TargetReached)
	assert.InDelta(t, 24.0, p.EnergyKWh, 1e-9)
	assert.InDelta(t, 80.0, p.BatteryPct, 1e-9)
	assert.InDelta(t, 7.2, p.Cost, 1e-9)
	assert.Equal(t, at(11, 12), p.TargetReachedAt)

	// A later poll returns the same frozen figures.
	later := ComputeProgress(start, at(15, 0), 20, 80, 40, 20, 0.30)
	assert.Equal(t, p, later)
}

func TestComputeProgressClockBeforeStart(t *testing.T) {
	p := ComputeProgress(at(10, 0), at(9, 0), 20, 80, 40, 20, 0.30)
	assert.Zero(t, p.EnergyKWh)
	assert.InDelta(t, 20.0, p.BatteryPct, 1e-9)
}

func TestComputeProgressZeroCapacity(t *testing.T) {
	p := ComputeProgress(at(10, 0), at(12, 0), 20, 80, 0, 20, 0.30)
	// Battery cannot be derived, so it stays at the starting level and the
	// session keeps billing delivered energy.
	assert.False(t, p.TargetReached)
	assert.InDelta(t, 20.0, p.BatteryPct, 1e-9)
	assert.InDelta(t, 40.0, p.EnergyKWh, 1e-9)
	assert.InDelta(t, 12.0, p.Cost, 1e-9)
}

func TestComputeProgressExact(t *testing.T) {
	// Poll exactly at the target instant.
	p := ComputeProgress(at(10, 0), at(11, 12), 20, 80, 40, 20, 0.30)
	assert.True(t, p.TargetReached)
	assert.Equal(t, time.Duration(0), p.TargetReachedAt.Sub(at(11, 12)))
}

func TestMinutesOverdue(t *testing.T) {
	deadline := at(12, 0)

	assert.Zero(t, minutesOverdue(deadline, at(11, 59)))
	assert.Zero(t, minutesOverdue(deadline, at(12, 0)))
	assert.Equal(t, 24, minutesOverdue(deadline, at(12, 24)))

	// The overrun keeps accruing until the session actually ends; the fee
	// is assessed from this final figure, not from an earlier poll.
	assert.Equal(t, 90, minutesOverdue(deadline, at(13, 30)))
}
