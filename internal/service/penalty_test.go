package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcharge/internal/config"
	"evcharge/internal/models"
)

func TestFeeAmountPercentageFees(t *testing.T) {
	rules := config.DefaultRules()

	feeType, amount, err := FeeAmount(Event{Kind: LateCancelled, EstimatedCost: 13.2}, rules)
	require.NoError(t, err)
	assert.Equal(t, models.FeeCancel, feeType)
	assert.InDelta(t, 1.32, amount, 1e-9)

	feeType, amount, err = FeeAmount(Event{Kind: NoShowDetected, EstimatedCost: 13.2}, rules)
	require.NoError(t, err)
	assert.Equal(t, models.FeeNoShow, feeType)
	assert.InDelta(t, 3.96, amount, 1e-9)
}

func TestFeeAmountOvertimePerMinute(t *testing.T) {
	rules := config.DefaultRules()

	feeType, amount, err := FeeAmount(Event{Kind: OvertimeDetected, MinutesOver: 24}, rules)
	require.NoError(t, err)
	assert.Equal(t, models.FeeChargingOvertime, feeType)
	assert.InDelta(t, 12.0, amount, 1e-9)
}

func TestFeeAmountOverstayEscalation(t *testing.T) {
	rules := config.DefaultRules()

	// 75 minutes across 30-minute blocks with a doubling rate:
	// 30*0.25 + 30*0.50 + 15*1.00 = 37.50.
	feeType, amount, err := FeeAmount(Event{Kind: OverstayDetected, MinutesOver: 75}, rules)
	require.NoError(t, err)
	assert.Equal(t, models.FeeParking, feeType)
	assert.InDelta(t, 37.5, amount, 1e-9)
}

func TestFeeAmountOverstayMinimumFloor(t *testing.T) {
	rules := config.DefaultRules()

	// 10 minutes at the base rate is 2.50, below the 5.00 floor.
	_, amount, err := FeeAmount(Event{Kind: OverstayDetected, MinutesOver: 10}, rules)
	require.NoError(t, err)
	assert.InDelta(t, rules.OverstayMinimumFee, amount, 1e-9)
}

func TestFeeAmountOverstayZeroMinutes(t *testing.T) {
	_, amount, err := FeeAmount(Event{Kind: OverstayDetected, MinutesOver: 0}, config.DefaultRules())
	require.NoError(t, err)
	assert.Zero(t, amount)
}

func TestFeeAmountUnknownKind(t *testing.T) {
	_, _, err := FeeAmount(Event{Kind: EventKind(99)}, config.DefaultRules())
	assert.Error(t, err)
}

func TestBanFiresOnlyOnActiveEdge(t *testing.T) {
	threshold := config.DefaultRules().ViolationBanThreshold

	assert.False(t, banOnViolation(threshold-1, threshold, models.AccountActive))
	assert.True(t, banOnViolation(threshold, threshold, models.AccountActive))

	// Further violations while already banned never re-ban, and inactive
	// accounts are not banned either.
	assert.False(t, banOnViolation(threshold+1, threshold, models.AccountBanned))
	assert.False(t, banOnViolation(threshold, threshold, models.AccountInactive))
}
