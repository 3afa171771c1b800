package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatingWindowSameDay(t *testing.T) {
	s := Station{OpensAt: "08:00", ClosesAt: "22:00"}
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	opens, closes, err := s.OperatingWindow(day)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC), opens)
	assert.Equal(t, time.Date(2026, 9, 14, 22, 0, 0, 0, time.UTC), closes)
}

func TestOperatingWindowMidnightClosing(t *testing.T) {
	s := Station{OpensAt: "00:30", ClosesAt: "00:00"}
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	opens, closes, err := s.OperatingWindow(day)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 14, 0, 30, 0, 0, time.UTC), opens)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), closes)
	assert.Equal(t, 23*time.Hour+30*time.Minute, closes.Sub(opens))
}

func TestOperatingWindowClosesBeforeOpens(t *testing.T) {
	s := Station{OpensAt: "20:00", ClosesAt: "04:00"}
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	opens, closes, err := s.OperatingWindow(day)
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, closes.Sub(opens))
	assert.Equal(t, 14, opens.Day())
	assert.Equal(t, 15, closes.Day())
}

func TestOperatingWindowBadClock(t *testing.T) {
	s := Station{OpensAt: "25:99", ClosesAt: "22:00"}
	_, _, err := s.OperatingWindow(time.Now())
	assert.Error(t, err)
}
