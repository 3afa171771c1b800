package models

import "time"

// Station describes a charging location and its daily operating window.
// OpensAt/ClosesAt are HH:MM wall-clock strings; a ClosesAt of "00:00"
// means midnight of the following day.
type Station struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Latitude  float64   `db:"latitude" json:"latitude"`
	Longitude float64   `db:"longitude" json:"longitude"`
	OpensAt   string    `db:"opens_at" json:"opens_at"`
	ClosesAt  string    `db:"closes_at" json:"closes_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OperatingWindow resolves the station's opening and closing instants for the
// given calendar day. A closing time of midnight resolves to 00:00 of the next
// day so the last slot of the day can end exactly at midnight.
func (s *Station) OperatingWindow(day time.Time) (time.Time, time.Time, error) {
	opens, err := atClock(day, s.OpensAt)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	closes, err := atClock(day, s.ClosesAt)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !closes.After(opens) {
		closes = closes.AddDate(0, 0, 1)
	}
	return opens, closes, nil
}

func atClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
