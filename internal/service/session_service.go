package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"evcharge/internal/collab"
	"evcharge/internal/config"
	"evcharge/internal/faults"
	"evcharge/internal/models"
	"evcharge/internal/redisstore"
	"evcharge/internal/repository"
)

// Progress is the recomputed state of a charging run at one instant.
type Progress struct {
	EnergyKWh       float64
	Cost            float64
	BatteryPct      float64
	TargetReached   bool
	TargetReachedAt time.Time
}

// ComputeProgress derives energy, cost and battery level from elapsed time
// assuming continuous draw at rated power. Once the target battery is
// reached the figures freeze at the target-reached instant.
func ComputeProgress(start, now time.Time, startedPct, expectedPct, capacityKWh, powerKW, pricePerKWh float64) Progress {
	hours := now.Sub(start).Hours()
	if hours < 0 {
		hours = 0
	}
	energy := powerKW * hours
	battery := startedPct
	if capacityKWh > 0 {
		battery = startedPct + energy/capacityKWh*100.0
	}

	p := Progress{EnergyKWh: energy, BatteryPct: battery}
	if battery >= expectedPct {
		targetEnergy := (expectedPct - startedPct) / 100.0 * capacityKWh
		p.EnergyKWh = targetEnergy
		p.BatteryPct = expectedPct
		p.TargetReached = true
		if powerKW > 0 {
			p.TargetReachedAt = start.Add(time.Duration(targetEnergy / powerKW * float64(time.Hour)))
		} else {
			p.TargetReachedAt = now
		}
	}
	p.Cost = p.EnergyKWh * pricePerKWh
	return p
}

// MonitorResult is the poll response for a running session.
type MonitorResult struct {
	SessionID    uuid.UUID            `json:"session_id"`
	Status       models.SessionStatus `json:"status"`
	BatteryPct   float64              `json:"battery_pct"`
	EnergyKWh    float64              `json:"energy_kwh"`
	Cost         float64              `json:"cost"`
	ElapsedMin   int                  `json:"elapsed_min"`
	RemainingMin int                  `json:"remaining_min"`
}

// SessionService runs the CHARGING → PARKING → COMPLETED lifecycle.
// Monitoring is client-driven polling; there is no push channel.
type SessionService struct {
	db           *sql.DB
	sessions     *repository.SessionRepository
	reservations *repository.ReservationRepository
	points       *repository.PointRepository
	stations     *repository.StationRepository
	vehicles     collab.VehicleCatalog
	pricing      collab.PricingCatalog
	notify       collab.NotificationSink
	penalties    *PenaltyEngine
	store        *redisstore.Store
	rules        config.Rules
	logger       *zap.Logger
	now          func() time.Time
}

// NewSessionService builds the service. store may be nil when redis is
// unavailable; caching is then skipped.
func NewSessionService(
	db *sql.DB,
	sessions *repository.SessionRepository,
	reservations *repository.ReservationRepository,
	points *repository.PointRepository,
	stations *repository.StationRepository,
	vehicles collab.VehicleCatalog,
	pricing collab.PricingCatalog,
	notify collab.NotificationSink,
	penalties *PenaltyEngine,
	store *redisstore.Store,
	rules config.Rules,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		db:           db,
		sessions:     sessions,
		reservations: reservations,
		points:       points,
		stations:     stations,
		vehicles:     vehicles,
		pricing:      pricing,
		notify:       notify,
		penalties:    penalties,
		store:        store,
		rules:        rules,
		logger:       logger,
		now:          time.Now,
	}
}

// Start opens a session against a BOOKED reservation. The caller's device
// must be within the configured radius of the station.
func (s *SessionService) Start(ctx context.Context, userID int64, reservationID, vehicleID uuid.UUID, lat, lon float64) (*models.Session, error) {
	now := s.now()

	reservation, err := s.reservations.GetByID(ctx, reservationID)
	if err == repository.ErrNotFound {
		return nil, faults.Validation("unknown reservation %s", reservationID)
	}
	if err != nil {
		return nil, err
	}
	if reservation.UserID != userID {
		return nil, faults.Authorization("reservation does not belong to caller")
	}
	if reservation.VehicleID != vehicleID {
		return nil, faults.Validation("vehicle does not match the reservation")
	}
	if reservation.Status == models.ReservationCharging {
		// Book-now reservations open their session at booking time;
		// answer a repeated start with that session.
		return s.sessions.GetByReservation(ctx, reservationID)
	}
	if now.Before(reservation.StartTime.Add(-s.rules.PastGrace())) {
		return nil, faults.State("reservation has not started yet")
	}

	point, err := s.points.GetByID(ctx, reservation.ChargingPointID)
	if err != nil {
		return nil, err
	}
	station, err := s.stations.GetByID(ctx, point.StationID)
	if err != nil {
		return nil, err
	}
	if d := distanceMeters(lat, lon, station.Latitude, station.Longitude); d > s.rules.StartRadiusMeters {
		return nil, faults.Validation("device is %.0fm from the station, beyond the %.0fm start radius", d, s.rules.StartRadiusMeters)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	locked, err := s.points.LockTx(ctx, tx, point.ID)
	if err != nil {
		return nil, err
	}
	if locked.Status != models.PointAvailable {
		return nil, faults.State("charging point is %s", locked.Status)
	}
	fresh, err := s.reservations.LockTx(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if fresh.Status != models.ReservationBooked {
		return nil, faults.State("reservation is %s and cannot start", fresh.Status)
	}

	if err := s.points.SetStatusTx(ctx, tx, point.ID, models.PointOccupied); err != nil {
		return nil, err
	}
	if err := s.reservations.SetStatusTx(ctx, tx, reservationID, models.ReservationCharging); err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:            uuid.New(),
		ReservationID: reservationID,
		StartTime:     now,
		Status:        models.SessionCharging,
	}
	if err := s.sessions.CreateTx(ctx, tx, session); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cacheSnapshot(ctx, session, reservation, reservation.StartedBatteryPct)
	s.logger.Info("session started",
		zap.String("session_id", session.ID.String()),
		zap.String("reservation_id", reservationID.String()),
	)
	return session, nil
}

// minutesOverdue returns whole minutes elapsed past the deadline, zero when
// the deadline has not passed.
func minutesOverdue(deadline, now time.Time) int {
	if !now.After(deadline) {
		return 0
	}
	return int(now.Sub(deadline) / time.Minute)
}

// Monitor recomputes the session's progress for a client poll. Reaching the
// target battery flips the session to PARKING; charging past the expected
// completion time warns the owner. The overtime fee itself is assessed at
// session end, when the full overrun is known.
func (s *SessionService) Monitor(ctx context.Context, sessionID uuid.UUID, userID int64) (*MonitorResult, error) {
	now := s.now()

	session, reservation, err := s.loadOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionCompleted {
		return nil, faults.State("session is completed")
	}

	vehicle, err := s.vehicles.Vehicle(ctx, reservation.VehicleID)
	if err != nil {
		return nil, err
	}
	point, err := s.points.GetByID(ctx, reservation.ChargingPointID)
	if err != nil {
		return nil, err
	}
	quote, err := s.pricing.QuoteFor(ctx, point)
	if err != nil {
		return nil, err
	}

	result := &MonitorResult{
		SessionID:  session.ID,
		Status:     session.Status,
		ElapsedMin: int(now.Sub(session.StartTime) / time.Minute),
	}
	if remaining := reservation.EndTime.Sub(now); remaining > 0 {
		result.RemainingMin = int(remaining / time.Minute)
	}

	if session.Status == models.SessionParking {
		result.EnergyKWh = session.PowerConsumedKWh
		result.Cost = session.BaseCost
		result.BatteryPct = reservation.ExpectedBatteryPct
		s.cacheSnapshot(ctx, session, reservation, result.BatteryPct)
		return result, nil
	}

	prog := ComputeProgress(session.StartTime, now,
		reservation.StartedBatteryPct, reservation.ExpectedBatteryPct,
		vehicle.BatteryCapacityKWh, quote.PowerKW, quote.PricePerKWh)
	result.EnergyKWh = prog.EnergyKWh
	result.Cost = prog.Cost
	result.BatteryPct = prog.BatteryPct

	if prog.TargetReached {
		if err := s.markParking(ctx, session, prog); err != nil {
			return nil, err
		}
		result.Status = models.SessionParking
	} else {
		if err := s.sessions.UpdateProgress(ctx, session.ID, prog.EnergyKWh, prog.Cost); err != nil {
			return nil, err
		}
		if minutesOverdue(reservation.EndTime, now) > 0 {
			s.notify.Notify(ctx, reservation.UserID, "charging overtime",
				"session "+session.ID.String()+" ran past its expected completion")
		}
	}

	session.PowerConsumedKWh = result.EnergyKWh
	session.BaseCost = result.Cost
	session.Status = result.Status
	s.cacheSnapshot(ctx, session, reservation, result.BatteryPct)
	return result, nil
}

// End finalizes the session at the caller's request.
func (s *SessionService) End(ctx context.Context, sessionID uuid.UUID, userID int64) (*models.Session, error) {
	return s.finalize(ctx, sessionID, &userID)
}

// ForceEnd finalizes the session administratively, without an ownership
// check. It is reachable only through the internal route group, never from
// the user-facing surface.
func (s *SessionService) ForceEnd(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	s.logger.Info("force-ending session", zap.String("session_id", sessionID.String()))
	return s.finalize(ctx, sessionID, nil)
}

func (s *SessionService) finalize(ctx context.Context, sessionID uuid.UUID, owner *int64) (*models.Session, error) {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	session, err := s.sessions.LockTx(ctx, tx, sessionID)
	if err == repository.ErrNotFound {
		return nil, faults.Validation("unknown session %s", sessionID)
	}
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionCompleted {
		return nil, faults.State("session is already completed")
	}

	reservation, err := s.reservations.LockTx(ctx, tx, session.ReservationID)
	if err != nil {
		return nil, err
	}
	if owner != nil && reservation.UserID != *owner {
		return nil, faults.Authorization("session does not belong to caller")
	}

	energy := session.PowerConsumedKWh
	cost := session.BaseCost
	if session.Status == models.SessionCharging {
		vehicle, err := s.vehicles.Vehicle(ctx, reservation.VehicleID)
		if err != nil {
			return nil, err
		}
		point, err := s.points.GetByID(ctx, reservation.ChargingPointID)
		if err != nil {
			return nil, err
		}
		quote, err := s.pricing.QuoteFor(ctx, point)
		if err != nil {
			return nil, err
		}
		prog := ComputeProgress(session.StartTime, now,
			reservation.StartedBatteryPct, reservation.ExpectedBatteryPct,
			vehicle.BatteryCapacityKWh, quote.PowerKW, quote.PricePerKWh)
		energy = prog.EnergyKWh
		cost = prog.Cost

		if minutesOver := minutesOverdue(reservation.EndTime, now); minutesOver > 0 {
			if _, err := s.penalties.Apply(ctx, tx, Event{
				Kind:        OvertimeDetected,
				UserID:      reservation.UserID,
				SessionID:   &session.ID,
				MinutesOver: minutesOver,
			}); err != nil {
				return nil, err
			}
		}
	}

	if session.ParkingSince != nil {
		grace := time.Duration(s.rules.OverstayGraceMin) * time.Minute
		if minutesOver := minutesOverdue(session.ParkingSince.Add(grace), now); minutesOver > 0 {
			if _, err := s.penalties.Apply(ctx, tx, Event{
				Kind:        OverstayDetected,
				UserID:      reservation.UserID,
				SessionID:   &session.ID,
				MinutesOver: minutesOver,
			}); err != nil {
				return nil, err
			}
		}
	}

	if err := s.sessions.FinishTx(ctx, tx, session.ID, now, energy, cost); err != nil {
		return nil, err
	}
	if err := s.reservations.SetStatusTx(ctx, tx, reservation.ID, models.ReservationCompleted); err != nil {
		return nil, err
	}
	if _, err := s.points.LockTx(ctx, tx, reservation.ChargingPointID); err != nil {
		return nil, err
	}
	if err := s.points.SetStatusTx(ctx, tx, reservation.ChargingPointID, models.PointAvailable); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	session.Status = models.SessionCompleted
	session.EndTime = &now
	session.PowerConsumedKWh = energy
	session.BaseCost = cost

	if s.store != nil {
		if err := s.store.Delete(ctx, session.ID.String()); err != nil {
			s.logger.Warn("failed to evict session snapshot", zap.Error(err))
		}
	}
	s.notify.Notify(ctx, reservation.UserID, "charging complete",
		"session "+session.ID.String()+" finished")
	s.logger.Info("session completed",
		zap.String("session_id", session.ID.String()),
		zap.Float64("energy_kwh", energy),
		zap.Float64("cost", cost),
	)
	return session, nil
}

func (s *SessionService) markParking(ctx context.Context, session *models.Session, prog Progress) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fresh, err := s.sessions.LockTx(ctx, tx, session.ID)
	if err != nil {
		return err
	}
	if fresh.Status != models.SessionCharging {
		// Another poll already flipped it; nothing to do.
		return nil
	}
	if err := s.sessions.MarkParkingTx(ctx, tx, session.ID, prog.TargetReachedAt, prog.EnergyKWh, prog.Cost); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	since := prog.TargetReachedAt
	session.ParkingSince = &since
	return nil
}

func (s *SessionService) loadOwned(ctx context.Context, sessionID uuid.UUID, userID int64) (*models.Session, *models.Reservation, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err == repository.ErrNotFound {
		return nil, nil, faults.Validation("unknown session %s", sessionID)
	}
	if err != nil {
		return nil, nil, err
	}
	reservation, err := s.reservations.GetByID(ctx, session.ReservationID)
	if err != nil {
		return nil, nil, err
	}
	if reservation.UserID != userID {
		return nil, nil, faults.Authorization("session does not belong to caller")
	}
	return session, reservation, nil
}

func (s *SessionService) cacheSnapshot(ctx context.Context, session *models.Session, reservation *models.Reservation, batteryPct float64) {
	if s.store == nil {
		return
	}
	err := s.store.Save(ctx, redisstore.Snapshot{
		SessionID:     session.ID.String(),
		ReservationID: reservation.ID.String(),
		PointID:       reservation.ChargingPointID,
		UserID:        reservation.UserID,
		Status:        string(session.Status),
		BatteryPct:    batteryPct,
		EnergyKWh:     session.PowerConsumedKWh,
		Cost:          session.BaseCost,
		UpdatedAt:     s.now(),
	})
	if err != nil {
		s.logger.Warn("failed to cache session snapshot", zap.Error(err))
	}
}

// ActiveSessions lists the cached snapshots of running sessions.
func (s *SessionService) ActiveSessions(ctx context.Context) ([]redisstore.Snapshot, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.List(ctx)
}
