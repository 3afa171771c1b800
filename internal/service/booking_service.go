package service

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"evcharge/internal/collab"
	"evcharge/internal/config"
	"evcharge/internal/faults"
	"evcharge/internal/models"
	"evcharge/internal/repository"
	"evcharge/internal/scheduling"
)

// ConfirmInput carries a reservation request. SlotIDs is empty for book-now
// requests, whose end time is derived from battery need instead.
type ConfirmInput struct {
	UserID            int64
	VehicleID         uuid.UUID
	ChargingPointID   string
	Start             time.Time
	End               time.Time
	SlotIDs           []string
	CurrentBatteryPct float64
	TargetBatteryPct  float64
}

// CancelResult is the canceled reservation plus the late fee, if one applied.
type CancelResult struct {
	Reservation *models.Reservation `json:"reservation"`
	Fee         *models.Fee         `json:"fee,omitempty"`
}

// BookingService validates and commits reservations. Discovery is lock-free;
// the commit acquires the charging point row lock, re-checks overlap against
// the latest data and only then persists: optimistic read, pessimistic write.
type BookingService struct {
	db           *sql.DB
	reservations *repository.ReservationRepository
	points       *repository.PointRepository
	sessions     *repository.SessionRepository
	stations     *repository.StationRepository
	users        collab.UserDirectory
	vehicles     collab.VehicleCatalog
	pricing      collab.PricingCatalog
	policy       collab.SubscriptionPolicy
	notify       collab.NotificationSink
	penalties    *PenaltyEngine
	rules        config.Rules
	logger       *zap.Logger
	now          func() time.Time
}

// NewBookingService builds the service.
func NewBookingService(
	db *sql.DB,
	reservations *repository.ReservationRepository,
	points *repository.PointRepository,
	sessions *repository.SessionRepository,
	stations *repository.StationRepository,
	users collab.UserDirectory,
	vehicles collab.VehicleCatalog,
	pricing collab.PricingCatalog,
	policy collab.SubscriptionPolicy,
	notify collab.NotificationSink,
	penalties *PenaltyEngine,
	rules config.Rules,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		db:           db,
		reservations: reservations,
		points:       points,
		sessions:     sessions,
		stations:     stations,
		users:        users,
		vehicles:     vehicles,
		pricing:      pricing,
		policy:       policy,
		notify:       notify,
		penalties:    penalties,
		rules:        rules,
		logger:       logger,
		now:          time.Now,
	}
}

// ChargeMinutes derives the required charging time for a battery delta,
// inflated by the configured safety percentage and rounded up to a whole
// minute.
func ChargeMinutes(currentPct, targetPct, capacityKWh, powerKW float64, inflationPct int) int {
	neededKWh := (targetPct - currentPct) / 100.0 * capacityKWh
	hours := neededKWh / powerKW
	minutes := hours * 60.0 * (1.0 + float64(inflationPct)/100.0)
	return int(math.Ceil(minutes))
}

// ValidateContiguous checks that the chosen slots, sorted by start, are
// pairwise adjacent: a gap of exactly zero or exactly the buffer. It returns
// the slots in order.
func ValidateContiguous(slots []scheduling.TimeSlot, buffer time.Duration) ([]scheduling.TimeSlot, error) {
	if len(slots) == 0 {
		return nil, faults.Validation("at least one slot id is required")
	}
	sorted := make([]scheduling.TimeSlot, len(slots))
	copy(sorted, slots)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	for i := 0; i < len(sorted)-1; i++ {
		gap := sorted[i+1].Start.Sub(sorted[i].End)
		if gap != 0 && gap != buffer {
			return nil, faults.Validation("slots %s and %s are not contiguous", sorted[i].ID(), sorted[i+1].ID())
		}
	}
	return sorted, nil
}

// fitsOperatingDay checks that an immediate session stays inside the
// station's operating window for the day.
func fitsOperatingDay(start, end, opens, closes time.Time) error {
	if start.Before(opens) {
		return faults.Validation("station does not open until %s", opens.Format("15:04"))
	}
	if end.After(closes) {
		return faults.Validation("required charge runs past closing time")
	}
	return nil
}

// lateCancel reports whether a cancellation at now falls inside the penalty
// window before the reservation start.
func lateCancel(start, now time.Time, threshold time.Duration) bool {
	return start.Sub(now) < threshold
}

// noShowEligible reports whether the sweep should act: only reservations
// still BOOKED past their grace deadline are actionable, which also makes a
// repeated sweep a no-op.
func noShowEligible(status models.ReservationStatus, start, now time.Time, grace time.Duration) bool {
	return status == models.ReservationBooked && !now.Before(start.Add(grace))
}

// Confirm books the requested window. Requests starting within the book-now
// window are committed as immediate sessions with a derived end time; all
// others go through slot-id validation.
func (s *BookingService) Confirm(ctx context.Context, in ConfirmInput) (*models.Reservation, error) {
	now := s.now()

	account, err := s.users.Standing(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if account.Status == models.AccountBanned {
		return nil, faults.Authorization("account is banned")
	}
	if account.Status == models.AccountInactive {
		return nil, faults.Authorization("account is inactive")
	}

	vehicle, err := s.vehicles.Vehicle(ctx, in.VehicleID)
	if err == repository.ErrNotFound {
		return nil, faults.Validation("unknown vehicle %s", in.VehicleID)
	}
	if err != nil {
		return nil, err
	}
	if vehicle.UserID != in.UserID {
		return nil, faults.Authorization("vehicle does not belong to caller")
	}

	point, err := s.points.GetByID(ctx, in.ChargingPointID)
	if err == repository.ErrNotFound {
		return nil, faults.Validation("unknown charging point %s", in.ChargingPointID)
	}
	if err != nil {
		return nil, err
	}
	if point.ConnectorType != vehicle.ConnectorType {
		return nil, faults.Validation("connector %s does not match vehicle connector %s", point.ConnectorType, vehicle.ConnectorType)
	}

	station, err := s.stations.GetByID(ctx, point.StationID)
	if err != nil {
		return nil, err
	}
	opens, closes, err := station.OperatingWindow(in.Start)
	if err != nil {
		return nil, faults.Validation("station %s has malformed operating hours", station.ID)
	}

	policy, err := s.policy.PolicyFor(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	activeCount, err := s.reservations.CountActiveByUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if activeCount >= policy.MaxActiveReservations {
		return nil, faults.Validation("active reservation limit %d reached", policy.MaxActiveReservations)
	}
	if in.Start.After(now.AddDate(0, 0, policy.AdvanceBookingDays)) {
		return nil, faults.Validation("start exceeds the %d-day advance booking window", policy.AdvanceBookingDays)
	}
	if in.Start.Before(now.Add(-s.rules.PastGrace())) {
		return nil, faults.Validation("start time is in the past")
	}

	bookNow := !in.Start.After(now.Add(s.rules.BookNowWindow()))

	var start, end time.Time
	if bookNow {
		minutes := ChargeMinutes(in.CurrentBatteryPct, in.TargetBatteryPct, vehicle.BatteryCapacityKWh, point.PowerKW, s.rules.ChargeInflationPct)
		if minutes <= 0 {
			return nil, faults.Validation("target battery %.0f%% must exceed current %.0f%%", in.TargetBatteryPct, in.CurrentBatteryPct)
		}
		start = now
		end = now.Add(time.Duration(minutes) * time.Minute)
		if err := fitsOperatingDay(start, end, opens, closes); err != nil {
			return nil, err
		}
	} else {
		sorted, err := s.parseSlots(in, opens, closes)
		if err != nil {
			return nil, err
		}
		start = sorted[0].Start
		end = sorted[len(sorted)-1].End

		// Lock-free pre-check; the commit repeats this under the lock.
		active, err := s.reservations.ActiveByPoint(ctx, point.ID, opens, closes)
		if err != nil {
			return nil, err
		}
		avail := scheduling.NewAvailability(s.rules.Buffer())
		for _, slot := range sorted {
			if hit, ok := avail.Collision(slot, active); ok {
				return nil, faults.Conflict(hit.StartTime, "slot %s is no longer free", slot.ID())
			}
		}
	}

	reservation := &models.Reservation{
		ID:                 uuid.New(),
		UserID:             in.UserID,
		VehicleID:          in.VehicleID,
		ChargingPointID:    point.ID,
		StartTime:          start,
		EndTime:            end,
		Status:             models.ReservationBooked,
		StartedBatteryPct:  in.CurrentBatteryPct,
		ExpectedBatteryPct: in.TargetBatteryPct,
	}

	if err := s.commit(ctx, reservation, bookNow); err != nil {
		return nil, err
	}

	s.notify.Notify(ctx, in.UserID, "reservation confirmed",
		"charging point "+point.ID+" reserved from "+start.Format(time.RFC3339))
	s.logger.Info("reservation committed",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("point_id", point.ID),
		zap.Bool("book_now", bookNow),
	)
	return reservation, nil
}

func (s *BookingService) parseSlots(in ConfirmInput, opens, closes time.Time) ([]scheduling.TimeSlot, error) {
	if len(in.SlotIDs) == 0 {
		return nil, faults.Validation("slot ids are required for scheduled bookings")
	}
	slots := make([]scheduling.TimeSlot, 0, len(in.SlotIDs))
	for _, id := range in.SlotIDs {
		slot, err := scheduling.ParseSlotID(id, in.Start)
		if err != nil {
			return nil, faults.Validation("%v", err)
		}
		if slot.Start.Before(opens) || slot.End.After(closes) {
			return nil, faults.Validation("slot %s is outside operating hours", id)
		}
		slots = append(slots, slot)
	}

	sorted, err := ValidateContiguous(slots, s.rules.Buffer())
	if err != nil {
		return nil, err
	}
	if !sorted[0].Start.Equal(in.Start) || !sorted[len(sorted)-1].End.Equal(in.End) {
		return nil, faults.Validation("requested window does not match the chosen slots")
	}
	return sorted, nil
}

// commit is the single critical section: point row lock, overlap re-check
// against the latest data, then the durable insert. Book-now additionally
// opens the session and occupies the point in the same transaction.
func (s *BookingService) commit(ctx context.Context, reservation *models.Reservation, bookNow bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	point, err := s.points.LockTx(ctx, tx, reservation.ChargingPointID)
	if err != nil {
		return err
	}

	padded := s.rules.Buffer()
	active, err := s.reservations.ActiveByPointTx(ctx, tx, point.ID,
		reservation.StartTime.Add(-2*padded), reservation.EndTime.Add(2*padded))
	if err != nil {
		return err
	}
	avail := scheduling.NewAvailability(padded)
	if hit, ok := avail.CollisionWindow(reservation.StartTime, reservation.EndTime, active); ok {
		return faults.Conflict(hit.StartTime, "window is no longer free")
	}

	if bookNow {
		charging, err := s.reservations.VehicleChargingTx(ctx, tx, reservation.VehicleID)
		if err != nil {
			return err
		}
		if charging {
			return faults.State("vehicle is already charging elsewhere")
		}
		reservation.Status = models.ReservationCharging
	}

	if err := s.reservations.CreateTx(ctx, tx, reservation); err != nil {
		return err
	}

	if bookNow {
		session := &models.Session{
			ID:            uuid.New(),
			ReservationID: reservation.ID,
			StartTime:     reservation.StartTime,
			Status:        models.SessionCharging,
		}
		if err := s.sessions.CreateTx(ctx, tx, session); err != nil {
			return err
		}
		if err := s.points.SetStatusTx(ctx, tx, point.ID, models.PointOccupied); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Cancel withdraws a BOOKED reservation. Cancelling inside the late window
// applies the cancellation fee in the same transaction as the state flip.
func (s *BookingService) Cancel(ctx context.Context, reservationID uuid.UUID, userID int64, reason string) (*CancelResult, error) {
	now := s.now()

	policy, err := s.policy.PolicyFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	lateThreshold := time.Duration(policy.FreeCancelMinutes) * time.Minute
	if policy.FreeCancelMinutes <= 0 {
		lateThreshold = time.Duration(s.rules.LateCancelMinutes) * time.Minute
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	reservation, err := s.reservations.LockTx(ctx, tx, reservationID)
	if err == repository.ErrNotFound {
		return nil, faults.Validation("unknown reservation %s", reservationID)
	}
	if err != nil {
		return nil, err
	}
	if reservation.UserID != userID {
		return nil, faults.Authorization("reservation does not belong to caller")
	}
	if reservation.Status != models.ReservationBooked {
		return nil, faults.State("reservation is %s and cannot be canceled", reservation.Status)
	}

	if err := s.reservations.SetStatusTx(ctx, tx, reservation.ID, models.ReservationCanceled); err != nil {
		return nil, err
	}
	reservation.Status = models.ReservationCanceled

	var fee *models.Fee
	if lateCancel(reservation.StartTime, now, lateThreshold) {
		estimated, err := s.estimatedCost(ctx, reservation)
		if err != nil {
			return nil, err
		}
		fee, err = s.penalties.Apply(ctx, tx, Event{
			Kind:          LateCancelled,
			UserID:        userID,
			ReservationID: &reservation.ID,
			EstimatedCost: estimated,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("reservation canceled",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("reason", reason),
		zap.Bool("late_fee", fee != nil),
	)
	return &CancelResult{Reservation: reservation, Fee: fee}, nil
}

// NoShowSweep cancels a reservation still BOOKED past its grace period and
// applies the no-show fee. Idempotent: an order no longer BOOKED, or not yet
// past grace, is a silent no-op. Invoked by an external scheduler.
func (s *BookingService) NoShowSweep(ctx context.Context, reservationID uuid.UUID) error {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	reservation, err := s.reservations.LockTx(ctx, tx, reservationID)
	if err == repository.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	grace := time.Duration(s.rules.NoShowGraceMinutes) * time.Minute
	if !noShowEligible(reservation.Status, reservation.StartTime, now, grace) {
		return nil
	}

	if err := s.reservations.SetStatusTx(ctx, tx, reservation.ID, models.ReservationCanceled); err != nil {
		return err
	}

	estimated, err := s.estimatedCost(ctx, reservation)
	if err != nil {
		return err
	}
	if _, err := s.penalties.Apply(ctx, tx, Event{
		Kind:          NoShowDetected,
		UserID:        reservation.UserID,
		ReservationID: &reservation.ID,
		EstimatedCost: estimated,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.notify.Notify(ctx, reservation.UserID, "reservation canceled",
		"reservation "+reservation.ID.String()+" was canceled after a no-show")
	s.logger.Info("no-show swept", zap.String("reservation_id", reservation.ID.String()))
	return nil
}

// ListReservations returns the caller's most recent reservations.
func (s *BookingService) ListReservations(ctx context.Context, userID int64, limit int) ([]models.Reservation, error) {
	return s.reservations.ListByUser(ctx, userID, limit)
}

func (s *BookingService) estimatedCost(ctx context.Context, reservation *models.Reservation) (float64, error) {
	point, err := s.points.GetByID(ctx, reservation.ChargingPointID)
	if err != nil {
		return 0, err
	}
	quote, err := s.pricing.QuoteFor(ctx, point)
	if err != nil {
		return 0, err
	}
	hours := reservation.Duration().Hours()
	return quote.PowerKW * hours * quote.PricePerKWh, nil
}
