package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"evcharge/internal/collab"
	"evcharge/internal/config"
	"evcharge/internal/faults"
	"evcharge/internal/repository"
	"evcharge/internal/scheduling"
)

// PointAvailability is the per-point slot listing returned to the caller.
type PointAvailability struct {
	ChargingPointID string                     `json:"charging_point_id"`
	ConnectorType   string                     `json:"connector_type"`
	PowerKW         float64                    `json:"power_kw"`
	Slots           []scheduling.AvailableSlot `json:"slots"`
}

// SlotFinder runs the lock-free discovery phase: generate candidate windows
// per point, drop the occupied ones, price the rest. Results are advisory;
// the booking commit re-checks under the point lock.
type SlotFinder struct {
	stations     *repository.StationRepository
	points       *repository.PointRepository
	reservations *repository.ReservationRepository
	vehicles     collab.VehicleCatalog
	pricing      collab.PricingCatalog
	rules        config.Rules
	logger       *zap.Logger
	now          func() time.Time
}

// NewSlotFinder builds the finder.
func NewSlotFinder(
	stations *repository.StationRepository,
	points *repository.PointRepository,
	reservations *repository.ReservationRepository,
	vehicles collab.VehicleCatalog,
	pricing collab.PricingCatalog,
	rules config.Rules,
	logger *zap.Logger,
) *SlotFinder {
	return &SlotFinder{
		stations:     stations,
		points:       points,
		reservations: reservations,
		vehicles:     vehicles,
		pricing:      pricing,
		rules:        rules,
		logger:       logger,
		now:          time.Now,
	}
}

// FindAvailableSlots returns every free fixed and mini slot per compatible
// charging point of the station on the given day. Idempotent absent
// intervening writes.
func (f *SlotFinder) FindAvailableSlots(ctx context.Context, stationID string, vehicleID uuid.UUID, currentPct, targetPct float64, day time.Time) ([]PointAvailability, error) {
	if currentPct < 0 || currentPct > 100 || targetPct <= 0 || targetPct > 100 {
		return nil, faults.Validation("battery percentages must be within 0..100")
	}
	if targetPct <= currentPct {
		return nil, faults.Validation("target battery %.0f%% must exceed current %.0f%%", targetPct, currentPct)
	}

	station, err := f.stations.GetByID(ctx, stationID)
	if err == repository.ErrNotFound {
		return nil, faults.Validation("unknown station %s", stationID)
	}
	if err != nil {
		return nil, err
	}

	vehicle, err := f.vehicles.Vehicle(ctx, vehicleID)
	if err == repository.ErrNotFound {
		return nil, faults.Validation("unknown vehicle %s", vehicleID)
	}
	if err != nil {
		return nil, err
	}

	opens, closes, err := station.OperatingWindow(day)
	if err != nil {
		return nil, faults.Validation("station %s has malformed operating hours", stationID)
	}

	points, err := f.points.ListByStation(ctx, stationID)
	if err != nil {
		return nil, err
	}

	gen := scheduling.NewGenerator(f.rules.FixedSlot(), f.rules.Buffer(), time.Duration(f.rules.MinGapMinutes)*time.Minute)
	avail := scheduling.NewAvailability(f.rules.Buffer())
	now := f.now()

	var out []PointAvailability
	for i := range points {
		point := &points[i]
		if point.ConnectorType != vehicle.ConnectorType {
			continue
		}

		active, err := f.reservations.ActiveByPoint(ctx, point.ID, opens, closes)
		if err != nil {
			return nil, err
		}

		quote, err := f.pricing.QuoteFor(ctx, point)
		if err != nil {
			return nil, err
		}

		fixedAll := gen.FixedSlots(opens, closes)
		fixed := scheduling.DropElapsed(fixedAll, now)
		mini := scheduling.DropElapsed(gen.GapSlots(opens, closes, fixedAll, active), now)

		out = append(out, PointAvailability{
			ChargingPointID: point.ID,
			ConnectorType:   point.ConnectorType,
			PowerKW:         point.PowerKW,
			Slots:           avail.Candidates(fixed, mini, active, quote.PowerKW, quote.PricePerKWh),
		})
	}
	return out, nil
}
