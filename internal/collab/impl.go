package collab

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"evcharge/internal/models"
	"evcharge/internal/repository"
)

// AccountDirectory serves account standing from the local accounts table.
type AccountDirectory struct {
	accounts *repository.AccountRepository
}

// NewAccountDirectory returns the repository-backed directory.
func NewAccountDirectory(accounts *repository.AccountRepository) *AccountDirectory {
	return &AccountDirectory{accounts: accounts}
}

// Standing returns the user's account, defaulting to a clean ACTIVE record
// for users never penalized before.
func (d *AccountDirectory) Standing(ctx context.Context, userID int64) (*models.Account, error) {
	account, err := d.accounts.GetByID(ctx, userID)
	if err == repository.ErrNotFound {
		return &models.Account{ID: userID, Status: models.AccountActive}, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// RepoVehicleCatalog serves vehicles from the local vehicles table.
type RepoVehicleCatalog struct {
	vehicles *repository.VehicleRepository
}

// NewRepoVehicleCatalog returns the repository-backed catalog.
func NewRepoVehicleCatalog(vehicles *repository.VehicleRepository) *RepoVehicleCatalog {
	return &RepoVehicleCatalog{vehicles: vehicles}
}

// Vehicle looks up one vehicle.
func (c *RepoVehicleCatalog) Vehicle(ctx context.Context, vehicleID uuid.UUID) (*models.Vehicle, error) {
	return c.vehicles.GetByID(ctx, vehicleID)
}

// TariffPricing combines the point's rated power with the active tariff.
type TariffPricing struct {
	tariffs *repository.TariffRepository
}

// NewTariffPricing returns the tariff-table-backed catalog.
func NewTariffPricing(tariffs *repository.TariffRepository) *TariffPricing {
	return &TariffPricing{tariffs: tariffs}
}

// QuoteFor resolves the pricing inputs for one point.
func (p *TariffPricing) QuoteFor(ctx context.Context, point *models.ChargingPoint) (Quote, error) {
	tariff, err := p.tariffs.GetActive(ctx)
	if err != nil {
		return Quote{}, err
	}
	price := tariff.PricePerKWh
	if price <= 0 {
		price = 1
	}
	return Quote{PowerKW: point.PowerKW, PricePerKWh: price}, nil
}

// StaticPolicy grants every user the same configured allowance. A real
// subscription service would differentiate tiers behind the same interface.
type StaticPolicy struct {
	policy Policy
}

// NewStaticPolicy returns the config-backed policy source.
func NewStaticPolicy(policy Policy) *StaticPolicy {
	return &StaticPolicy{policy: policy}
}

// PolicyFor returns the shared allowance.
func (s *StaticPolicy) PolicyFor(ctx context.Context, userID int64) (Policy, error) {
	return s.policy, nil
}

// LogSink records notifications in the service log. Swappable for a real
// delivery channel without touching the core.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns the zap-backed sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Notify logs the notification.
func (s *LogSink) Notify(ctx context.Context, userID int64, subject, message string) {
	s.logger.Info("notification",
		zap.Int64("user_id", userID),
		zap.String("subject", subject),
		zap.String("message", message),
	)
}

// FeeLedger answers unpaid-balance checks from the local fees table.
type FeeLedger struct {
	fees *repository.FeeRepository
}

// NewFeeLedger returns the fees-backed ledger.
func NewFeeLedger(fees *repository.FeeRepository) *FeeLedger {
	return &FeeLedger{fees: fees}
}

// HasUnpaid reports whether any unpaid fee remains.
func (l *FeeLedger) HasUnpaid(ctx context.Context, userID int64) (bool, error) {
	return l.fees.HasUnpaidByUser(ctx, userID)
}
