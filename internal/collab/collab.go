// Package collab declares the narrow interfaces through which the
// reservation core consumes its external collaborators. Only what the
// core needs is declared here; collaborator internals live elsewhere.
package collab

import (
	"context"

	"github.com/google/uuid"

	"evcharge/internal/models"
)

// UserDirectory exposes account standing for booking admission checks.
type UserDirectory interface {
	Standing(ctx context.Context, userID int64) (*models.Account, error)
}

// VehicleCatalog exposes battery capacity and connector data.
type VehicleCatalog interface {
	Vehicle(ctx context.Context, vehicleID uuid.UUID) (*models.Vehicle, error)
}

// Quote is the pricing data for one charging point.
type Quote struct {
	PowerKW     float64
	PricePerKWh float64
}

// PricingCatalog resolves the connector power and active energy price.
type PricingCatalog interface {
	QuoteFor(ctx context.Context, point *models.ChargingPoint) (Quote, error)
}

// Policy is the subscription-governed booking allowance for one user.
type Policy struct {
	AdvanceBookingDays    int
	MaxActiveReservations int
	// FreeCancelMinutes is the boundary below which a cancellation is
	// late and penalized.
	FreeCancelMinutes int
}

// SubscriptionPolicy resolves the user's booking allowance.
type SubscriptionPolicy interface {
	PolicyFor(ctx context.Context, userID int64) (Policy, error)
}

// NotificationSink receives fire-and-forget user notifications. Delivery
// failures are the sink's problem; the core never retries.
type NotificationSink interface {
	Notify(ctx context.Context, userID int64, subject, message string)
}

// PaymentLedger answers whether the user still owes money, which gates
// unbanning.
type PaymentLedger interface {
	HasUnpaid(ctx context.Context, userID int64) (bool, error)
}
