package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"evcharge/internal/configload"
)

// Config defines reservations service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"RESERVATIONS_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"RESERVATIONS_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"RESERVATIONS_REDIS_ADDR"`
		Password string `yaml:"password" env:"RESERVATIONS_REDIS_PASSWORD"`
		TTL      int    `yaml:"ttlSeconds" env:"RESERVATIONS_REDIS_TTL"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret" env:"RESERVATIONS_JWT_SECRET"`
	} `yaml:"auth"`
	Rules Rules `yaml:"rules"`
}

// Rules collects every scheduling and penalty tunable in one place.
// Injected at construction; never mutated after Load.
type Rules struct {
	FixedSlotMinutes   int `yaml:"fixedSlotMinutes" env:"RULES_FIXED_SLOT_MINUTES"`
	BufferMinutes      int `yaml:"bufferMinutes" env:"RULES_BUFFER_MINUTES"`
	MinGapMinutes      int `yaml:"minGapMinutes" env:"RULES_MIN_GAP_MINUTES"`
	BookNowWindowMin   int `yaml:"bookNowWindowMinutes" env:"RULES_BOOK_NOW_WINDOW_MINUTES"`
	PastGraceMinutes   int `yaml:"pastGraceMinutes" env:"RULES_PAST_GRACE_MINUTES"`
	LateCancelMinutes  int `yaml:"lateCancelMinutes" env:"RULES_LATE_CANCEL_MINUTES"`
	NoShowGraceMinutes int `yaml:"noShowGraceMinutes" env:"RULES_NO_SHOW_GRACE_MINUTES"`
	ChargeInflationPct int `yaml:"chargeInflationPct" env:"RULES_CHARGE_INFLATION_PCT"`

	LateCancelFeePct    float64 `yaml:"lateCancelFeePct" env:"RULES_LATE_CANCEL_FEE_PCT"`
	NoShowFeePct        float64 `yaml:"noShowFeePct" env:"RULES_NO_SHOW_FEE_PCT"`
	OvertimeFeePerMin   float64 `yaml:"overtimeFeePerMin" env:"RULES_OVERTIME_FEE_PER_MIN"`
	OverstayFeePerMin   float64 `yaml:"overstayFeePerMin" env:"RULES_OVERSTAY_FEE_PER_MIN"`
	OverstayStepMinutes int     `yaml:"overstayStepMinutes" env:"RULES_OVERSTAY_STEP_MINUTES"`
	OverstayStepFactor  float64 `yaml:"overstayStepFactor" env:"RULES_OVERSTAY_STEP_FACTOR"`
	OverstayMinimumFee  float64 `yaml:"overstayMinimumFee" env:"RULES_OVERSTAY_MINIMUM_FEE"`
	OverstayGraceMin    int     `yaml:"overstayGraceMinutes" env:"RULES_OVERSTAY_GRACE_MINUTES"`

	ViolationBanThreshold int     `yaml:"violationBanThreshold" env:"RULES_VIOLATION_BAN_THRESHOLD"`
	StartRadiusMeters     float64 `yaml:"startRadiusMeters" env:"RULES_START_RADIUS_METERS"`

	AdvanceBookingDays     int `yaml:"advanceBookingDays" env:"RULES_ADVANCE_BOOKING_DAYS"`
	MaxActiveReservations  int `yaml:"maxActiveReservations" env:"RULES_MAX_ACTIVE_RESERVATIONS"`
	FreeCancelThresholdMin int `yaml:"freeCancelThresholdMinutes" env:"RULES_FREE_CANCEL_THRESHOLD_MINUTES"`
}

// DefaultRules returns the baseline thresholds used when config omits them.
func DefaultRules() Rules {
	return Rules{
		FixedSlotMinutes:       120,
		BufferMinutes:          15,
		MinGapMinutes:          30,
		BookNowWindowMin:       5,
		PastGraceMinutes:       2,
		LateCancelMinutes:      10,
		NoShowGraceMinutes:     15,
		ChargeInflationPct:     15,
		LateCancelFeePct:       0.10,
		NoShowFeePct:           0.30,
		OvertimeFeePerMin:      0.50,
		OverstayFeePerMin:      0.25,
		OverstayStepMinutes:    30,
		OverstayStepFactor:     2.0,
		OverstayMinimumFee:     5.0,
		OverstayGraceMin:       15,
		ViolationBanThreshold:  3,
		StartRadiusMeters:      250,
		AdvanceBookingDays:     7,
		MaxActiveReservations:  2,
		FreeCancelThresholdMin: 10,
	}
}

// Buffer returns the inter-reservation buffer as a duration.
func (r Rules) Buffer() time.Duration {
	return time.Duration(r.BufferMinutes) * time.Minute
}

// FixedSlot returns the grid slot length as a duration.
func (r Rules) FixedSlot() time.Duration {
	return time.Duration(r.FixedSlotMinutes) * time.Minute
}

// PastGrace returns the clock-skew tolerance for near-past start times.
func (r Rules) PastGrace() time.Duration {
	return time.Duration(r.PastGraceMinutes) * time.Minute
}

// BookNowWindow returns the immediacy threshold below which a request is book-now.
func (r Rules) BookNowWindow() time.Duration {
	return time.Duration(r.BookNowWindowMin) * time.Minute
}

// Load reads configuration via the shared helper.
func Load() (*Config, error) {
	cfg := &Config{Rules: DefaultRules()}
	cfg.HTTP.Port = "8084"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.TTL = 86400

	if err := configload.Load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	if err := cfg.Rules.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r Rules) validate() error {
	if r.FixedSlotMinutes <= 0 || r.BufferMinutes < 0 || r.MinGapMinutes <= 0 {
		return errors.New("config: slot rules must be positive")
	}
	if r.MinGapMinutes >= r.FixedSlotMinutes {
		return fmt.Errorf("config: minGapMinutes %d must be below fixedSlotMinutes %d", r.MinGapMinutes, r.FixedSlotMinutes)
	}
	if r.ViolationBanThreshold <= 0 {
		return errors.New("config: violation ban threshold must be positive")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// ActiveSessionTTL converts the configured TTL seconds to a duration.
func (c *Config) ActiveSessionTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}
