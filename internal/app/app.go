package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"evcharge/internal/collab"
	"evcharge/internal/config"
	"evcharge/internal/db"
	httpserver "evcharge/internal/http"
	"evcharge/internal/http/handlers"
	"evcharge/internal/http/middleware"
	libredis "evcharge/internal/redis"
	"evcharge/internal/redisstore"
	"evcharge/internal/repository"
	"evcharge/internal/service"
)

// App wires reservations-service dependencies.
type App struct {
	server      *httpserver.Server
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := db.RunMigrations(cfg.Database.DSN); err != nil {
		return nil, err
	}
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	redisClient, err := libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	stationRepo := repository.NewStationRepository(sqlDB)
	pointRepo := repository.NewPointRepository(sqlDB)
	reservationRepo := repository.NewReservationRepository(sqlDB)
	sessionRepo := repository.NewSessionRepository(sqlDB)
	feeRepo := repository.NewFeeRepository(sqlDB)
	accountRepo := repository.NewAccountRepository(sqlDB)
	vehicleRepo := repository.NewVehicleRepository(sqlDB)
	tariffRepo := repository.NewTariffRepository(sqlDB)

	users := collab.NewAccountDirectory(accountRepo)
	vehicles := collab.NewRepoVehicleCatalog(vehicleRepo)
	pricing := collab.NewTariffPricing(tariffRepo)
	policy := collab.NewStaticPolicy(collab.Policy{
		AdvanceBookingDays:    cfg.Rules.AdvanceBookingDays,
		MaxActiveReservations: cfg.Rules.MaxActiveReservations,
		FreeCancelMinutes:     cfg.Rules.FreeCancelThresholdMin,
	})
	notify := collab.NewLogSink(logger)
	ledger := collab.NewFeeLedger(feeRepo)

	penalties := service.NewPenaltyEngine(feeRepo, accountRepo, ledger, notify, cfg.Rules, logger)
	finder := service.NewSlotFinder(stationRepo, pointRepo, reservationRepo, vehicles, pricing, cfg.Rules, logger)
	bookings := service.NewBookingService(sqlDB, reservationRepo, pointRepo, sessionRepo, stationRepo,
		users, vehicles, pricing, policy, notify, penalties, cfg.Rules, logger)

	snapshotStore := redisstore.NewStore(redisClient, cfg.ActiveSessionTTL())
	sessions := service.NewSessionService(sqlDB, sessionRepo, reservationRepo, pointRepo, stationRepo,
		vehicles, pricing, notify, penalties, snapshotStore, cfg.Rules, logger)
	fees := service.NewFeesService(sqlDB, feeRepo, penalties, logger)

	reservationsHandler := handlers.NewReservationsHandler(bookings, logger)
	sessionsHandler := handlers.NewSessionsHandler(sessions, logger)
	feesHandler := handlers.NewFeesHandler(fees, logger)

	routes := httpserver.Routes{
		AvailableSlots:     handlers.NewAvailableSlotsHandler(finder, logger),
		ReservationConfirm: reservationsHandler.Confirm,
		ReservationCancel:  reservationsHandler.Cancel,
		ReservationsMine:   reservationsHandler.ListMine,
		SessionStart:       sessionsHandler.Start,
		SessionMonitor:     sessionsHandler.Monitor,
		SessionEnd:         sessionsHandler.End,
		SessionForceEnd:    sessionsHandler.ForceEnd,
		SessionsActive:     sessionsHandler.Active,
		FeesMe:             feesHandler.ListMine,
		FeePay:             feesHandler.Pay,
		NoShowSweep:        handlers.NewNoShowSweepHandler(bookings, logger),
		Health:             handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes, middleware.Auth(cfg.Auth.JWTSecret))
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
