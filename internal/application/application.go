package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/config"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/database"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/handler"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/router"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/service"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/translate"
)

// API is the HTTP + WebSocket signaling application.
type API struct {
	cfg      *config.Config
	srv      *http.Server
	db       *gorm.DB
	hub      *service.ConnHub
	metering *service.MeteringService
	sweeper  *cron.Cron
	logger   *zap.Logger
}

// NewAPI creates the application: validates config, runs migrations, opens
// the database and wires every service into the router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}

	hub := service.NewConnHub(cfg.WSReadBufferSize, cfg.WSWriteBufferSize, cfg.WSMaxMessageSize, logger)
	roomSvc := service.NewRoomService(db, logger)
	creditSvc := service.NewCreditService(db, logger)
	limiter := service.NewRateLimiter(cfg.TranscriptLimit, cfg.TranscriptWindow)
	translator := translate.FromConfig(logger,
		cfg.GoogleTranslateAPIKey, cfg.GoogleTranslateURL, cfg.GoogleTranslateTimeout,
		cfg.LibreTranslateURL, cfg.LibreTranslateTimeout,
		cfg.GtxTranslateURL, cfg.GtxTranslateTimeout)
	transcriptSvc := service.NewTranscriptService(db, roomSvc, limiter, translator, hub, logger)
	meteringSvc := service.NewMeteringService(creditSvc, hub, cfg.MeterTickInterval, cfg.LowBalanceThreshold, logger)
	relay := service.NewSignalingRelay(hub, logger)

	signalWS := handler.NewSignalWSHandler(hub, roomSvc, relay, transcriptSvc, meteringSvc, limiter, logger)
	roomHandler := handler.NewRoomHandler(roomSvc, cfg.PublicBaseURL, logger)
	creditHandler := handler.NewCreditHandler(creditSvc, logger)
	health := handler.NewHealthHandler()

	r := router.New(roomHandler, creditHandler, signalWS, health)

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.RoomCleanupSpec, func() {
		if _, err := roomSvc.CleanupInactiveRooms(cfg.RoomCleanupAge); err != nil {
			logger.Error("room cleanup sweep failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("cron: room cleanup: %w", err)
	}
	if _, err := sweeper.AddFunc(cfg.RateLimiterSweepSpec, func() {
		if n := limiter.Sweep(cfg.RateLimiterIdleAge); n > 0 {
			logger.Debug("evicted idle rate limit windows", zap.Int("count", n))
		}
	}); err != nil {
		return nil, fmt.Errorf("cron: rate limiter sweep: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{
		cfg:      cfg,
		srv:      srv,
		db:       db,
		hub:      hub,
		metering: meteringSvc,
		sweeper:  sweeper,
		logger:   logger,
	}, nil
}

// Run starts the HTTP server and the periodic sweeps, blocks until ctx is
// cancelled, then shuts down gracefully. Every active metering session is
// stopped before the server exits so no billing timer outlives the process.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.srv.Addr)
	log.Printf("  Health:    %s/health", base)
	log.Printf("  Rooms:     %s/api/rooms", base)
	log.Printf("  Credits:   %s/api/credits/:user_id", base)
	log.Printf("  WebSocket: ws://%s:%s/ws", host, a.cfg.HTTPPort)

	a.sweeper.Start()

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()

	sweepCtx := a.sweeper.Stop()
	<-sweepCtx.Done()
	a.metering.StopAll()
	_ = a.logger.Sync()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
