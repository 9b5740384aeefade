package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/api"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/app"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/app/maintenance"
	iauth "github.com/TarunSAkkatangerhal/PrismWorklet/internal/auth"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/cache"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/database"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/middleware"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/services"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/logger"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/mail"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("prism-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	memoryStore := cache.NewMemoryStore()
	dbStore := cache.NewDatabaseStore(db)

	var redisClient *cache.RedisClient
	if cfg.Cache.Redis.Enabled {
		client, redisErr := cache.NewRedisClient(cfg.Cache.RedisClientConfig())
		if redisErr != nil {
			log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(redisErr))
		} else {
			redisClient = client
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	// Pending registrations survive restarts on the redis or database tier;
	// the in-memory store is the last resort.
	var pendingStore cache.Store
	switch {
	case redisClient != nil:
		pendingStore = redisClient
	case dbStore != nil:
		pendingStore = dbStore
	default:
		pendingStore = memoryStore
	}

	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	tokens, err := iauth.NewTokenService(cfg.Auth.TokenServiceConfig())
	if err != nil {
		return fmt.Errorf("initialise token service: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return fmt.Errorf("initialise mailer: %w", err)
	}

	registrationSvc, err := services.NewRegistrationService(db, pendingStore, mailer,
		services.WithRegistrationExpiry(cfg.Auth.OTP.Expiry))
	if err != nil {
		return fmt.Errorf("initialise registration service: %w", err)
	}

	authSvc, err := services.NewAuthService(db, tokens, mailer,
		services.WithResetExpiry(cfg.Auth.Reset.Expiry))
	if err != nil {
		return fmt.Errorf("initialise auth service: %w", err)
	}

	profileSvc, err := services.NewProfileService(db)
	if err != nil {
		return fmt.Errorf("initialise profile service: %w", err)
	}

	workletSvc, err := services.NewWorkletService(db, mailer)
	if err != nil {
		return fmt.Errorf("initialise worklet service: %w", err)
	}

	associationSvc, err := services.NewAssociationService(db)
	if err != nil {
		return fmt.Errorf("initialise association service: %w", err)
	}

	evaluationSvc, err := services.NewEvaluationService(db)
	if err != nil {
		return fmt.Errorf("initialise evaluation service: %w", err)
	}

	dashboardSvc, err := services.NewDashboardService(db)
	if err != nil {
		return fmt.Errorf("initialise dashboard service: %w", err)
	}

	if cfg.Maintenance.Enabled {
		cleaner := maintenance.NewCleaner(db, memoryStore,
			maintenance.WithSchedule(cfg.Maintenance.Schedule))
		if err := cleaner.Start(); err != nil {
			return fmt.Errorf("start maintenance jobs: %w", err)
		}
		defer func() {
			stopCtx := cleaner.Stop()
			if err := cleaner.RunOnce(stopCtx); err != nil {
				log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
			}
		}()
	}

	var rateStore middleware.RateStore
	switch {
	case redisClient != nil:
		rateStore = middleware.NewCacheRateStore(redisClient)
	case dbStore != nil:
		rateStore = middleware.NewCacheRateStore(dbStore)
	default:
		rateStore = middleware.NewMemoryRateStore()
	}

	router, err := api.NewRouter(api.Dependencies{
		DB:           db,
		Tokens:       tokens,
		Config:       cfg,
		RateStore:    rateStore,
		Registration: registrationSvc,
		Auth:         authSvc,
		Profiles:     profileSvc,
		Worklets:     workletSvc,
		Associations: associationSvc,
		Evaluations:  evaluationSvc,
		Dashboard:    dashboardSvc,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseOpenConfig()

	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
