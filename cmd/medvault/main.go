// Package main initializes and starts the medvault server: config,
// logging, the SQLite store, key material, repositories, services and
// the HTTP router.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/healthdesk/medvault/internal/config"
	"github.com/healthdesk/medvault/internal/crypto"
	"github.com/healthdesk/medvault/internal/db"
	"github.com/healthdesk/medvault/internal/logger"
	"github.com/healthdesk/medvault/internal/repository"
	"github.com/healthdesk/medvault/internal/seed"
	"github.com/healthdesk/medvault/internal/server/handler/http"
	"github.com/healthdesk/medvault/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const (
	sessionTTL           = 30 * time.Minute
	sessionSweepInterval = 5 * time.Minute
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	zapLogger, err := logger.New(options.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = zapLogger.Sync() }()

	// Open the single-file store.
	sqliteDB, err := db.InitSQLite(options.DatabasePath)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Load key material; first run generates and persists it.
	keyset, err := crypto.LoadOrCreateKeyset(options.KeyPath)
	if err != nil {
		zapLogger.Fatal("cannot load key material", zap.Error(err))
	}
	codec, err := crypto.NewCodec(keyset)
	if err != nil {
		zapLogger.Fatal("cannot build codec", zap.Error(err))
	}

	// Repositories.
	userRepo := repository.NewSQLiteUserRepository(sqliteDB)
	patientRepo := repository.NewSQLitePatientRepository(sqliteDB)
	auditRepo := repository.NewSQLiteAuditRepository(sqliteDB)

	// Services.
	auditService := service.NewAuditService(sqliteDB, auditRepo, zapLogger)
	authService := service.NewAuthService(sqliteDB, userRepo, auditService, zapLogger)
	patientService := service.NewPatientService(sqliteDB, patientRepo, codec, auditService, zapLogger)
	statsService := service.NewStatsService(patientRepo, userRepo, auditRepo, auditService)

	// Optional first-run provisioning through the regular entry points.
	if options.Seed {
		if err := seed.Run(context.Background(), authService, patientService, userRepo, true, zapLogger); err != nil {
			zapLogger.Fatal("seeding failed", zap.Error(err))
		}
	}

	// Session registry with idle expiry.
	sessions := service.NewSessionRegistry(sessionTTL)
	sessions.StartSweeper(context.Background(), sessionSweepInterval, zapLogger)

	// HTTP handlers and router.
	authHandler := &http.AuthHandler{AuthService: authService, Sessions: sessions, Audit: auditService}
	patientHandler := &http.PatientHandler{Patients: patientService}
	auditHandler := &http.AuditHandler{Audit: auditService, Stats: statsService}
	userHandler := &http.UserHandler{Users: authService}

	router := http.NewRouter(authHandler, patientHandler, auditHandler, userHandler, sessions, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
