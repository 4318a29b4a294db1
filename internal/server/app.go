// Package server wires configuration, storage, the biometric engine, token
// and vault services, and runs the HTTP API alongside the gRPC health server
// until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/facevault/internal/buildinfo"
	"github.com/dmitrijs2005/facevault/internal/common"
	"github.com/dmitrijs2005/facevault/internal/cryptox"
	"github.com/dmitrijs2005/facevault/internal/dbx"
	"github.com/dmitrijs2005/facevault/internal/logging"
	"github.com/dmitrijs2005/facevault/internal/server/auth"
	"github.com/dmitrijs2005/facevault/internal/server/biometric"
	"github.com/dmitrijs2005/facevault/internal/server/config"
	"github.com/dmitrijs2005/facevault/internal/server/health"
	"github.com/dmitrijs2005/facevault/internal/server/httpapi"
	"github.com/dmitrijs2005/facevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/facevault/internal/server/services"

	gs "github.com/dmitrijs2005/facevault/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
	health *gs.HealthServer
}

// NewApp opens the database, applies migrations and builds every service.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, dialect, err := dbx.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := build(ctx, c, logger, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, dialect dbx.Dialect) (*App, error) {
	rm, err := repomanager.NewRepositoryManager(dialect)
	if err != nil {
		return nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	logger.Info(ctx, "database ready", "dialect", string(dialect))

	master, fallback, err := cryptox.ResolveVaultKey(c.VaultKey, c.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("vault key: %w", err)
	}
	if fallback {
		logger.Warn(ctx, "VAULT_KEY not set; deriving the vault key from the token secret")
	}
	keyring, err := cryptox.NewKeyring(master, c.VaultPerUserKeys)
	common.WipeByteArray(master)
	if err != nil {
		return nil, fmt.Errorf("vault keyring: %w", err)
	}

	tokens, err := auth.NewTokenService(c.JWTSecret, c.JWTAlgorithm, c.JWTIssuer, c.AccessTokenTTL,
		auth.WithRevocations(rm.Revocations(db)))
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	engine := biometric.NewHTTPEngine(c.EngineURL, c.EngineTimeout)
	policy, err := biometric.NewPolicy(engine, c.MatchThreshold, biometric.Metric(c.MatchMetric), c.MinFaceConfidence)
	if err != nil {
		return nil, fmt.Errorf("biometric policy: %w", err)
	}

	authService, err := services.NewAuthService(db, rm, policy, tokens, keyring, c.BcryptCost, logger)
	if err != nil {
		return nil, err
	}
	vaultService := services.NewVaultService(db, rm, tokens, keyring, logger)

	hs := health.NewService(buildinfo.Version)
	hs.RegisterChecker("liveness", health.NewLivenessChecker())
	hs.RegisterChecker("database", health.NewDBChecker(db))
	hs.RegisterChecker("face_engine", health.NewEngineChecker(engine))

	router := httpapi.NewRouter(authService, vaultService, hs, logger, httpapi.Options{
		AllowedOrigins:      c.AllowedOrigins,
		MaxBodyBytes:        c.MaxBodyBytes,
		TrustProxyHeaders:   c.TrustProxyHeaders,
		RegisterPerMinute:   c.RegisterPerMinute,
		LoginPerMinute:      c.LoginPerMinute,
		VerifyFacePerMinute: c.VerifyFacePerMinute,
	})

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   httpapi.NewServer(c.HTTPAddr, router, logger),
		health: gs.NewHealthServer(c.GRPCHealthAddr, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc health server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails,
// then closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHealthServer(ctx, cancelFunc)
	}()

	app.health.SetServing(true)

	<-ctx.Done()
	app.health.SetServing(false)
	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close failed", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
