// Package server wires the ledger components together and runs them: the
// profile and token repositories, the four tier backends, the services and
// the HTTP API, plus the periodic token purge.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/filex"
	"github.com/dmitrijs2005/tgledger/internal/logging"
	"github.com/dmitrijs2005/tgledger/internal/server/auth"
	"github.com/dmitrijs2005/tgledger/internal/server/config"
	"github.com/dmitrijs2005/tgledger/internal/server/events"
	"github.com/dmitrijs2005/tgledger/internal/server/httpapi"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
	"github.com/dmitrijs2005/tgledger/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tgledger/internal/server/services"
	"github.com/dmitrijs2005/tgledger/internal/server/storage"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	router *storage.Router
	tokens *services.TokenService
	server *httpapi.HTTPServer
}

// NewApp opens every store named by c and builds the services on top. On
// failure anything already opened is closed again.
func NewApp(ctx context.Context, c *config.Config) (app *App, err error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	var closers []io.Closer
	defer func() {
		if err != nil {
			for _, cl := range closers {
				_ = cl.Close()
			}
		}
	}()

	repos, err := openRepositories(ctx, c)
	if err != nil {
		return nil, err
	}
	closers = append(closers, repos)

	router, err := openBackends(ctx, c, logger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, router)

	if err := router.SeedCategories(ctx, models.DefaultCategories()); err != nil {
		return nil, fmt.Errorf("category seed error: %w", err)
	}

	sink := events.Multi{
		events.NewLogSink(logger),
		events.NewNotificationSink(c.HighExpenseThreshold, logger),
	}

	ps := services.NewProfileService(repos.Profiles(), auth.NewPolicy(c.AdminIDs), sink, logger)
	ts := services.NewTokenService(repos.Tokens(), []byte(c.TokenSecret), c.TokenValidity, logger)
	ls := services.NewLedgerService(ps, router, sink, logger)
	ss := services.NewSessionService(c.BotToken, ps, ts, ls, logger)

	return &App{
		config: c,
		logger: logger,
		repos:  repos,
		router: router,
		tokens: ts,
		server: httpapi.NewHTTPServer(c.HTTPAddress, logger, ss, ts, ps, ls),
	}, nil
}

func openRepositories(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	if c.ProfileDSN == "" {
		return repomanager.NewInMemoryRepositoryManager(), nil
	}

	rm, err := repomanager.OpenPostgresRepositoryManager(ctx, c.ProfileDSN)
	if err != nil {
		return nil, err
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, err
	}
	return rm, nil
}

func openBackends(ctx context.Context, c *config.Config, logger logging.Logger) (r *storage.Router, err error) {
	dataDir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir error: %w", err)
	}

	file, err := storage.NewFileBackend(filepath.Join(dataDir, "users"), logger)
	if err != nil {
		return nil, err
	}

	premiumPath := c.PremiumDBPath
	if premiumPath == "" {
		premiumPath = filepath.Join(dataDir, "premium.db")
	}
	premium, err := storage.OpenSQLiteBackend(ctx, premiumPath, logger)
	if err != nil {
		return nil, fmt.Errorf("premium backend error: %w", err)
	}
	defer func() {
		if err != nil {
			_ = premium.Close()
		}
	}()

	var admin *storage.SQLBackend
	if c.AdminDSN != "" {
		admin, err = storage.OpenPostgresBackend(ctx, c.AdminDSN, logger)
	} else {
		admin, err = storage.OpenSQLiteBackend(ctx, filepath.Join(dataDir, "admin.db"), logger)
	}
	if err != nil {
		return nil, fmt.Errorf("admin backend error: %w", err)
	}

	var replica storage.Replica
	if c.S3Bucket != "" {
		s3r, err := storage.NewS3Replica(ctx, storage.S3Config{
			Region:    c.S3Region,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Bucket:    c.S3Bucket,
			Endpoint:  c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, errors.Join(fmt.Errorf("replica error: %w", err), admin.Close())
		}
		replica = s3r
	} else {
		logger.Warn(ctx, "S3 bucket not configured, admin data is not replicated")
	}

	return storage.NewRouter(
		storage.NewMemoryBackend(),
		file,
		premium,
		storage.NewReplicatedBackend(admin, replica, logger),
	), nil
}

// Run serves the API and purges expired tokens until ctx is cancelled or
// one of them fails. Stores are closed before returning.
func (app *App) Run(ctx context.Context) error {

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.server.Run(ctx)
	})

	g.Go(func() error {
		app.purgeTokens(ctx)
		return nil
	})

	err := g.Wait()

	app.logger.Info(context.Background(), "Stopping app...")
	return errors.Join(err, app.Close())
}

func (app *App) purgeTokens(ctx context.Context) {
	interval := app.config.PurgeInterval
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := app.tokens.PurgeExpired(ctx); err != nil {
				app.logger.Error(ctx, "token purge failed", "error", err)
			}
		}
	}
}

// Close releases the repositories and every storage backend.
func (app *App) Close() error {
	return errors.Join(app.router.Close(), app.repos.Close())
}
