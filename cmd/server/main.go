package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkrasnove/faunaguess/internal/api"
	"github.com/dkrasnove/faunaguess/internal/config"
	"github.com/dkrasnove/faunaguess/internal/domain"
	"github.com/dkrasnove/faunaguess/internal/extract"
	"github.com/dkrasnove/faunaguess/internal/game"
	"github.com/dkrasnove/faunaguess/internal/knowledge"
	"github.com/dkrasnove/faunaguess/internal/persist"
	"github.com/dkrasnove/faunaguess/internal/seed"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence: Postgres when DATABASE_URL is set, JSON file otherwise.
	var persister domain.Persister
	if dbURL := config.DatabaseURL(); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		pg := persist.NewPostgresStore(pool, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to ensure schema", zap.Error(err))
		}
		persister = pg
		logger.Info("connected to database")
	} else {
		persister = persist.NewFileStore(config.DataFile(), logger)
		logger.Info("using file persistence", zap.String("path", config.DataFile()))
	}

	extractor, err := extract.NewExtractor(config.ExtractorProvider())
	if err != nil {
		logger.Fatal("failed to build extractor", zap.Error(err))
	}

	opts := game.Options{
		ConfidenceThreshold:   config.ConfidenceThreshold(),
		MinRelevantConfidence: config.MinRelevantConfidence(),
		MaxQuestions:          config.MaxQuestions(),
	}
	svc := game.New(knowledge.NewStore(), persister, extractor, opts, logger)

	seedData, err := loadSeed()
	if err != nil {
		logger.Fatal("failed to load seed data", zap.Error(err))
	}
	if err := svc.Init(ctx, seedData); err != nil {
		logger.Fatal("failed to initialize knowledge base", zap.Error(err))
	}

	app := api.NewApp(svc, logger)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Sweep sessions nobody finished or abandoned.
	g.Go(func() error {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				svc.Cleanup(time.Hour)
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func loadSeed() (*seed.Data, error) {
	if path := config.SeedFile(); path != "" {
		return seed.LoadFile(path)
	}
	return seed.Default(), nil
}
