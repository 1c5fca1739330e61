// Package main runs the trade ledger service: the HTTP API for recording
// trades and querying positions, plus the background price refresher.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"coinledger/internal/api"
	"coinledger/internal/catalogue"
	"coinledger/internal/config"
	"coinledger/internal/ledger"
	"coinledger/internal/marketdata"
	"coinledger/internal/marketdata/binance"
	"coinledger/internal/marketdata/coingecko"
	"coinledger/internal/refresher"
	"coinledger/internal/storage"
	chstore "coinledger/internal/storage/clickhouse"
	"coinledger/internal/storage/memory"
	"coinledger/internal/storage/migrations"
	pgstore "coinledger/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited with error")
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	ledgers, snapshots, cleanup, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	history, historyCleanup, err := buildHistory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer historyCleanup()

	cat := catalogue.New(&catalogue.LogNotifier{Logger: logger})
	gecko := coingecko.NewClient()
	book := binance.NewClient()
	oracle := marketdata.NewOracle(gecko, book)

	// Seed the symbol table. Refresh cycles retry listing on their own,
	// so a failure here only delays mappings.
	if listing, err := gecko.ListCoins(ctx); err != nil {
		logger.WithError(err).Warn("initial coin listing failed, catalogue starts empty")
	} else {
		added := cat.BulkLoad(listing)
		logger.WithField("mappings", added).Info("symbol catalogue loaded")
	}

	recorder := ledger.NewRecorder(ledger.RecorderOptions{
		Store:     ledgers,
		Catalogue: cat,
		Logger:    logger,
	})
	calculator := ledger.NewCalculator(ledgers)

	runner := refresher.NewRunner(refresher.RunnerOptions{
		Ledgers:        ledgers,
		Snapshots:      snapshots,
		History:        history,
		Catalogue:      cat,
		Oracle:         oracle,
		Interval:       cfg.Refresh.Interval,
		SecondaryVenue: cfg.Refresh.SecondaryVenue,
		Logger:         logger,
	})

	refresherDone := make(chan struct{})
	go func() {
		defer close(refresherDone)
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("price refresher exited")
		}
	}()

	handler := api.NewHandler(recorder, calculator, runner, logger)
	server := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: handler.Routes(),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", server.Addr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http server shutdown failed")
	}
	<-refresherDone
	return nil
}

// buildStores selects the ledger and snapshot backends: Postgres when a
// DSN is configured, in-memory otherwise.
func buildStores(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (storage.LedgerStore, storage.SnapshotStore, func(), error) {
	if cfg.Postgres.DSN == "" {
		logger.Info("no postgres dsn configured, using in-memory stores")
		return memory.NewLedgerStore(), memory.NewSnapshotStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	logger.Info("postgres stores ready")
	return pgstore.NewLedgerStore(pool), pgstore.NewSnapshotStore(pool), pool.Close, nil
}

// buildHistory selects the price-history backend: ClickHouse when a DSN
// is configured, in-memory otherwise.
func buildHistory(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (storage.PriceHistoryStore, func(), error) {
	if cfg.Clickhouse.DSN == "" {
		logger.Info("no clickhouse dsn configured, using in-memory price history")
		return memory.NewPriceHistoryStore(), func() {}, nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Clickhouse.DSN)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("clickhouse price history ready")
	return chstore.NewPriceHistoryStore(conn), func() { _ = conn.Close() }, nil
}
