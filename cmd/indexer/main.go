package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/intraverse/tx-indexer/broadcast"
	"github.com/intraverse/tx-indexer/config"
	"github.com/intraverse/tx-indexer/db"
	"github.com/intraverse/tx-indexer/ethclient"
	"github.com/intraverse/tx-indexer/indexer"
	"github.com/intraverse/tx-indexer/logging"
	"github.com/intraverse/tx-indexer/presenter"
	"github.com/intraverse/tx-indexer/repository"
)

func main() {
	logger := logging.New()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithError(err).Fatal("can't load .env file")
	}

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	metricsSrv := &http.Server{
		Addr:              cfg.Metrics.Host,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err2 := metricsSrv.ListenAndServe(); err2 != nil && !errors.Is(err2, http.ErrServerClosed) {
			logger.WithError(err2).Fatal("can't start listener for prometheus metrics")
		}
	}()

	repo := repository.NewRepo(dbConn)

	client, err := ethclient.NewClient(cfg.Chain.RPC.Host, cfg.Chain.RPC.Timeout, cfg.Chain.RPC.RPS, cfg.Chain.ChainID)
	if err != nil {
		logger.WithError(err).Fatal("can't dial rpc client")
	}

	broadcaster := broadcast.NewBroadcaster(logger.WithField("service", "broadcast"), cfg.Broadcast.HeartbeatInterval)
	go broadcaster.Start(ctx)

	pr := presenter.NewPresenter(logger.WithField("service", "presenter"), repo, broadcast.NewHandler(broadcaster))
	go func() {
		if err2 := pr.Serve(ctx, cfg.Presenter.Host); err2 != nil {
			logger.WithError(err2).Fatal("can't serve presenter")
		}
	}()

	ix := indexer.NewIndexer(logger.WithField("service", "indexer"), client, repo, broadcaster, cfg.Indexer)
	go func() {
		if err2 := ix.Start(ctx); err2 != nil && ctx.Err() == nil {
			logger.WithError(err2).Error("fatal indexer error, indexing stopped")
		}
	}()

	<-ctx.Done()
	logger.Warn("caught termination signal, gracefully terminating")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err = metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("can't shutdown metrics listener")
	}
}
