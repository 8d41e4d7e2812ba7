// README: Entry point; loads config, wires stores and services, serves HTTP until signalled.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"campusride/internal/config"
	httptransport "campusride/internal/http"
	"campusride/internal/infra"
	"campusride/internal/modules/group"
	"campusride/internal/modules/matching"
	"campusride/internal/modules/records"
	"campusride/internal/modules/social"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := infra.NewLogger(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	var source records.Source = records.NewStore(dbPool)
	if cfg.Graph.URI != "" {
		graphClient, err := infra.NewGraph(ctx, infra.GraphOptions{
			URI:      cfg.Graph.URI,
			Database: cfg.Graph.Database,
			Username: cfg.Graph.Username,
			Password: cfg.Graph.Password,
		})
		if err != nil {
			return err
		}
		defer func() { _ = graphClient.Close(context.Background()) }()
		source = social.WithGraphConnections(source, social.NewStore(graphClient))
		logger.Info("friendship edges served from neo4j", zap.String("uri", cfg.Graph.URI))
	}
	snapshots := records.NewCachedSource(source, redisClient, cfg.Snapshot.TTL, logger)

	groupSvc := group.NewService(group.NewStore(dbPool), snapshots, logger)
	matchingSvc := matching.NewService(snapshots, cfg.Matching, logger)

	server := httptransport.NewServer(cfg.HTTP.Addr, httptransport.ServerDeps{
		Groups:   groupSvc,
		Matching: matchingSvc,
		Log:      logger,
	})
	return server.Run(ctx)
}
