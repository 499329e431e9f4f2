package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"google.golang.org/grpc"

	"iiifhub/internal/grpcserver"
	"iiifhub/internal/importer"
	"iiifhub/internal/logging"
	"iiifhub/internal/manifest"
	"iiifhub/pkg/database"
	"iiifhub/pkg/utils"
)

func main() {
	cfg, err := utils.Load()
	if err != nil {
		log.Fatal("load config", "err", err)
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		logger.Fatal("open db", "err", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("db migrate failed", "err", err)
	}

	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("grpc listen failed", "err", err)
	}

	manifests := manifest.NewService(manifest.NewRepo(db), cfg.PublicBaseURL, logger)
	normalizer := importer.NewNormalizer(importer.NewHTTPFetcher(cfg.FetchTimeout), logger)

	grpcServer := grpc.NewServer()
	grpcserver.Register(grpcServer, grpcserver.NewServer(manifests, normalizer, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		grpcServer.GracefulStop()
	}()

	logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
	if err := grpcServer.Serve(listener); err != nil {
		logger.Fatal("grpc server stopped", "err", err)
	}
}
