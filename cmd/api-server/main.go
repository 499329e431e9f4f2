package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"iiifhub/internal/grpcserver"
	"iiifhub/internal/imageserver"
	"iiifhub/internal/importer"
	"iiifhub/internal/logging"
	"iiifhub/internal/manifest"
	synchub "iiifhub/internal/sync"
	"iiifhub/internal/upload"
	"iiifhub/pkg/database"
	"iiifhub/pkg/utils"
)

func main() {
	cfg, err := utils.Load()
	if err != nil {
		log.Fatal("load config", "err", err)
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
	logger.Info("servers stopped")
}

func run(cfg utils.Config, logger *log.Logger) error {
	dbCfg := database.Config{Path: cfg.DBPath}
	db, err := database.Open(dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// storage and upload pipeline
	fileRepo := upload.NewFileRepo(db)
	storage, err := upload.NewFileStorage(cfg.StorageDir, cfg.PublicBaseURL, fileRepo)
	if err != nil {
		return err
	}
	compressor := upload.NewImageCompressor(cfg.Upload.CompressThreshold, cfg.Upload.MaxDimension, cfg.Upload.JPEGQuality)
	pipeline := upload.NewPipeline(storage, compressor, logger)

	hub := synchub.NewHub(logger)
	pipeline.OnChange(hub.UploadListener(storage.PublicURL))

	normalizer := importer.NewNormalizer(importer.NewHTTPFetcher(cfg.FetchTimeout), logger)
	manifests := manifest.NewService(manifest.NewRepo(db), cfg.PublicBaseURL, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Location"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/ws", synchub.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	api := router.Group("/api")
	uploadHandler := upload.NewHandler(rootCtx, pipeline, storage)
	uploadHandler.RegisterRoutes(api)
	uploadHandler.RegisterFiles(router)
	importer.NewHandler(normalizer).RegisterRoutes(api)
	manifest.NewHandler(manifests).RegisterRoutes(api)
	imageserver.NewHandler(storage, cfg.PublicBaseURL, logger).RegisterRoutes(api)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	tcpSrv := synchub.NewServer(cfg.SyncAddr, hub)
	grpcSrv := grpc.NewServer()
	grpcserver.Register(grpcSrv, grpcserver.NewServer(manifests, normalizer, logger))

	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		return tcpSrv.Run(ctx)
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		return grpcSrv.Serve(lis)
	})

	g.Go(func() error {
		logger.Info("HTTP API server listening", "addr", cfg.HTTPAddr, "public", cfg.PublicBaseURL)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		grpcSrv.GracefulStop()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", "err", err)
		}
		return nil
	})

	return g.Wait()
}

func requestLogger(logger *log.Logger) gin.HandlerFunc {
	l := logger.WithPrefix("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start),
		)
	}
}
