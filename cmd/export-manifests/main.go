package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"iiifhub/internal/logging"
	"iiifhub/internal/manifest"
	"iiifhub/pkg/database"
	"iiifhub/pkg/utils"
)

func main() {
	out := flag.String("out", "data/manifests", "output directory")
	flag.Parse()

	cfg, err := utils.Load()
	if err != nil {
		log.Fatal("load config", "err", err)
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		logger.Fatal("open db", "err", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("db migrate failed", "err", err)
	}

	n, err := manifest.Export(ctx, manifest.NewRepo(db), *out)
	if err != nil {
		logger.Fatal("export failed", "err", err)
	}
	logger.Info("exported manifests", "count", n, "dir", *out)
}
