package main

import (
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"iiifhub/internal/logging"
)

// Serves a directory of manifests (the export-manifests output) so imports
// can be exercised without a remote institution.
func main() {
	dir := flag.String("dir", "data/manifests", "directory of manifest JSON files")
	addr := flag.String("addr", ":9000", "listen address")
	flag.Parse()

	logger := logging.New("info", os.Stderr).WithPrefix("mirror")

	gin.SetMode(gin.ReleaseMode)
	r := newRouter(*dir, logger)

	logger.Info("mirror-server listening", "addr", *addr, "dir", *dir)
	if err := r.Run(*addr); err != nil {
		log.Fatal("mirror-server stopped", "err", err)
	}
}
