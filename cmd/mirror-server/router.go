package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

func newRouter(dir string, logger *log.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/manifests", func(c *gin.Context) {
		b, err := os.ReadFile(filepath.Join(dir, "index.json"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read index.json: " + err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json", b)
	})

	r.GET("/manifests/:file", func(c *gin.Context) {
		name := c.Param("file")
		if !strings.HasSuffix(name, ".json") || name != filepath.Base(name) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		// a bad file should fail loudly instead of reaching an importer
		if !json.Valid(b) {
			logger.Error("invalid manifest file", "file", name)
			c.JSON(http.StatusInternalServerError, gin.H{"error": name + " is not valid JSON"})
			return
		}
		c.Header("Access-Control-Allow-Origin", "*")
		c.Data(http.StatusOK, "application/ld+json", b)
	})

	return r
}
