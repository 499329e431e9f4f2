package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"iiifhub/internal/apperr"
)

const maxUploadBytes = 64 << 20

type Handler struct {
	Pipeline *Pipeline
	Storage  *FileStorage

	// ctx outlives requests; uploads keep draining after the response is sent.
	ctx context.Context
}

func NewHandler(ctx context.Context, p *Pipeline, storage *FileStorage) *Handler {
	return &Handler{Pipeline: p, Storage: storage, ctx: ctx}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
	rg.GET("/uploads", h.list)
	rg.GET("/uploads/resources", h.resources)
	rg.GET("/uploads/:id", h.getOne)
	rg.POST("/uploads/:id/retry", h.retry)
	rg.DELETE("/uploads/:id", h.remove)
}

// RegisterFiles serves stored blobs under /files.
func (h *Handler) RegisterFiles(r gin.IRoutes) {
	r.GET("/files/:path", h.serveFile)
}

func (h *Handler) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty file"})
		return
	}

	contentType := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	id := h.Pipeline.Enqueue(File{Name: fh.Filename, ContentType: contentType, Data: data})
	go h.Pipeline.Process(h.ctx)

	task, _ := h.Pipeline.Task(id)
	c.JSON(http.StatusAccepted, task)
}

func (h *Handler) list(c *gin.Context) {
	tasks := h.Pipeline.Tasks()
	c.JSON(http.StatusOK, gin.H{"total": len(tasks), "items": tasks})
}

func (h *Handler) resources(c *gin.Context) {
	res := h.Pipeline.Resources(h.publicURL)
	c.JSON(http.StatusOK, gin.H{"count": len(res), "resources": res})
}

func (h *Handler) getOne(c *gin.Context) {
	task, ok := h.Pipeline.Task(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) retry(c *gin.Context) {
	id := c.Param("id")
	retried, err := h.Pipeline.Retry(id)
	if errors.Is(err, ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if retried {
		go h.Pipeline.Process(h.ctx)
	}
	task, _ := h.Pipeline.Task(id)
	c.JSON(http.StatusOK, gin.H{"retried": retried, "task": task})
}

func (h *Handler) remove(c *gin.Context) {
	removed, err := h.Pipeline.Remove(c.Param("id"))
	if errors.Is(err, ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if !removed {
		c.JSON(http.StatusConflict, gin.H{"error": "task is uploading"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) serveFile(c *gin.Context) {
	if h.Storage == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	full, ok := h.Storage.Open(c.Param("path"))
	if !ok {
		err := apperr.New(apperr.KindNotFound, "upload.file", "file not found")
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Header("Access-Control-Allow-Origin", "*")
	c.File(full)
}

func (h *Handler) publicURL(path string) string {
	if h.Storage == nil {
		return ""
	}
	return h.Storage.PublicURL(path)
}
