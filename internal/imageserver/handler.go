// Package imageserver resolves image references found in assembled manifests:
// direct-image redirects and a level0 IIIF Image API facade.
package imageserver

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"iiifhub/internal/logging"
)

const (
	ImageContext  = "http://iiif.io/api/image/3/context.json"
	ImageProtocol = "http://iiif.io/api/image"

	// Dimensions are not probed; every image advertises the same box.
	infoWidth  = 1000
	infoHeight = 1000
)

var infoSizes = []Size{{150, 150}, {600, 600}, {1000, 1000}}

// Blobs is the storage side: where a stored path can be downloaded.
type Blobs interface {
	PublicURL(path string) string
	Exists(path string) bool
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Info is an ImageService3 info.json document.
type Info struct {
	Context  string `json:"@context"`
	ID       string `json:"id"`
	Type     string `json:"type"`
	Protocol string `json:"protocol"`
	Profile  string `json:"profile"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Sizes    []Size `json:"sizes"`
}

type Handler struct {
	Blobs   Blobs
	BaseURL string
	Logger  *log.Logger
}

func NewHandler(blobs Blobs, baseURL string, logger *log.Logger) *Handler {
	return &Handler{
		Blobs:   blobs,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Logger:  logging.Or(logger).WithPrefix("imageserver"),
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/direct-image/*path", h.directImage)
	rg.GET("/iiif/:identifier/*rest", h.iiif)
}

// NewInfo builds the info.json for identifier served under baseURL.
func NewInfo(baseURL, identifier string) Info {
	return Info{
		Context:  ImageContext,
		ID:       strings.TrimRight(baseURL, "/") + "/api/iiif/" + identifier,
		Type:     "ImageService3",
		Protocol: ImageProtocol,
		Profile:  "level0",
		Width:    infoWidth,
		Height:   infoHeight,
		Sizes:    append([]Size(nil), infoSizes...),
	}
}

func (h *Handler) directImage(c *gin.Context) {
	h.redirect(c, strings.TrimPrefix(c.Param("path"), "/"))
}

func (h *Handler) iiif(c *gin.Context) {
	identifier := c.Param("identifier")
	rest := strings.Split(strings.Trim(c.Param("rest"), "/"), "/")

	switch {
	case len(rest) == 1 && rest[0] == "info.json":
		if !h.Blobs.Exists(identifier) {
			h.notFound(c, identifier)
			return
		}
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Cache-Control", "public, max-age=86400")
		c.JSON(http.StatusOK, NewInfo(h.BaseURL, identifier))
	case len(rest) == 4:
		// region/size/rotation/quality.format: level0 serves the original
		h.redirect(c, identifier)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected info.json or {region}/{size}/{rotation}/{quality}.{format}"})
	}
}

func (h *Handler) redirect(c *gin.Context, path string) {
	if path == "" || !h.Blobs.Exists(path) {
		h.notFound(c, path)
		return
	}
	target := h.Blobs.PublicURL(path)
	h.Logger.Debug("redirecting image", "path", path, "to", target)
	c.Header("Access-Control-Allow-Origin", "*")
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) notFound(c *gin.Context, path string) {
	h.Logger.Warn("image not found", "path", path)
	c.Header("Access-Control-Allow-Origin", "*")
	c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
}
