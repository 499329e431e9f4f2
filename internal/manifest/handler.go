package manifest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"iiifhub/internal/apperr"
	"iiifhub/pkg/models"
)

const ldJSON = "application/ld+json"

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/manifests", h.create)
	rg.GET("/manifests", h.list)
	rg.GET("/manifests/iiif/:id", h.getIIIF)
	rg.GET("/manifests/:id", h.getOne)
	rg.PUT("/manifests/:id/metadata", h.updateMetadata)
}

type createReq struct {
	Resources []models.ImageResource    `json:"resources"`
	Metadata  models.DescriptiveMetadata `json:"metadata"`
	FileIDs   []string                   `json:"file_ids"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	m, err := h.Service.Create(c.Request.Context(), req.Resources, req.Metadata, req.FileIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": RecordID(m), "manifest": m})
}

func (h *Handler) list(c *gin.Context) {
	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	total, err := h.Service.Repo.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	items, err := h.Service.Repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

func (h *Handler) getOne(c *gin.Context) {
	rec, err := h.Service.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) updateMetadata(c *gin.Context) {
	var meta models.DescriptiveMetadata
	if err := c.ShouldBindJSON(&meta); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	id := c.Param("id")
	if err := h.Service.UpdateMetadata(c.Request.Context(), id, meta); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "metadata": meta})
}

func (h *Handler) getIIIF(c *gin.Context) {
	body, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Access-Control-Allow-Origin", "*")
	c.Data(http.StatusOK, ldJSON+`;profile="http://iiif.io/api/presentation/3/context.json"`, body)
}

func writeError(c *gin.Context, err error) {
	kind, _ := apperr.KindOf(err)
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error(), "kind": kind})
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
