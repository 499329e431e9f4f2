package importer

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"iiifhub/internal/apperr"
)

type Handler struct {
	Normalizer *Normalizer
}

func NewHandler(n *Normalizer) *Handler {
	return &Handler{Normalizer: n}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/fetch-external-manifest", h.fetch)
}

type fetchReq struct {
	URL string `json:"url"`
}

func (h *Handler) fetch(c *gin.Context) {
	var req fetchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	resources, err := h.Normalizer.Import(c.Request.Context(), req.URL)
	if err != nil {
		kind, _ := apperr.KindOf(err)
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error(), "kind": kind})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resources": resources, "count": len(resources)})
}
