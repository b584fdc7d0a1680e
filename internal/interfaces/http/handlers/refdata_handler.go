package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradepulse/tradepulse/internal/infrastructure/refdata"
)

// RefDataHandler serves the reference data sets the dashboard loads once at
// startup: country locations for the map, HS categories and companies for
// the filter panel.
type RefDataHandler struct {
	store *refdata.Store
}

// NewRefDataHandler builds the handler over the reference data store.
func NewRefDataHandler(store *refdata.Store) *RefDataHandler {
	return &RefDataHandler{store: store}
}

// RegisterRoutes mounts the reference data endpoints on an API group.
func (h *RefDataHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/country-locations", h.Countries)
	api.GET("/hs-code-categories", h.Categories)
	api.GET("/companies", h.Companies)
}

// Countries returns every known country with its map coordinates.
func (h *RefDataHandler) Countries(c *gin.Context) {
	rows, err := h.store.Countries(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Categories returns every HS code category with its display metadata.
func (h *RefDataHandler) Categories(c *gin.Context) {
	rows, err := h.store.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Companies returns the company list backing the company-name selector.
func (h *RefDataHandler) Companies(c *gin.Context) {
	rows, err := h.store.Companies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
