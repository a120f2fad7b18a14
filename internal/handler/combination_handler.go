package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polibaldeo/polibaldeo-api/internal/dto"
	"github.com/polibaldeo/polibaldeo-api/internal/service"
	appErrors "github.com/polibaldeo/polibaldeo-api/pkg/errors"
	"github.com/polibaldeo/polibaldeo-api/pkg/response"
)

// CombinationHandler exposes the background combination search.
type CombinationHandler struct {
	combinations *service.CombinationService
	catalog      *service.CatalogService
}

// NewCombinationHandler constructs handler.
func NewCombinationHandler(combinations *service.CombinationService, catalog *service.CatalogService) *CombinationHandler {
	return &CombinationHandler{combinations: combinations, catalog: catalog}
}

// Start queues a search over the current catalog and returns its ID.
func (h *CombinationHandler) Start(c *gin.Context) {
	resp, err := h.combinations.Start(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, resp, nil)
}

// Status reports progress and, once finished, the combinations found.
func (h *CombinationHandler) Status(c *gin.Context) {
	resp, err := h.combinations.Status(c.Param("searchId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Cancel requests cooperative termination of a running search.
func (h *CombinationHandler) Cancel(c *gin.Context) {
	if err := h.combinations.Cancel(c.Param("searchId")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"searchId": c.Param("searchId"), "cancelled": true}, nil)
}

// Apply selects one section per course from a found combination.
func (h *CombinationHandler) Apply(c *gin.Context) {
	var req dto.ApplyCombinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.catalog.ApplyCombination(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
