package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polibaldeo/polibaldeo-api/internal/dto"
	"github.com/polibaldeo/polibaldeo-api/internal/service"
	appErrors "github.com/polibaldeo/polibaldeo-api/pkg/errors"
	"github.com/polibaldeo/polibaldeo-api/pkg/response"
)

// DocumentHandler exposes document lifecycle and export endpoints.
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler constructs handler.
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// New starts an empty schedule document.
func (h *DocumentHandler) New(c *gin.Context) {
	h.documents.New()
	response.NoContent(c)
}

// Load replaces the document with a .poli file's contents.
func (h *DocumentHandler) Load(c *gin.Context) {
	var req dto.PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	view, err := h.documents.Load(req.Path)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, map[string]interface{}{"path": req.Path})
}

// Save persists the document; an empty path reuses the loaded one.
func (h *DocumentHandler) Save(c *gin.Context) {
	var req dto.PathRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	path, err := h.documents.Save(req.Path)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"path": path}, nil)
}

// ExportICS generates an iCalendar file from the selection.
func (h *DocumentHandler) ExportICS(c *gin.Context) {
	h.export(c, h.documents.ExportICS)
}

// ExportPDF generates a printable weekly grid.
func (h *DocumentHandler) ExportPDF(c *gin.Context) {
	h.export(c, h.documents.ExportPDF)
}

// ExportCSV generates a spreadsheet-friendly weekly grid.
func (h *DocumentHandler) ExportCSV(c *gin.Context) {
	h.export(c, h.documents.ExportCSV)
}

func (h *DocumentHandler) export(c *gin.Context, run func(dto.ExportRequest) (*dto.ExportResponse, error)) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := run(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}
