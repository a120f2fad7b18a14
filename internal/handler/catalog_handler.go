package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/polibaldeo/polibaldeo-api/internal/dto"
	"github.com/polibaldeo/polibaldeo-api/internal/service"
	appErrors "github.com/polibaldeo/polibaldeo-api/pkg/errors"
	"github.com/polibaldeo/polibaldeo-api/pkg/response"
)

// CatalogHandler exposes the schedule document: courses, sections,
// selection and the derived availability/grid views.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Get returns the whole document with propagated availability.
func (h *CatalogHandler) Get(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog.View(), map[string]interface{}{
		"path": h.catalog.PathName(),
	})
}

// Availability returns the per-section enabled map on its own.
func (h *CatalogHandler) Availability(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog.Availability(), nil)
}

// Credits returns the selected credit total.
func (h *CatalogHandler) Credits(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"totalCredits": h.catalog.SelectedCredits()}, nil)
}

// Grid returns the weekly grid as the UI draws it.
func (h *CatalogHandler) Grid(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog.Grid(), nil)
}

// AddCourse creates a course.
func (h *CatalogHandler) AddCourse(c *gin.Context) {
	var req dto.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.catalog.AddCourse(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// UpdateCourse renames a course or changes its credits.
func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	var req dto.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.catalog.UpdateCourse(c.Param("courseId"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.catalog.View(), nil)
}

// DeleteCourse removes a course and its sections.
func (h *CatalogHandler) DeleteCourse(c *gin.Context) {
	if err := h.catalog.DeleteCourse(c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MoveCourse repositions a course in the document order.
func (h *CatalogHandler) MoveCourse(c *gin.Context) {
	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.catalog.MoveCourse(c.Param("courseId"), req.Position); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.catalog.View(), nil)
}

// AddSection creates a section under a course.
func (h *CatalogHandler) AddSection(c *gin.Context) {
	var req dto.SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.catalog.AddSection(c.Param("courseId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// UpdateSection edits a section's name, blocks or note.
func (h *CatalogHandler) UpdateSection(c *gin.Context) {
	var req dto.SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.catalog.UpdateSection(c.Param("courseId"), c.Param("sectionId"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.catalog.View(), nil)
}

// DeleteSection removes a section.
func (h *CatalogHandler) DeleteSection(c *gin.Context) {
	if err := h.catalog.DeleteSection(c.Param("courseId"), c.Param("sectionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MoveSection repositions a section within its course.
func (h *CatalogHandler) MoveSection(c *gin.Context) {
	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.catalog.MoveSection(c.Param("courseId"), c.Param("sectionId"), req.Position); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.catalog.View(), nil)
}

// Select toggles a section selection; the query form ?selected=false
// deselects without a body.
func (h *CatalogHandler) Select(c *gin.Context) {
	req := dto.SelectRequest{Selected: true}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	} else if raw := c.Query("selected"); raw != "" {
		selected, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "selected must be a boolean"))
			return
		}
		req.Selected = selected
	}
	if err := h.catalog.SetSelected(c.Param("courseId"), c.Param("sectionId"), req.Selected); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.catalog.View(), nil)
}

// DeselectAll clears every selection in the document.
func (h *CatalogHandler) DeselectAll(c *gin.Context) {
	h.catalog.DeselectAll()
	response.JSON(c, http.StatusOK, h.catalog.View(), nil)
}
