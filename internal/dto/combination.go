package dto

import "github.com/polibaldeo/polibaldeo-api/internal/models"

// StartSearchResponse acknowledges a queued combination search.
type StartSearchResponse struct {
	SearchID string `json:"searchId"`
}

// SearchStatusResponse reports search progress and, once finished, the
// accumulated combinations.
type SearchStatusResponse struct {
	SearchID     string               `json:"searchId"`
	State        models.SearchState   `json:"state"`
	Progress     int                  `json:"progress"`
	Combinations []models.Combination `json:"combinations,omitempty"`
	Total        int                  `json:"total"`
}

// ApplyCombinationRequest batch-selects one section per listed course.
type ApplyCombinationRequest struct {
	Pairs []CombinationPair `json:"pairs" validate:"required,min=1,dive"`
}

// CombinationPair names one course/section choice.
type CombinationPair struct {
	CourseID  string `json:"courseId" validate:"required"`
	SectionID string `json:"sectionId" validate:"required"`
}

// ApplyCombinationResponse reports how many courses were selected.
type ApplyCombinationResponse struct {
	Applied      int `json:"applied"`
	TotalCredits int `json:"totalCredits"`
}

// ExportRequest asks for a calendar or grid export.
type ExportRequest struct {
	Filename string `json:"filename" validate:"required"`
	Weeks    int    `json:"weeks" validate:"omitempty,min=1,max=52"`
}

// ExportResponse names the generated file.
type ExportResponse struct {
	Filename string `json:"filename"`
	Events   int    `json:"events,omitempty"`
}

// GridView carries the weekly grid a UI draws: the fixed time axis plus
// one cell per occupied (day, slot) pair.
type GridView struct {
	TimeLabels []string   `json:"timeLabels"`
	Days       []string   `json:"days"`
	Cells      []GridCell `json:"cells"`
}

// GridCell marks an occupied half-hour slot of the weekly grid.
type GridCell struct {
	Day     string `json:"day"`
	Time    string `json:"time"`
	Course  string `json:"course"`
	Section string `json:"section"`
}
