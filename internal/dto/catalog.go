package dto

import "github.com/polibaldeo/polibaldeo-api/internal/models"

// CourseRequest creates or renames a course.
type CourseRequest struct {
	Name    string `json:"name" validate:"required"`
	Credits *int   `json:"credits" validate:"omitempty,min=0"`
}

// SectionRequest creates or edits a section. Blocks use the textual
// "<Day> <HH:MM>-<HH:MM>" form.
type SectionRequest struct {
	Name   string   `json:"name" validate:"required"`
	Blocks []string `json:"blocks" validate:"required,min=1"`
	Note   string   `json:"note"`
}

// MoveRequest repositions a course or section within its ordered list.
type MoveRequest struct {
	Position int `json:"position" validate:"min=0"`
}

// SelectRequest toggles a section selection.
type SelectRequest struct {
	Selected bool `json:"selected"`
}

// PathRequest targets a schedule document on disk.
type PathRequest struct {
	Path string `json:"path" validate:"required"`
}

// CatalogView is the full document as the UI renders it.
type CatalogView struct {
	Courses      []CourseView `json:"courses"`
	TotalCredits int          `json:"totalCredits"`
}

// CourseView is a course plus derived per-section availability.
type CourseView struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Credits  int           `json:"credits"`
	Sections []SectionView `json:"sections"`
}

// SectionView is a section with its propagated enabled flag.
type SectionView struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Blocks   []string             `json:"blocks"`
	Note     string               `json:"note"`
	Selected bool                 `json:"selected"`
	Enabled  bool                 `json:"enabled"`
	Reason   models.BlockedReason `json:"blockedReason,omitempty"`
}
