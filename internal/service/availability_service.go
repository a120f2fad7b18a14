package service

import (
	"github.com/samber/lo"

	"github.com/polibaldeo/polibaldeo-api/internal/models"
)

// AvailabilityService recomputes which sections remain selectable given
// the current selections. Propagation is a pure read of the catalog:
// the result depends only on the set of selected sections, never on
// iteration order, and re-running it is idempotent.
type AvailabilityService struct{}

// NewAvailabilityService constructs the propagator.
func NewAvailabilityService() *AvailabilityService {
	return &AvailabilityService{}
}

// Propagate returns the enabled/blocked verdict for every section.
// Selected sections are never disabled; unselected ones are blocked
// either by the single-choice-per-course rule or by a time collision
// with a selection from another course.
func (s *AvailabilityService) Propagate(catalog models.Catalog) map[string]models.Availability {
	occupancy := BuildOccupancy(catalog)
	result := make(map[string]models.Availability)

	for _, course := range catalog.Courses {
		hasSelection := lo.SomeBy(course.Sections, func(sec models.Section) bool {
			return sec.Selected
		})

		for _, section := range course.Sections {
			if section.Selected {
				result[section.ID] = models.Availability{Enabled: true}
				continue
			}
			if hasSelection {
				result[section.ID] = models.Availability{Enabled: false, Reason: models.BlockedCourseExclusive}
				continue
			}
			if occupancy.CollidesWithOtherCourse(course.ID, section.Blocks) {
				result[section.ID] = models.Availability{Enabled: false, Reason: models.BlockedTimeConflict}
				continue
			}
			result[section.ID] = models.Availability{Enabled: true}
		}
	}

	return result
}

// SelectedCredits sums credits over courses with at least one selected
// section; a course counts once no matter how many flags are set.
func (s *AvailabilityService) SelectedCredits(catalog models.Catalog) int {
	return lo.SumBy(catalog.Courses, func(course models.Course) int {
		for _, section := range course.Sections {
			if section.Selected {
				return course.Credits
			}
		}
		return 0
	})
}
