package service

import "github.com/polibaldeo/polibaldeo-api/internal/models"

// SlotKey addresses one half-hour cell of the week.
type SlotKey struct {
	Day    models.Weekday
	Minute int
}

// Occupancy maps occupied half-hour slots to the course that owns them.
// Last writer wins on collision; a collision between selections means a
// conflict the propagator should already have prevented.
type Occupancy map[SlotKey]string

// AnyOverlap reports whether any block of one set collides with any
// block of the other. Sets are small, so the pairwise scan is fine.
func AnyOverlap(a, b []models.TimeBlock) bool {
	for _, blockA := range a {
		for _, blockB := range b {
			if blockA.Overlaps(blockB) {
				return true
			}
		}
	}
	return false
}

// BuildOccupancy indexes the blocks of every selected section at
// half-hour granularity, keyed by owning course ID.
func BuildOccupancy(catalog models.Catalog) Occupancy {
	occupied := make(Occupancy)
	for _, course := range catalog.Courses {
		for _, section := range course.Sections {
			if !section.Selected {
				continue
			}
			for _, block := range section.Blocks {
				for minute := block.StartMinute; minute < block.EndMinute; minute += models.SlotMinutes {
					occupied[SlotKey{Day: block.Day, Minute: minute}] = course.ID
				}
			}
		}
	}
	return occupied
}

// CollidesWithOtherCourse checks the section's blocks against the
// occupancy index, ignoring slots owned by the section's own course.
func (o Occupancy) CollidesWithOtherCourse(courseID string, blocks []models.TimeBlock) bool {
	for _, block := range blocks {
		for minute := block.StartMinute; minute < block.EndMinute; minute += models.SlotMinutes {
			owner, occupied := o[SlotKey{Day: block.Day, Minute: minute}]
			if occupied && owner != courseID {
				return true
			}
		}
	}
	return false
}
