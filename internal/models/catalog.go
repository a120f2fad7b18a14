package models

// Section is one concrete offering of a course ("paralelo") with its own
// weekly time blocks. Selected is advisory at this level: the propagator
// decides which checkboxes a UI may still toggle.
type Section struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Blocks   []TimeBlock `json:"blocks"`
	Note     string      `json:"note"`
	Selected bool        `json:"selected"`
}

// Course is a subject ("materia") offering alternative sections. Order of
// sections is user-significant.
type Course struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Credits  int       `json:"credits"`
	Sections []Section `json:"sections"`
}

// Catalog is one schedule document: an ordered list of courses.
type Catalog struct {
	Courses []Course `json:"courses"`
}

// Clone deep-copies the catalog so readers can work on an immutable
// snapshot while the owner keeps mutating.
func (c Catalog) Clone() Catalog {
	out := Catalog{Courses: make([]Course, len(c.Courses))}
	for i, course := range c.Courses {
		copied := course
		copied.Sections = make([]Section, len(course.Sections))
		for j, section := range course.Sections {
			sectionCopy := section
			sectionCopy.Blocks = append([]TimeBlock(nil), section.Blocks...)
			copied.Sections[j] = sectionCopy
		}
		out.Courses[i] = copied
	}
	return out
}

// FindCourse returns the course with the given ID, or nil.
func (c *Catalog) FindCourse(courseID string) *Course {
	for i := range c.Courses {
		if c.Courses[i].ID == courseID {
			return &c.Courses[i]
		}
	}
	return nil
}

// FindSection returns the section with the given ID within a course, or nil.
func (course *Course) FindSection(sectionID string) *Section {
	for i := range course.Sections {
		if course.Sections[i].ID == sectionID {
			return &course.Sections[i]
		}
	}
	return nil
}

// HasSectionNamed reports whether another section in the course already
// uses the name. The excluded ID allows rename-to-self.
func (course *Course) HasSectionNamed(name, excludeID string) bool {
	for _, section := range course.Sections {
		if section.Name == name && section.ID != excludeID {
			return true
		}
	}
	return false
}

// HasCourseNamed reports whether another course already uses the name.
func (c *Catalog) HasCourseNamed(name, excludeID string) bool {
	for _, course := range c.Courses {
		if course.Name == name && course.ID != excludeID {
			return true
		}
	}
	return false
}

// BlockedReason distinguishes why the propagator disabled a section.
type BlockedReason string

const (
	// BlockedNone marks a selectable section.
	BlockedNone BlockedReason = ""
	// BlockedCourseExclusive marks a section whose course already has an
	// active selection.
	BlockedCourseExclusive BlockedReason = "course_exclusive"
	// BlockedTimeConflict marks a section colliding with a selection from
	// another course.
	BlockedTimeConflict BlockedReason = "time_conflict"
)

// Availability is the propagator verdict for one section.
type Availability struct {
	Enabled bool          `json:"enabled"`
	Reason  BlockedReason `json:"reason,omitempty"`
}
