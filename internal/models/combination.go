package models

// CombinationEntry pairs a course with the section chosen for it.
type CombinationEntry struct {
	CourseID    string `json:"courseId"`
	CourseName  string `json:"courseName"`
	SectionID   string `json:"sectionId"`
	SectionName string `json:"sectionName"`
}

// Combination is one full, conflict-free schedule: exactly one section
// per course that has sections.
type Combination []CombinationEntry

// SearchState tracks a background combination search.
type SearchState string

const (
	SearchRunning   SearchState = "running"
	SearchCompleted SearchState = "completed"
	SearchCancelled SearchState = "cancelled"
)

// SearchResult is the outcome of a combination search. A cancelled
// search still carries every combination fully accumulated before the
// cancel; it never contains partial tuples.
type SearchResult struct {
	State        SearchState   `json:"state"`
	Progress     int           `json:"progress"`
	Combinations []Combination `json:"combinations"`
}
