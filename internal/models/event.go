package models

import "time"

// CalendarEvent is a single dated occurrence of a selected section's
// time block, ready for iCalendar rendering. Times are naive wall-clock.
type CalendarEvent struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}
