package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

const (
	icsProductID  = "-//PoliBaldeo//EN"
	icsTimeLayout = "20060102T150405"
)

// Event is one calendar entry to serialize.
type Event struct {
	Title       string
	Description string
	Start       string
	End         string
}

// ICSExporter serializes events into an iCalendar document. Times are
// emitted as floating local times so the schedule reads the same in
// any timezone the student opens it in.
type ICSExporter struct{}

// NewICSExporter constructs an iCalendar exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{}
}

// Render produces the serialized calendar, one VEVENT per event with
// SUMMARY, DTSTART, DTEND and DESCRIPTION in that order.
func (e *ICSExporter) Render(events []Event) ([]byte, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("ics requires at least one event")
	}
	cal := ics.NewCalendar()
	cal.SetProductId(icsProductID)

	for _, ev := range events {
		item := cal.AddEvent(uuid.NewString())
		item.SetProperty(ics.ComponentPropertySummary, ev.Title)
		item.SetProperty(ics.ComponentPropertyDtStart, ev.Start)
		item.SetProperty(ics.ComponentPropertyDtEnd, ev.End)
		item.SetProperty(ics.ComponentPropertyDescription, ev.Description)
	}

	return []byte(cal.Serialize()), nil
}

// FormatICSTime renders a floating (timezone-naive) iCalendar datetime.
func FormatICSTime(t time.Time) string {
	return t.Format(icsTimeLayout)
}
