package models

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/polibaldeo/polibaldeo-api/pkg/errors"
)

// Weekday is a class day. The wire and file representation is the
// Spanish day name, matching the .poli document format.
type Weekday string

const (
	Monday    Weekday = "Lunes"
	Tuesday   Weekday = "Martes"
	Wednesday Weekday = "Miércoles"
	Thursday  Weekday = "Jueves"
	Friday    Weekday = "Viernes"
)

// Weekdays lists the schedulable days in grid order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// SlotMinutes is the grid resolution; every block start and end must
// land on a multiple of it.
const SlotMinutes = 30

// Ordinal returns the day's offset from Monday (0..4).
func (d Weekday) Ordinal() int {
	for i, day := range Weekdays {
		if day == d {
			return i
		}
	}
	return -1
}

// GoWeekday maps onto the standard library's weekday.
func (d Weekday) GoWeekday() time.Weekday {
	return time.Weekday((d.Ordinal() + 1) % 7)
}

// ParseWeekday validates a day token.
func ParseWeekday(raw string) (Weekday, error) {
	for _, day := range Weekdays {
		if string(day) == raw {
			return day, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrMalformedBlock, fmt.Sprintf("unknown weekday %q", raw))
}

// TimeBlock is a contiguous class interval on one day, half-open over
// minutes since midnight: [StartMinute, EndMinute).
type TimeBlock struct {
	Day         Weekday `json:"day"`
	StartMinute int     `json:"startMinute"`
	EndMinute   int     `json:"endMinute"`
}

// NewTimeBlock validates the interval: a known weekday, start before
// end, both on half-hour multiples.
func NewTimeBlock(day Weekday, startMinute, endMinute int) (TimeBlock, error) {
	if day.Ordinal() < 0 {
		return TimeBlock{}, appErrors.Clone(appErrors.ErrMalformedBlock, fmt.Sprintf("unknown weekday %q", day))
	}
	if startMinute%SlotMinutes != 0 || endMinute%SlotMinutes != 0 {
		return TimeBlock{}, appErrors.Clone(appErrors.ErrMalformedBlock, "block times must align to half-hour boundaries")
	}
	if startMinute < 0 || endMinute > 24*60 || startMinute >= endMinute {
		return TimeBlock{}, appErrors.Clone(appErrors.ErrMalformedBlock, "block must start before it ends")
	}
	return TimeBlock{Day: day, StartMinute: startMinute, EndMinute: endMinute}, nil
}

// ParseTimeBlock reads the canonical "<Día> <HH:MM>-<HH:MM>" form.
func ParseTimeBlock(text string) (TimeBlock, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) != 2 {
		return TimeBlock{}, appErrors.Clone(appErrors.ErrMalformedBlock, fmt.Sprintf("unparseable block %q", text))
	}
	day, err := ParseWeekday(fields[0])
	if err != nil {
		return TimeBlock{}, err
	}
	startText, endText, found := strings.Cut(fields[1], "-")
	if !found {
		return TimeBlock{}, appErrors.Clone(appErrors.ErrMalformedBlock, fmt.Sprintf("block %q is missing its time range", text))
	}
	start, err := ToMinutes(startText)
	if err != nil {
		return TimeBlock{}, err
	}
	end, err := ToMinutes(endText)
	if err != nil {
		return TimeBlock{}, err
	}
	return NewTimeBlock(day, start, end)
}

// String renders the canonical textual form.
func (b TimeBlock) String() string {
	return fmt.Sprintf("%s %s-%s", b.Day, FromMinutes(b.StartMinute), FromMinutes(b.EndMinute))
}

// Overlaps reports whether two blocks share any time. Intervals are
// half-open, so touching boundaries never conflict.
func (b TimeBlock) Overlaps(other TimeBlock) bool {
	if b.Day != other.Day {
		return false
	}
	return !(b.EndMinute <= other.StartMinute || other.EndMinute <= b.StartMinute)
}

// ToMinutes converts "HH:MM" to minutes since midnight.
func ToMinutes(text string) (int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(strings.TrimSpace(text), "%d:%d", &hour, &minute); err != nil {
		return 0, appErrors.Clone(appErrors.ErrMalformedBlock, fmt.Sprintf("unparseable time %q", text))
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, appErrors.Clone(appErrors.ErrMalformedBlock, fmt.Sprintf("time %q out of range", text))
	}
	return hour*60 + minute, nil
}

// FromMinutes renders minutes since midnight as "HH:MM".
func FromMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// EnumerateSlots lists the half-hour slot labels a [start, end) range
// occupies.
func EnumerateSlots(startMinute, endMinute int) []string {
	var slots []string
	for minute := startMinute; minute < endMinute; minute += SlotMinutes {
		slots = append(slots, FromMinutes(minute))
	}
	return slots
}

// GenerateTimeGrid builds the fixed time axis shown on the weekly grid,
// one label per half hour from the opening hour up to the last half
// hour before closing.
func GenerateTimeGrid(openHour, closeHour int) []string {
	labels := make([]string, 0, (closeHour-openHour)*2)
	for h := openHour; h < closeHour; h++ {
		labels = append(labels, fmt.Sprintf("%02d:00", h), fmt.Sprintf("%02d:30", h))
	}
	return labels
}
