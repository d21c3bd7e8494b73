package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

// Status of a student at a session.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusLate    Status = "LATE"
	StatusExcused Status = "EXCUSED"
)

var Statuses = []Status{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

// ParseStatus matches s case-insensitively against the known statuses.
func ParseStatus(s string) (Status, bool) {
	st := Status(core.CleanUpper(s))
	for _, known := range Statuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// Glyph is the one-character content of a calendar cell.
type Glyph string

const (
	GlyphPresent  Glyph = "P"
	GlyphAbsent   Glyph = "A"
	GlyphLate     Glyph = "L"
	GlyphExcused  Glyph = "E"
	GlyphNoData   Glyph = "-" // active day, no record for this student
	GlyphInactive Glyph = " " // no session on that day
)

var statusGlyphs = map[Status]Glyph{
	StatusPresent: GlyphPresent,
	StatusAbsent:  GlyphAbsent,
	StatusLate:    GlyphLate,
	StatusExcused: GlyphExcused,
}

// Record is one (student, session, date, status) fact from the attendance service.
type Record struct {
	StudentID    int    `json:"studentId"`
	SessionID    int    `json:"sessionId"`
	Date         string `json:"date"`
	Status       string `json:"status"`
	StudentName  string `json:"studentName"`
	ProfileImage string `json:"profileImage"`
}

// Session is an attendance session of a group.
type Session struct {
	ID        int    `json:"id"`
	GroupID   int    `json:"groupId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
	Topic     string `json:"topic,omitempty"`
	TeacherID int    `json:"teacherId,omitempty"`
}

// Key identifies one calendar cell.
type Key struct {
	StudentID int
	Date      string // YYYY-MM-DD
}

// Map is an immutable snapshot of (student, date) -> status.
type Map map[Key]Status

func (m Map) Status(studentID int, date time.Time) (Status, bool) {
	st, ok := m[Key{StudentID: studentID, Date: isoDate(date)}]
	return st, ok
}

// MonthSegment is a contiguous run of days of one calendar month, clipped to the records' span.
type MonthSegment struct {
	Year       int        `json:"year"`
	Month      time.Month `json:"month"`
	FirstDay   int        `json:"firstDay"`
	LastDay    int        `json:"lastDay"`
	ActiveDays []int      `json:"activeDays"` // ascending
}

// Days lists every day of the segment, active or not.
func (s MonthSegment) Days() []time.Time {
	days := make([]time.Time, 0, s.Len())
	for d := s.FirstDay; d <= s.LastDay; d++ {
		days = append(days, s.Date(d))
	}
	return days
}

// Len is the number of days of the segment.
func (s MonthSegment) Len() int {
	return s.LastDay - s.FirstDay + 1
}

func (s MonthSegment) Date(day int) time.Time {
	return time.Date(s.Year, s.Month, day, 0, 0, 0, 0, time.UTC)
}

func (s MonthSegment) Contains(date time.Time) bool {
	return date.Year() == s.Year && date.Month() == s.Month && date.Day() >= s.FirstDay && date.Day() <= s.LastDay
}

func (s MonthSegment) IsActive(day int) bool {
	for _, d := range s.ActiveDays {
		if d == day {
			return true
		}
		if d > day {
			break
		}
	}
	return false
}

// Label is the month header, eg. "March 2024".
func (s MonthSegment) Label() string {
	return fmt.Sprintf("%s %d", s.Month, s.Year)
}

// Stats of one student across the active days of a calendar.
type Stats struct {
	Present    int `json:"present"`
	Absent     int `json:"absent"`
	Late       int `json:"late"`
	Excused    int `json:"excused"`
	NoData     int `json:"noData"`
	ActiveDays int `json:"activeDays"`
	Percentage int `json:"percentage"`
}

// CalendarQuery selects the attendance records of a group over [From, To].
type CalendarQuery struct {
	GroupID int    `json:"-"`
	From    string `query:"from" validate:"required,isodate"`
	To      string `query:"to" validate:"required,isodate"`
}

// Validate cleans and validates q; the span must not exceed maxDays (<= 0: unlimited).
func (q *CalendarQuery) Validate(validate *validator.Validate, maxDays int) error {
	q.From = core.CleanString(q.From)
	q.To = core.CleanString(q.To)
	if err := validate.Struct(q); err != nil {
		return err
	}

	from, _ := time.Parse(core.ISODateLayout, q.From)
	to, _ := time.Parse(core.ISODateLayout, q.To)
	if to.Before(from) {
		return core.NewValidationError(nil, core.FieldError{Field: "to", Error: "to must not be before from"})
	}
	if days := int(to.Sub(from).Hours()/24) + 1; maxDays > 0 && days > maxDays {
		return core.NewValidationError(nil, core.FieldError{
			Field: "to",
			Error: fmt.Sprintf("the date range must not exceed %d days", maxDays),
		})
	}
	return nil
}

// CalendarRow is one student's line of the calendar.
type CalendarRow struct {
	Student  core.Student `json:"student"`
	ImageURL string       `json:"imageUrl"`
	Cells    []string     `json:"cells"` // one glyph per day of the segments
	Stats    Stats        `json:"stats"`
}

// CalendarView is the attendance table of a group.
type CalendarView struct {
	GroupID     int            `json:"groupId"`
	From        string         `json:"from"`
	To          string         `json:"to"`
	Segments    []MonthSegment `json:"segments"`
	Rows        []CalendarRow  `json:"rows"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// Days lists the header days of the view, in cell order.
func (v CalendarView) Days() []CalendarDay {
	var days []CalendarDay
	for _, seg := range v.Segments {
		for _, d := range seg.Days() {
			days = append(days, CalendarDay{Date: isoDate(d), Day: d.Day(), Active: seg.IsActive(d.Day())})
		}
	}
	return days
}

type CalendarDay struct {
	Date   string
	Day    int
	Active bool
}

func isoDate(t time.Time) string {
	return t.Format(core.ISODateLayout)
}

// parseDate accepts YYYY-MM-DD or an RFC 3339 timestamp, whose date part is kept.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(core.ISODateLayout, s)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, s)
		if tsErr != nil {
			return time.Time{}, err
		}
		t = ts
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
