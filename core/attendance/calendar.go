package attendance

import (
	"math"
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/profileimg"
)

// CellGlyph returns the glyph of the (student, date) cell.
// A day outside every segment's active days is GlyphInactive; an active day without
// a record for the student is GlyphNoData, never GlyphAbsent.
func CellGlyph(studentID int, date time.Time, segments []MonthSegment, m Map) Glyph {
	if !isActiveDay(date, segments) {
		return GlyphInactive
	}
	if st, ok := m.Status(studentID, date); ok {
		return statusGlyphs[st]
	}
	return GlyphNoData
}

func isActiveDay(date time.Time, segments []MonthSegment) bool {
	for _, seg := range segments {
		if seg.Contains(date) {
			return seg.IsActive(date.Day())
		}
	}
	return false
}

// StudentStats counts the student's statuses over every active day of segments.
// Percentage is round(100 * (present + late) / activeDays), 0 without active days.
func StudentStats(studentID int, segments []MonthSegment, m Map) Stats {
	var stats Stats
	for _, seg := range segments {
		for _, day := range seg.ActiveDays {
			stats.ActiveDays++
			st, ok := m.Status(studentID, seg.Date(day))
			if !ok {
				stats.NoData++
				continue
			}
			switch st {
			case StatusPresent:
				stats.Present++
			case StatusAbsent:
				stats.Absent++
			case StatusLate:
				stats.Late++
			case StatusExcused:
				stats.Excused++
			}
		}
	}
	if stats.ActiveDays > 0 {
		stats.Percentage = int(math.Round(100 * float64(stats.Present+stats.Late) / float64(stats.ActiveDays)))
	}
	return stats
}

// NewCalendarView lays out one row per student with a glyph for every day of the segments.
func NewCalendarView(q CalendarQuery, agg Aggregate, images profileimg.URLMap, now time.Time) CalendarView {
	view := CalendarView{
		GroupID:     q.GroupID,
		From:        q.From,
		To:          q.To,
		Segments:    agg.Segments,
		Rows:        make([]CalendarRow, 0, len(agg.Students)),
		GeneratedAt: now.UTC(),
	}
	for _, s := range agg.Students {
		view.Rows = append(view.Rows, newCalendarRow(s, agg, images[s.ID]))
	}
	return view
}

func newCalendarRow(s core.Student, agg Aggregate, imageURL string) CalendarRow {
	row := CalendarRow{
		Student:  s,
		ImageURL: imageURL,
		Cells:    []string{},
		Stats:    StudentStats(s.ID, agg.Segments, agg.Map),
	}
	for _, seg := range agg.Segments {
		for _, d := range seg.Days() {
			row.Cells = append(row.Cells, string(CellGlyph(s.ID, d, agg.Segments, agg.Map)))
		}
	}
	return row
}
