package attendance

import (
	"sort"
	"time"

	"github.com/trezcool/mahudhurio/core"
)

// Aggregator turns the flat records of the attendance service into the
// student list, the attendance map and the month segments of a calendar.
// Malformed records are skipped with a warning, never failing the build.
type Aggregator struct {
	logger core.Logger
}

func NewAggregator(logger core.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate is the result of a single pass over a record set.
type Aggregate struct {
	Students []core.Student
	Map      Map
	Segments []MonthSegment
}

type entry struct {
	rec    Record
	date   time.Time
	status Status
	// validity
	dateOK   bool
	statusOK bool
}

// scan parses every record once. Warnings are logged for bad dates and,
// when withStatus is set, for unknown statuses.
func (a *Aggregator) scan(records []Record, withStatus bool) []entry {
	entries := make([]entry, 0, len(records))
	for i, rec := range records {
		e := entry{rec: rec}
		date, err := parseDate(rec.Date)
		if err == nil {
			e.date = date
			e.dateOK = true
		} else {
			a.warn("skipping attendance record: malformed date", i, rec, err)
		}
		e.status, e.statusOK = ParseStatus(rec.Status)
		if withStatus && e.dateOK && !e.statusOK {
			a.warn("skipping attendance record: unknown status", i, rec, nil)
		}
		entries = append(entries, e)
	}
	return entries
}

func (a *Aggregator) warn(msg string, idx int, rec Record, err error) {
	if a.logger == nil {
		return
	}
	extras := map[string]interface{}{
		"index":     idx,
		"studentId": rec.StudentID,
		"sessionId": rec.SessionID,
		"date":      rec.Date,
		"status":    rec.Status,
	}
	if err != nil {
		a.logger.Warn(msg, err, extras)
		return
	}
	a.logger.Warn(msg, extras)
}

// Aggregate builds students, map and segments in one pass, warning once per bad record.
func (a *Aggregator) Aggregate(records []Record) Aggregate {
	entries := a.scan(records, true)
	return Aggregate{
		Students: buildStudents(entries),
		Map:      buildMap(entries),
		Segments: buildSegments(entries),
	}
}

// BuildStudents dedups the students of records by id, ascending.
// The first-seen name and image of each id win.
func (a *Aggregator) BuildStudents(records []Record) []core.Student {
	entries := make([]entry, len(records))
	for i, rec := range records {
		entries[i] = entry{rec: rec}
	}
	return buildStudents(entries)
}

// BuildAttendanceMap maps (student, date) to status; a later record overwrites an earlier one.
func (a *Aggregator) BuildAttendanceMap(records []Record) Map {
	return buildMap(a.scan(records, true))
}

// BuildMonthSegments partitions [min(date), max(date)] of the well-dated records
// into month-aligned segments, with the days having at least one record marked active.
func (a *Aggregator) BuildMonthSegments(records []Record) []MonthSegment {
	return buildSegments(a.scan(records, false))
}

func buildStudents(entries []entry) []core.Student {
	seen := make(map[int]bool, len(entries))
	students := make([]core.Student, 0, len(entries))
	for _, e := range entries {
		if seen[e.rec.StudentID] {
			continue
		}
		seen[e.rec.StudentID] = true
		students = append(students, core.Student{
			ID:           e.rec.StudentID,
			Name:         core.CleanString(e.rec.StudentName),
			ProfileImage: core.CleanString(e.rec.ProfileImage),
		})
	}
	sort.SliceStable(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students
}

func buildMap(entries []entry) Map {
	m := make(Map, len(entries))
	for _, e := range entries {
		if !e.dateOK || !e.statusOK {
			continue
		}
		m[Key{StudentID: e.rec.StudentID, Date: isoDate(e.date)}] = e.status
	}
	return m
}

func buildSegments(entries []entry) []MonthSegment {
	var min, max time.Time
	var found bool // the zero time is a valid date
	active := make(map[time.Time]bool)
	for _, e := range entries {
		if !e.dateOK {
			continue
		}
		if !found || e.date.Before(min) {
			min = e.date
		}
		if !found || e.date.After(max) {
			max = e.date
		}
		found = true
		active[e.date] = true
	}
	if !found {
		return []MonthSegment{}
	}

	var segments []MonthSegment
	for start := min; !start.After(max); {
		monthEnd := time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, time.UTC)
		end := monthEnd
		if max.Before(end) {
			end = max
		}
		seg := MonthSegment{
			Year:       start.Year(),
			Month:      start.Month(),
			FirstDay:   start.Day(),
			LastDay:    end.Day(),
			ActiveDays: []int{},
		}
		for d := seg.FirstDay; d <= seg.LastDay; d++ {
			if active[seg.Date(d)] {
				seg.ActiveDays = append(seg.ActiveDays, d)
			}
		}
		segments = append(segments, seg)
		start = monthEnd.AddDate(0, 0, 1)
	}
	return segments
}
