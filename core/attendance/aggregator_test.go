package attendance

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/testutil"
)

func rec(studentID int, date, status string) Record {
	return Record{
		StudentID:   studentID,
		SessionID:   studentID*1000 + len(date),
		Date:        date,
		Status:      status,
		StudentName: "Student " + string(rune('A'+studentID%26)),
	}
}

func day(s string) time.Time {
	t, err := time.Parse(core.ISODateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

var marchRecords = []Record{
	rec(1, "2024-03-01", "PRESENT"),
	rec(1, "2024-03-02", "ABSENT"),
	rec(2, "2024-03-01", "PRESENT"),
}

func TestAggregator_marchScenario(t *testing.T) {
	agg := NewAggregator(testutil.NewLogger())

	students := agg.BuildStudents(marchRecords)
	if assert.Len(t, students, 2) {
		assert.Equal(t, 1, students[0].ID)
		assert.Equal(t, 2, students[1].ID)
	}

	m := agg.BuildAttendanceMap(marchRecords)
	assert.Equal(t, Map{
		{StudentID: 1, Date: "2024-03-01"}: StatusPresent,
		{StudentID: 1, Date: "2024-03-02"}: StatusAbsent,
		{StudentID: 2, Date: "2024-03-01"}: StatusPresent,
	}, m)

	segments := agg.BuildMonthSegments(marchRecords)
	assert.Equal(t, []MonthSegment{
		{Year: 2024, Month: time.March, FirstDay: 1, LastDay: 2, ActiveDays: []int{1, 2}},
	}, segments)

	stats := StudentStats(1, segments, m)
	assert.Equal(t, Stats{Present: 1, Absent: 1, ActiveDays: 2, Percentage: 50}, stats)
}

func TestAggregator_BuildStudents(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    []core.Student
	}{
		{name: "empty", records: nil, want: []core.Student{}},
		{
			name: "ascending id, first seen wins",
			records: []Record{
				{StudentID: 3, Date: "2024-01-02", Status: "PRESENT", StudentName: " Zawadi ", ProfileImage: "f-3"},
				{StudentID: 1, Date: "2024-01-02", Status: "PRESENT", StudentName: "Amani"},
				{StudentID: 3, Date: "2024-01-03", Status: "LATE", StudentName: "Zawadi B.", ProfileImage: "f-other"},
				{StudentID: 2, Date: "2024-01-03", Status: "ABSENT", StudentName: "Baraka", ProfileImage: "https://x/b.png"},
			},
			want: []core.Student{
				{ID: 1, Name: "Amani"},
				{ID: 2, Name: "Baraka", ProfileImage: "https://x/b.png"},
				{ID: 3, Name: "Zawadi", ProfileImage: "f-3"},
			},
		},
		{
			name: "malformed records still list their student",
			records: []Record{
				{StudentID: 5, Date: "yesterday", Status: "PRESENT", StudentName: "Imani"},
				{StudentID: 4, Date: "2024-01-03", Status: "SICK", StudentName: "Juma"},
			},
			want: []core.Student{{ID: 4, Name: "Juma"}, {ID: 5, Name: "Imani"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewAggregator(testutil.NewLogger()).BuildStudents(tt.records)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregator_BuildStudents_distinctIDs(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		var records []Record
		distinct := make(map[int]bool)
		for j := 0; j < 1+rnd.Intn(40); j++ {
			id := 1 + rnd.Intn(10)
			distinct[id] = true
			records = append(records, rec(id, "2024-02-0"+string(rune('1'+rnd.Intn(9))), "PRESENT"))
		}

		students := NewAggregator(nil).BuildStudents(records)
		if len(students) != len(distinct) {
			t.Fatalf("BuildStudents() len = %d, want %d", len(students), len(distinct))
		}
		seen := make(map[int]bool)
		for k, s := range students {
			if seen[s.ID] {
				t.Fatalf("BuildStudents() duplicate id %d", s.ID)
			}
			seen[s.ID] = true
			if k > 0 && students[k-1].ID >= s.ID {
				t.Fatalf("BuildStudents() not ascending at %d", k)
			}
		}
	}
}

func TestAggregator_BuildAttendanceMap(t *testing.T) {
	tests := []struct {
		name      string
		records   []Record
		want      Map
		wantWarns int
	}{
		{name: "empty", want: Map{}},
		{
			name: "last write wins",
			records: []Record{
				rec(1, "2024-03-01", "ABSENT"),
				rec(1, "2024-03-01", "LATE"),
			},
			want: Map{{StudentID: 1, Date: "2024-03-01"}: StatusLate},
		},
		{
			name: "status is case-insensitive",
			records: []Record{
				rec(1, "2024-03-01", "present"),
				rec(2, "2024-03-01", " Excused "),
			},
			want: Map{
				{StudentID: 1, Date: "2024-03-01"}: StatusPresent,
				{StudentID: 2, Date: "2024-03-01"}: StatusExcused,
			},
		},
		{
			name: "rfc3339 date part",
			records: []Record{
				rec(1, "2024-03-01T23:30:00+03:00", "PRESENT"),
				rec(2, "2024-03-01T08:00:00Z", "ABSENT"),
			},
			want: Map{
				{StudentID: 1, Date: "2024-03-01"}: StatusPresent,
				{StudentID: 2, Date: "2024-03-01"}: StatusAbsent,
			},
		},
		{
			name: "skip and warn",
			records: []Record{
				rec(1, "2024-03-01", "PRESENT"),
				rec(1, "01/03/2024", "PRESENT"),
				rec(2, "", "ABSENT"),
				rec(3, "2024-03-02", "HOLIDAY"),
				rec(3, "2024-02-30", "LATE"),
			},
			want:      Map{{StudentID: 1, Date: "2024-03-01"}: StatusPresent},
			wantWarns: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := testutil.NewLogger()
			got := NewAggregator(logger).BuildAttendanceMap(tt.records)
			assert.Equal(t, tt.want, got)
			if warns := logger.Entries("warn"); len(warns) != tt.wantWarns {
				t.Errorf("BuildAttendanceMap() warnings = %d, want %d", len(warns), tt.wantWarns)
			}
		})
	}
}

func TestAggregator_BuildAttendanceMap_permutation(t *testing.T) {
	var records []Record
	statuses := []string{"PRESENT", "ABSENT", "LATE", "EXCUSED"}
	for id := 1; id <= 6; id++ {
		for d := 1; d <= 20; d++ {
			date := time.Date(2024, time.April, d, 0, 0, 0, 0, time.UTC).Format(core.ISODateLayout)
			records = append(records, rec(id, date, statuses[(id+d)%len(statuses)]))
		}
	}
	agg := NewAggregator(nil)
	want := agg.BuildAttendanceMap(records)

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]Record(nil), records...)
		rnd.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, agg.BuildAttendanceMap(shuffled))
	}
}

func TestAggregator_BuildMonthSegments(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    []MonthSegment
	}{
		{name: "empty", want: []MonthSegment{}},
		{name: "no valid date", records: []Record{rec(1, "lol", "PRESENT")}, want: []MonthSegment{}},
		{
			name:    "single day",
			records: []Record{rec(1, "2024-02-29", "PRESENT")},
			want:    []MonthSegment{{Year: 2024, Month: time.February, FirstDay: 29, LastDay: 29, ActiveDays: []int{29}}},
		},
		{
			name: "spans months and years",
			records: []Record{
				rec(2, "2024-01-03", "LATE"),
				rec(1, "2023-11-28", "PRESENT"),
				rec(1, "2023-12-15", "HOLIDAY"), // unknown status, still a session day
				rec(1, "bad", "PRESENT"),
			},
			want: []MonthSegment{
				{Year: 2023, Month: time.November, FirstDay: 28, LastDay: 30, ActiveDays: []int{28}},
				{Year: 2023, Month: time.December, FirstDay: 1, LastDay: 31, ActiveDays: []int{15}},
				{Year: 2024, Month: time.January, FirstDay: 1, LastDay: 3, ActiveDays: []int{3}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewAggregator(testutil.NewLogger()).BuildMonthSegments(tt.records)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregator_BuildMonthSegments_coverage(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	base := time.Date(2023, time.August, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		var records []Record
		dates := make(map[string]bool)
		min, max := "", ""
		for j := 0; j < 1+rnd.Intn(30); j++ {
			d := base.AddDate(0, 0, rnd.Intn(200)).Format(core.ISODateLayout)
			dates[d] = true
			if min == "" || d < min {
				min = d
			}
			if max == "" || d > max {
				max = d
			}
			records = append(records, rec(1+rnd.Intn(5), d, "PRESENT"))
		}

		segments := NewAggregator(nil).BuildMonthSegments(records)

		var covered []time.Time
		active := make(map[string]bool)
		for _, seg := range segments {
			covered = append(covered, seg.Days()...)
			for _, d := range seg.ActiveDays {
				active[isoDate(seg.Date(d))] = true
			}
		}
		// contiguous, non-overlapping, exactly [min, max]
		if isoDate(covered[0]) != min || isoDate(covered[len(covered)-1]) != max {
			t.Fatalf("segments cover [%s, %s], want [%s, %s]", isoDate(covered[0]), isoDate(covered[len(covered)-1]), min, max)
		}
		for k := 1; k < len(covered); k++ {
			if !covered[k].Equal(covered[k-1].AddDate(0, 0, 1)) {
				t.Fatalf("segments not contiguous at %s", isoDate(covered[k]))
			}
		}
		assert.Equal(t, dates, active)
	}
}

func TestAggregator_Aggregate(t *testing.T) {
	logger := testutil.NewLogger()
	records := append([]Record{rec(3, "nope", "PRESENT"), rec(3, "2024-03-02", "SICK")}, marchRecords...)

	agg := NewAggregator(logger).Aggregate(records)

	assert.Len(t, agg.Students, 3)
	assert.Len(t, agg.Map, 3)
	assert.Len(t, agg.Segments, 1)
	assert.Len(t, logger.Entries("warn"), 2) // one per bad record

	// every key belongs to a listed student and a segment day
	ids := make(map[int]bool)
	for _, s := range agg.Students {
		ids[s.ID] = true
	}
	for k := range agg.Map {
		assert.True(t, ids[k.StudentID], "unknown student %d", k.StudentID)
		inSegment := false
		for _, seg := range agg.Segments {
			if seg.Contains(day(k.Date)) {
				inSegment = true
			}
		}
		assert.True(t, inSegment, "date %s outside segments", k.Date)
	}
}

func TestAggregator_Aggregate_firstDayOfYearOne(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
	}{
		{name: "earliest first", records: []Record{rec(1, "0001-01-01", "PRESENT"), rec(1, "0001-02-03", "LATE")}},
		{name: "earliest last", records: []Record{rec(1, "0001-02-03", "LATE"), rec(1, "0001-01-01", "PRESENT")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(nil).Aggregate(tt.records)

			assert.Equal(t, []MonthSegment{
				{Year: 1, Month: time.January, FirstDay: 1, LastDay: 31, ActiveDays: []int{1}},
				{Year: 1, Month: time.February, FirstDay: 1, LastDay: 3, ActiveDays: []int{3}},
			}, agg.Segments)
			assert.Equal(t, GlyphPresent, CellGlyph(1, day("0001-01-01"), agg.Segments, agg.Map))
			assert.Equal(t, Stats{Present: 1, Late: 1, ActiveDays: 2, Percentage: 100}, StudentStats(1, agg.Segments, agg.Map))
		})
	}
}
