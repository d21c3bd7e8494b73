package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/profileimg"
	"github.com/trezcool/mahudhurio/testutil"
)

var errDown = errors.New("connection refused")

type fakeClient struct {
	records  []Record
	sessions []Session
	err      error

	gotGroup int
	gotFrom  string
	gotTo    string
}

func (c *fakeClient) Records(_ context.Context, groupID int, from, to string) ([]Record, error) {
	c.gotGroup, c.gotFrom, c.gotTo = groupID, from, to
	return c.records, c.err
}

func (c *fakeClient) Sessions(_ context.Context, groupID int, from, to string) ([]Session, error) {
	c.gotGroup, c.gotFrom, c.gotTo = groupID, from, to
	return c.sessions, c.err
}

type staleResolver struct{}

func (staleResolver) Resolve(context.Context, []core.Student) (profileimg.URLMap, bool) {
	return nil, false
}

func newTestService(client Client, lookup profileimg.FileLookup) (*Service, *testutil.Logger) {
	logger := testutil.NewLogger()
	conf := &core.Config{Images: core.ImagesConfig{MaxConcurrentLookups: 2, LookupTimeout: time.Second}}
	return NewService(client, lookup, logger, conf), logger
}

func TestService_Calendar(t *testing.T) {
	now := time.Date(2024, time.March, 31, 18, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	client := &fakeClient{records: []Record{
		{StudentID: 1, Date: "2024-03-01", Status: "PRESENT", StudentName: "Amani", ProfileImage: "file-1"},
		{StudentID: 2, Date: "2024-03-01", Status: "ABSENT", StudentName: "Baraka", ProfileImage: "file-missing"},
		{StudentID: 3, Date: "2024-03-02", Status: "LATE", StudentName: "Chiku", ProfileImage: "https://cdn/c.png"},
	}}
	lookup := testutil.NewFileLookup(map[string]string{"file-1": "https://storage/1.png"})
	svc, logger := newTestService(client, lookup)

	q := CalendarQuery{GroupID: 4, From: "2024-03-01", To: "2024-03-31"}
	view, err := svc.Calendar(context.Background(), q)
	if err != nil {
		t.Fatalf("Calendar() error = %v", err)
	}

	assert.Equal(t, 4, client.gotGroup)
	assert.Equal(t, "2024-03-01", client.gotFrom)
	assert.Equal(t, "2024-03-31", client.gotTo)

	assert.Equal(t, now, view.GeneratedAt)
	assert.Len(t, view.Segments, 1)
	if assert.Len(t, view.Rows, 3) {
		assert.Equal(t, "https://storage/1.png", view.Rows[0].ImageURL)
		assert.Equal(t, "", view.Rows[1].ImageURL) // failed lookup
		assert.Equal(t, "https://cdn/c.png", view.Rows[2].ImageURL)
		assert.Equal(t, []string{"P", "-"}, view.Rows[0].Cells)
		assert.Equal(t, []string{"A", "-"}, view.Rows[1].Cells)
		assert.Equal(t, []string{"-", "L"}, view.Rows[2].Cells)
	}
	assert.Equal(t, 0, lookup.Calls("https://cdn/c.png"))
	assert.Len(t, logger.Entries("warn"), 1)
}

func TestService_Calendar_errors(t *testing.T) {
	q := CalendarQuery{GroupID: 4, From: "2024-03-01", To: "2024-03-31"}

	t.Run("upstream unreachable", func(t *testing.T) {
		svc, _ := newTestService(&fakeClient{err: errDown}, testutil.NewFileLookup(nil))
		_, err := svc.Calendar(context.Background(), q)
		if errors.Cause(err) != errDown {
			t.Errorf("Calendar() error = %v, want cause %v", err, errDown)
		}
	})

	t.Run("superseded", func(t *testing.T) {
		client := &fakeClient{records: []Record{rec(1, "2024-03-01", "PRESENT")}}
		svc, _ := newTestService(client, testutil.NewFileLookup(nil))
		_, err := svc.CalendarUsing(context.Background(), q, staleResolver{})
		if err != ErrSuperseded {
			t.Errorf("CalendarUsing() error = %v, want %v", err, ErrSuperseded)
		}
	})

	t.Run("no records", func(t *testing.T) {
		svc, _ := newTestService(&fakeClient{}, testutil.NewFileLookup(nil))
		view, err := svc.Calendar(context.Background(), q)
		if err != nil {
			t.Fatalf("Calendar() error = %v", err)
		}
		assert.Equal(t, []MonthSegment{}, view.Segments)
		assert.Equal(t, []CalendarRow{}, view.Rows)
	})
}

func TestService_Sessions(t *testing.T) {
	client := &fakeClient{sessions: []Session{
		{ID: 3, GroupID: 1, Date: "2024-03-02"},
		{ID: 2, GroupID: 1, Date: "2024-03-01"},
		{ID: 1, GroupID: 1, Date: "2024-03-02"},
	}}
	svc, _ := newTestService(client, testutil.NewFileLookup(nil))

	got, err := svc.Sessions(context.Background(), 1, "2024-03-01", "2024-03-02")
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	assert.Equal(t, []Session{
		{ID: 2, GroupID: 1, Date: "2024-03-01"},
		{ID: 1, GroupID: 1, Date: "2024-03-02"},
		{ID: 3, GroupID: 1, Date: "2024-03-02"},
	}, got)

	svc, _ = newTestService(&fakeClient{}, testutil.NewFileLookup(nil))
	got, err = svc.Sessions(context.Background(), 1, "2024-03-01", "2024-03-02")
	assert.NoError(t, err)
	assert.Equal(t, []Session{}, got)
}

func TestCalendarQuery_Validate(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	tests := []struct {
		name      string
		q         CalendarQuery
		maxDays   int
		wantField string
	}{
		{name: "valid", q: CalendarQuery{From: "2024-03-01", To: "2024-03-31"}, maxDays: 31},
		{name: "single day", q: CalendarQuery{From: " 2024-03-01", To: "2024-03-01 "}, maxDays: 1},
		{name: "unlimited", q: CalendarQuery{From: "2020-01-01", To: "2024-03-01"}},
		{name: "missing from", q: CalendarQuery{To: "2024-03-01"}, wantField: "from"},
		{name: "bad to", q: CalendarQuery{From: "2024-03-01", To: "31/03/2024"}, wantField: "to"},
		{name: "reversed", q: CalendarQuery{From: "2024-03-02", To: "2024-03-01"}, wantField: "to"},
		{name: "too long", q: CalendarQuery{From: "2024-03-01", To: "2024-04-01"}, maxDays: 31, wantField: "to"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate(validate, tt.maxDays)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			switch vErr := errors.Cause(err).(type) {
			case validator.ValidationErrors:
				if assert.Len(t, vErr, 1) {
					assert.Equal(t, tt.wantField, vErr[0].Field())
				}
			case *core.ValidationError:
				if assert.Len(t, vErr.Fields, 1) {
					assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
				}
			default:
				t.Errorf("Validate() error = %v, want a validation error on %q", err, tt.wantField)
			}
		})
	}
}
