package upstream

import (
	"context"
	"fmt"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type AttendanceClient struct {
	*Client
}

var _ attendance.Client = (*AttendanceClient)(nil)

func NewAttendanceClient(conf *core.Config) *AttendanceClient {
	return &AttendanceClient{NewClient("attendance", conf.Services.AttendanceURL, newHTTPClient(conf))}
}

func rangeQuery(from, to string) map[string]string {
	q := make(map[string]string, 2)
	if from != "" {
		q["from"] = from
	}
	if to != "" {
		q["to"] = to
	}
	return q
}

func (c *AttendanceClient) Records(ctx context.Context, groupID int, from, to string) ([]attendance.Record, error) {
	var records []attendance.Record
	err := c.get(ctx, fmt.Sprintf("/groups/%d/records", groupID), rangeQuery(from, to), &records)
	return records, err
}

func (c *AttendanceClient) Sessions(ctx context.Context, groupID int, from, to string) ([]attendance.Session, error) {
	var sessions []attendance.Session
	err := c.get(ctx, fmt.Sprintf("/groups/%d/sessions", groupID), rangeQuery(from, to), &sessions)
	return sessions, err
}
