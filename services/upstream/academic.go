package upstream

import (
	"context"
	"fmt"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/academic"
)

type AcademicClient struct {
	*Client
}

var _ academic.Client = (*AcademicClient)(nil)

func NewAcademicClient(conf *core.Config) *AcademicClient {
	return &AcademicClient{NewClient("academic", conf.Services.AcademicURL, newHTTPClient(conf))}
}

func (c *AcademicClient) Divisions(ctx context.Context) ([]academic.Division, error) {
	var divs []academic.Division
	err := c.get(ctx, "/divisions", nil, &divs)
	return divs, err
}

func (c *AcademicClient) Programs(ctx context.Context, divisionID int) ([]academic.Program, error) {
	var progs []academic.Program
	err := c.get(ctx, fmt.Sprintf("/divisions/%d/programs", divisionID), nil, &progs)
	return progs, err
}

func (c *AcademicClient) Groups(ctx context.Context, programID int) ([]academic.Group, error) {
	var groups []academic.Group
	err := c.get(ctx, fmt.Sprintf("/programs/%d/groups", programID), nil, &groups)
	return groups, err
}

func (c *AcademicClient) Group(ctx context.Context, id int) (academic.Group, error) {
	var grp academic.Group
	err := c.get(ctx, fmt.Sprintf("/groups/%d", id), nil, &grp)
	return grp, err
}

func (c *AcademicClient) Enrollments(ctx context.Context, groupID int) ([]academic.Enrollment, error) {
	var enrolls []academic.Enrollment
	err := c.get(ctx, fmt.Sprintf("/groups/%d/enrollments", groupID), nil, &enrolls)
	return enrolls, err
}
