package academic

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/profileimg"
)

type (
	// Client reads the remote academic service.
	Client interface {
		Divisions(ctx context.Context) ([]Division, error)
		Programs(ctx context.Context, divisionID int) ([]Program, error)
		Groups(ctx context.Context, programID int) ([]Group, error)
		Group(ctx context.Context, id int) (Group, error)
		Enrollments(ctx context.Context, groupID int) ([]Enrollment, error)
	}

	Service struct {
		client  Client
		lookup  profileimg.FileLookup
		logger  core.Logger
		imgOpts []profileimg.Option
	}
)

func NewService(client Client, lookup profileimg.FileLookup, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		client: client,
		lookup: lookup,
		logger: logger,
		imgOpts: []profileimg.Option{
			profileimg.WithConcurrency(conf.Images.MaxConcurrentLookups),
			profileimg.WithLookupTimeout(conf.Images.LookupTimeout),
		},
	}
}

func byName(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

func (svc *Service) Divisions(ctx context.Context) ([]Division, error) {
	divs, err := svc.client.Divisions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetching divisions")
	}
	sort.SliceStable(divs, func(i, j int) bool { return byName(divs[i].Name, divs[j].Name) })
	if divs == nil {
		divs = []Division{}
	}
	return divs, nil
}

func (svc *Service) Programs(ctx context.Context, divisionID int) ([]Program, error) {
	progs, err := svc.client.Programs(ctx, divisionID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching programs")
	}
	sort.SliceStable(progs, func(i, j int) bool { return byName(progs[i].Name, progs[j].Name) })
	if progs == nil {
		progs = []Program{}
	}
	return progs, nil
}

func (svc *Service) Groups(ctx context.Context, programID int) ([]Group, error) {
	groups, err := svc.client.Groups(ctx, programID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching groups")
	}
	sort.SliceStable(groups, func(i, j int) bool { return byName(groups[i].Name, groups[j].Name) })
	if groups == nil {
		groups = []Group{}
	}
	return groups, nil
}

func (svc *Service) Group(ctx context.Context, id int) (Group, error) {
	grp, err := svc.client.Group(ctx, id)
	return grp, errors.Wrap(err, "fetching group")
}

// Enrollments lists a group's enrollments by student name, with resolved profile images.
func (svc *Service) Enrollments(ctx context.Context, groupID int) ([]EnrollmentView, error) {
	enrolls, err := svc.client.Enrollments(ctx, groupID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching enrollments")
	}
	sort.SliceStable(enrolls, func(i, j int) bool { return byName(enrolls[i].Student.Name, enrolls[j].Student.Name) })

	students := make([]core.Student, 0, len(enrolls))
	for _, e := range enrolls {
		students = append(students, e.Student)
	}
	// a fresh resolver per call: never superseded
	images, _ := profileimg.NewResolver(svc.lookup, svc.logger, svc.imgOpts...).Resolve(ctx, students)

	views := make([]EnrollmentView, 0, len(enrolls))
	for _, e := range enrolls {
		views = append(views, EnrollmentView{Enrollment: e, ImageURL: images[e.Student.ID]})
	}
	return views, nil
}
