package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/profileimg"
)

var (
	nowFunc = time.Now // mockable

	// ErrSuperseded is returned when a newer refresh took over the image batch of a calendar.
	ErrSuperseded = errors.New("calendar superseded by a newer refresh")
)

type (
	// Client reads the remote attendance service.
	Client interface {
		Records(ctx context.Context, groupID int, from, to string) ([]Record, error)
		Sessions(ctx context.Context, groupID int, from, to string) ([]Session, error)
	}

	ImageResolver interface {
		Resolve(ctx context.Context, students []core.Student) (profileimg.URLMap, bool)
	}

	Service struct {
		client  Client
		lookup  profileimg.FileLookup
		agg     *Aggregator
		logger  core.Logger
		imgOpts []profileimg.Option
	}
)

func NewService(client Client, lookup profileimg.FileLookup, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		client: client,
		lookup: lookup,
		agg:    NewAggregator(logger),
		logger: logger,
		imgOpts: []profileimg.Option{
			profileimg.WithConcurrency(conf.Images.MaxConcurrentLookups),
			profileimg.WithLookupTimeout(conf.Images.LookupTimeout),
		},
	}
}

// NewResolver returns a profile image resolver configured like the ones of Calendar.
func (svc *Service) NewResolver() *profileimg.Resolver {
	return profileimg.NewResolver(svc.lookup, svc.logger, svc.imgOpts...)
}

// Calendar builds the attendance calendar of a group with its own image resolver.
func (svc *Service) Calendar(ctx context.Context, q CalendarQuery) (CalendarView, error) {
	return svc.CalendarUsing(ctx, q, svc.NewResolver())
}

// CalendarUsing builds the attendance calendar of a group, resolving images with r.
// It returns ErrSuperseded when r started a newer batch before this one settled.
func (svc *Service) CalendarUsing(ctx context.Context, q CalendarQuery, r ImageResolver) (CalendarView, error) {
	records, err := svc.client.Records(ctx, q.GroupID, q.From, q.To)
	if err != nil {
		return CalendarView{}, errors.Wrap(err, "fetching attendance records")
	}

	agg := svc.agg.Aggregate(records)

	images, ok := r.Resolve(ctx, agg.Students)
	if !ok {
		return CalendarView{}, ErrSuperseded
	}
	return NewCalendarView(q, agg, images, nowFunc()), nil
}

// Sessions lists the attendance sessions of a group over [from, to], by date.
func (svc *Service) Sessions(ctx context.Context, groupID int, from, to string) ([]Session, error) {
	sessions, err := svc.client.Sessions(ctx, groupID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "fetching attendance sessions")
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Date != sessions[j].Date {
			return sessions[i].Date < sessions[j].Date
		}
		return sessions[i].ID < sessions[j].ID
	})
	if sessions == nil {
		sessions = []Session{}
	}
	return sessions, nil
}
