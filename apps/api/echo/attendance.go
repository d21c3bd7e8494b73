package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceApi struct {
	svc      AttendanceService
	validate *validator.Validate
	maxDays  int
}

func registerAttendanceAPI(g *echo.Group, svc AttendanceService, validate *validator.Validate, maxDays int) *attendanceApi {
	api := &attendanceApi{
		svc:      svc,
		validate: validate,
		maxDays:  maxDays,
	}

	g.GET("/groups/:id/sessions", api.sessions, attendanceViewerMiddleware())
	g.GET("/groups/:id/calendar", api.calendar, attendanceViewerMiddleware())

	return api
}

func (api *attendanceApi) query(ctx echo.Context) (attendance.CalendarQuery, error) {
	q, err := bindCalendarQuery(ctx)
	if err != nil {
		return q, err
	}
	if err = q.Validate(api.validate, api.maxDays); err != nil {
		return q, err
	}
	return q, nil
}

// Handlers

func (api *attendanceApi) sessions(ctx echo.Context) error {
	q, err := api.query(ctx)
	if err != nil {
		return err
	}
	sessions, err := api.svc.Sessions(ctx.Request().Context(), q.GroupID, q.From, q.To)
	if err != nil {
		return errors.Wrap(err, "listing sessions")
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *attendanceApi) calendar(ctx echo.Context) error {
	q, err := api.query(ctx)
	if err != nil {
		return err
	}
	view, err := api.svc.Calendar(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "building calendar")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *attendanceApi) calendarPage(ctx echo.Context) error {
	q, err := api.query(ctx)
	if err != nil {
		return err
	}
	view, err := api.svc.Calendar(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "building calendar")
	}
	return ctx.Render(http.StatusOK, calendarTemplate, view)
}
