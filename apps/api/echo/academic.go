package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type academicApi struct {
	svc AcademicService
}

func registerAcademicAPI(g *echo.Group, svc AcademicService) {
	api := academicApi{svc: svc}

	g.GET("/divisions", api.divisions)
	g.GET("/divisions/:id/programs", api.programs)
	g.GET("/programs/:id/groups", api.groups)
	g.GET("/groups/:id", api.group)
	g.GET("/groups/:id/enrollments", api.enrollments, attendanceViewerMiddleware())
}

// Handlers

func (api *academicApi) divisions(ctx echo.Context) error {
	divs, err := api.svc.Divisions(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing divisions")
	}
	return ctx.JSON(http.StatusOK, divs)
}

func (api *academicApi) programs(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	progs, err := api.svc.Programs(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "listing programs")
	}
	return ctx.JSON(http.StatusOK, progs)
}

func (api *academicApi) groups(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	groups, err := api.svc.Groups(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "listing groups")
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *academicApi) group(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	grp, err := api.svc.Group(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "retrieving group")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *academicApi) enrollments(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	enrolls, err := api.svc.Enrollments(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "listing enrollments")
	}
	return ctx.JSON(http.StatusOK, enrolls)
}
