package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/mahudhurio/core/attendance"
)

// pathID parses the `:id` path param; anything but a positive integer is not found.
func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// bindCalendarQuery reads the group of the path and the `from` & `to` query params.
func bindCalendarQuery(ctx echo.Context) (attendance.CalendarQuery, error) {
	id, err := pathID(ctx)
	if err != nil {
		return attendance.CalendarQuery{}, err
	}
	return attendance.CalendarQuery{
		GroupID: id,
		From:    ctx.QueryParam("from"),
		To:      ctx.QueryParam("to"),
	}, nil
}
