package echoapi

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/user"
)

// permissionMiddleware only lets through the users allowed by perm.
func permissionMiddleware(perm func(user.User) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if perm(usr) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// attendanceViewerMiddleware restricts rosters, sessions and calendars to teachers and admins.
func attendanceViewerMiddleware() echo.MiddlewareFunc {
	return permissionMiddleware(user.User.CanViewAttendance)
}

func requestIDMiddleware() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	})
}
