package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/services/upstream"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
	errUpstreamDown       = echo.NewHTTPError(http.StatusBadGateway, upstream.ErrUnavailable.Error())
	errUpstreamBadRequest = echo.NewHTTPError(http.StatusBadGateway, "upstream service error")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		if cause == upstream.ErrUnavailable {
			logger.Warn("upstream service unavailable", err, requestExtras(ctx), contextUser(ctx))
			cause = errUpstreamDown
		}
		if sErr, ok := cause.(*upstream.StatusError); ok {
			herr := upstreamHTTPError(sErr)
			if herr.Code == http.StatusBadGateway {
				logger.Error("upstream service error", err, requestExtras(ctx), contextUser(ctx))
			}
			cause = herr
		}

		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			logger.Error(msg, errors.Wrap(err, msg), requestExtras(ctx), contextUser(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// upstreamHTTPError maps the status of a remote service onto our response.
func upstreamHTTPError(err *upstream.StatusError) *echo.HTTPError {
	switch {
	case err.StatusCode == http.StatusNotFound:
		return errHttpNotFound
	case err.StatusCode == http.StatusUnauthorized:
		return errUnauthorized
	case err.StatusCode == http.StatusForbidden:
		return errHttpForbidden
	case err.StatusCode >= 500:
		return errUpstreamDown
	default:
		return errUpstreamBadRequest
	}
}

func requestExtras(ctx echo.Context) map[string]interface{} {
	return map[string]interface{}{
		"method":    ctx.Request().Method,
		"path":      ctx.Request().URL.Path,
		"requestId": ctx.Response().Header().Get(echo.HeaderXRequestID),
	}
}

// contextUser is the authenticated user, if any, for log entries.
func contextUser(ctx echo.Context) user.User {
	usr, _ := getContextUser(ctx)
	return usr
}
