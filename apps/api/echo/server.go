package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/academic"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type (
	AcademicService interface {
		Divisions(ctx context.Context) ([]academic.Division, error)
		Programs(ctx context.Context, divisionID int) ([]academic.Program, error)
		Groups(ctx context.Context, programID int) ([]academic.Group, error)
		Group(ctx context.Context, id int) (academic.Group, error)
		Enrollments(ctx context.Context, groupID int) ([]academic.EnrollmentView, error)
	}

	AttendanceService interface {
		Calendar(ctx context.Context, q attendance.CalendarQuery) (attendance.CalendarView, error)
		Sessions(ctx context.Context, groupID int, from, to string) ([]attendance.Session, error)
	}

	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		AcademicSvc   AcademicService
		AttendanceSvc AttendanceService
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(requestIDMiddleware())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Renderer = newTemplateRenderer()
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/health", s.health)

	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	v1 := s.app.Group("/v1", jwt, forwardTokenMiddleware)
	registerAcademicAPI(v1, s.deps.AcademicSvc)
	attApi := registerAttendanceAPI(v1, s.deps.AttendanceSvc, s.deps.Validate, conf.Calendar.MaxDays)

	// server-rendered pages
	s.app.GET("/groups/:id/calendar", attApi.calendarPage, cookieTokenMiddleware, jwt, forwardTokenMiddleware, attendanceViewerMiddleware())
}

// Start blocks serving HTTP until Shutdown; any other failure is sent over Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the owner of the Server to shut it down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+"!")
}

func (s *Server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "build": s.deps.Conf.Build})
}
