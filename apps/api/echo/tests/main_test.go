package tests

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	. "github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/academic"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/services/upstream"
	"github.com/trezcool/mahudhurio/testutil"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
	errUpstreamDown = httpErr{Error: "upstream service unavailable"}

	student = user.User{ID: "1", Username: "hero", Email: "hero@test.cd", Roles: []string{user.RoleStudent}}
	teacher = user.User{ID: "2", Username: "teacher", Email: "teacher@test.cd", Roles: []string{user.RoleTeacher}}
	admin   = user.User{ID: "3", Username: "admin", Email: "admin@test.cd", Roles: []string{user.RoleAdminPrincipal}}
)

func testConfig(upstreamURL string) *core.Config {
	return &core.Config{
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		AppName:   "Mahudhurio",
		SecretKey: "test-secret-key",
		Server:    core.ServerConfig{DisableReqLogs: true},
		Services: core.ServicesConfig{
			AcademicURL:   upstreamURL,
			AttendanceURL: upstreamURL,
			StorageURL:    upstreamURL,
			Timeout:       time.Second,
		},
		Images:   core.ImagesConfig{MaxConcurrentLookups: 4, LookupTimeout: time.Second},
		Calendar: core.CalendarConfig{MaxDays: 92},
	}
}

type testApp struct {
	*Server
	conf     *core.Config
	upstream *testutil.Upstream
	logger   *testutil.Logger
}

// setup starts a Server wired to a single fake upstream serving all the remote services.
func setup(t *testing.T) *testApp {
	up := testutil.NewUpstream(t)
	app := setupWithURL(t, up.URL)
	app.upstream = up
	return app
}

func setupWithURL(t *testing.T, url string) *testApp {
	conf := testConfig(url)
	logger := testutil.NewLogger()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	storage := upstream.NewStorageClient(conf)
	srv := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        logger,
		AcademicSvc:   academic.NewService(upstream.NewAcademicClient(conf), storage, logger, conf),
		AttendanceSvc: attendance.NewService(upstream.NewAttendanceClient(conf), storage, logger, conf),
		Validate:      validate,
		Translator:    translator,
	})
	return &testApp{Server: srv, conf: conf, logger: logger}
}
