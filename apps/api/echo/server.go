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

	"github.com/kazadi/darasa/core"
	"github.com/kazadi/darasa/core/assignment"
	"github.com/kazadi/darasa/core/school"
	"github.com/kazadi/darasa/core/submission"
	"github.com/kazadi/darasa/core/user"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool
		Validate       *validator.Validate
		Translator     ut.Translator

		UserSvc       user.ServiceInterface
		SchoolSvc     *school.Service
		AssignmentSvc *assignment.Service
		SubmissionSvc *submission.Service
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	registerUserAPI(v1, s.opts.UserSvc, s.opts.Validate)
	registerSchoolAPI(v1, s.opts.SchoolSvc, s.opts.Validate)
	registerAssignmentAPI(v1, s.opts.AssignmentSvc, s.opts.SchoolSvc, s.opts.Validate)
	registerSubmissionAPI(v1, s.opts.SubmissionSvc, s.opts.AssignmentSvc, s.opts.Validate)
}

func (s *server) Start() {
	s.errors <- s.app.Start(s.opts.Conf.Server.Addr)
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
