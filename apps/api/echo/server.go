package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/quangvd/barem/apps/api/echo/handlers"
	"github.com/quangvd/barem/core"
	"github.com/quangvd/barem/core/exam"
	"github.com/quangvd/barem/core/grading"
	"github.com/quangvd/barem/core/similarity"
)

type (
	Options struct {
		Addr           string
		DisableReqLogs bool

		Conf          *core.Config
		Logger        core.Logger
		Session       *core.Session
		AuthAPI       core.AuthAPI
		ExamSvc       *exam.Service
		Watcher       *exam.ParseWatcher
		GradingMgr    *grading.Manager
		SimilaritySvc *similarity.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	debug := s.opts.Conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || s.opts.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = appHTTPErrorHandler
	s.app.Debug = debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	authed := handlers.SessionMiddleware(s.opts.Session)

	handlers.RegisterAuthAPI(v1, s.opts.AuthAPI, s.opts.Session)
	handlers.RegisterExamAPI(v1, authed, s.opts.ExamSvc, s.opts.Watcher)
	handlers.RegisterGradingAPI(v1, authed, s.opts.GradingMgr)
	handlers.RegisterSimilarityAPI(v1, authed, s.opts.SimilaritySvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Addr))
}

func (s *server) Stop(ctx context.Context) error {
	s.opts.GradingMgr.Close()
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Barem!")
}
