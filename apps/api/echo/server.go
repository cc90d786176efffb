package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/catalog"
	"github.com/examprep/portal/core/cheatsheet"
	"github.com/examprep/portal/core/codequestion"
	"github.com/examprep/portal/core/question"
	"github.com/examprep/portal/core/savedq"
	"github.com/examprep/portal/core/session"
)

type (
	Options struct {
		Address        string
		AppName        string
		Debug          bool
		TestMode       bool
		DisableReqLogs bool
		CookieSecure   bool
	}

	// Collections are the backend resources exposed to admins.
	Collections struct {
		Exams             core.Collection[catalog.Exam]
		Topics            core.Collection[catalog.Topic]
		Subtopics         core.Collection[catalog.Subtopic]
		ExamPatterns      core.Collection[catalog.ExamPattern]
		Questions         core.Collection[question.Record]
		Cheatsheets       core.Collection[cheatsheet.Cheatsheet]
		ProgrammingTopics core.Collection[codequestion.ProgrammingTopic]
		CodeQuestions     core.Collection[codequestion.CodeQuestion]
	}

	Deps struct {
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		Storage       core.ScopedStorage
		Auth          session.Authenticator
		SavedSvc      savedq.Service
		QuestionSvc   *question.Service
		Catalog       *catalog.Cache
		CheatsheetSvc *cheatsheet.Service
		CodeSvc       *codequestion.Service
		Media         core.MediaStore
		Collections   Collections
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts     Options
		deps     *Deps
		app      *echo.Echo
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts Options, shutdown chan os.Signal, deps *Deps) Server {
	s := &server{
		opts:     opts,
		deps:     deps,
		app:      echo.New(),
		shutdown: shutdown,
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.opts.Debug || s.opts.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1", sessionMiddleware(), visitorMiddleware(s.deps.Storage, s.opts.CookieSecure))
	registerAuthAPI(v1, s.deps, s.opts.CookieSecure)
	registerStudentAPI(v1, s.deps)
	registerAdminAPI(v1.Group("/admin", adminMiddleware()), s.deps)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) signalShutdown() {
	if s.shutdown != nil {
		s.shutdown <- syscall.SIGTERM
	}
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.AppName+"!")
}
