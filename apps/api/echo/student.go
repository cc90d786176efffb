package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/catalog"
	"github.com/examprep/portal/core/session"
)

var errNoStorage = errors.New("no storage in echo.Context")

type studentApi struct {
	deps *Deps
}

type (
	savedQuestionRequest struct {
		ID string `json:"id"`
	}

	savedIDsResponse struct {
		IDs []string `json:"ids"`
	}

	dashboard struct {
		Profile        *session.Profile `json:"profile"`
		SavedQuestions int              `json:"savedQuestions"`
		Catalog        catalog.Counts   `json:"catalog"`
	}
)

func registerStudentAPI(g *echo.Group, deps *Deps) {
	api := studentApi{deps: deps}

	sg := g.Group("/saved-questions")
	sg.GET("", api.savedList)
	sg.POST("", api.savedAdd)
	sg.DELETE("/:id", api.savedRemove)

	g.GET("/questions", api.practice)
	g.GET("/questions/:id", api.question)
	g.GET("/catalog", api.catalog)
	g.GET("/cheatsheets", api.cheatsheets)
	g.GET("/cheatsheets/:id", api.cheatsheet)
	g.GET("/programming-topics", api.programmingTopics)
	g.GET("/code-questions/:id", api.codeQuestion)
	g.GET("/dashboard", api.dashboard)
}

// Saved questions

func (api *studentApi) savedList(ctx echo.Context) error {
	store, err := contextStorage(ctx)
	if err != nil {
		return err
	}
	view, err := api.deps.SavedSvc.List(ctx.Request().Context(), store, contextSession(ctx))
	if err != nil {
		return newRetryableError(err, "could not load saved questions")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *studentApi) savedAdd(ctx echo.Context) error {
	data := new(savedQuestionRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	store, err := contextStorage(ctx)
	if err != nil {
		return err
	}
	set, err := api.deps.SavedSvc.Add(ctx.Request().Context(), store, contextSession(ctx), data.ID)
	if err != nil {
		return errors.Wrap(err, "saving question")
	}
	return ctx.JSON(http.StatusOK, savedIDsResponse{IDs: set.IDs()})
}

func (api *studentApi) savedRemove(ctx echo.Context) error {
	store, err := contextStorage(ctx)
	if err != nil {
		return err
	}
	set, err := api.deps.SavedSvc.Remove(ctx.Request().Context(), store, contextSession(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "removing saved question")
	}
	return ctx.JSON(http.StatusOK, savedIDsResponse{IDs: set.IDs()})
}

// Practice

func (api *studentApi) practice(ctx echo.Context) error {
	filter, err := bindFilter(ctx)
	if err != nil {
		return err
	}
	if err := filter.Validate(api.deps.Validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	var isSaved func(string) bool
	if store, err := contextStorage(ctx); err == nil {
		// saved marks are cosmetic: an unreadable set only loses them
		if set, err := api.deps.SavedSvc.IDs(reqCtx, store); err == nil {
			isSaved = set.Has
		} else {
			api.deps.Logger.Warn("reading saved questions for practice list", err)
		}
	}

	page, err := api.deps.QuestionSvc.Practice(reqCtx, contextSession(ctx).Token, filter, isSaved)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *studentApi) question(ctx echo.Context) error {
	rec, err := api.deps.QuestionSvc.Get(ctx.Request().Context(), contextSession(ctx).Token, ctx.Param("id"))
	if err != nil {
		return err
	}
	if store, err := contextStorage(ctx); err == nil {
		rec.Saved, _ = api.deps.SavedSvc.Has(ctx.Request().Context(), store, rec.ID)
	}
	return ctx.JSON(http.StatusOK, rec)
}

// Catalog & content

func (api *studentApi) catalog(ctx echo.Context) error {
	tree, err := api.deps.Catalog.Tree(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tree)
}

func (api *studentApi) cheatsheets(ctx echo.Context) error {
	sheets, err := api.deps.CheatsheetSvc.List(ctx.Request().Context(), contextSession(ctx).Token, ctx.QueryParam("topic"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sheets)
}

func (api *studentApi) cheatsheet(ctx echo.Context) error {
	sheet, err := api.deps.CheatsheetSvc.Get(ctx.Request().Context(), contextSession(ctx).Token, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sheet)
}

func (api *studentApi) programmingTopics(ctx echo.Context) error {
	topics, err := api.deps.Collections.ProgrammingTopics.List(ctx.Request().Context(), contextSession(ctx).Token, nil)
	if err != nil {
		return errors.Wrap(err, "listing programming topics")
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *studentApi) codeQuestion(ctx echo.Context) error {
	q, err := api.deps.CodeSvc.Get(ctx.Request().Context(), contextSession(ctx).Token, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, q)
}

// dashboard summarizes the visitor's state. Each part degrades on its own.
func (api *studentApi) dashboard(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sess := contextSession(ctx)
	var dash dashboard

	if store, err := contextStorage(ctx); err == nil {
		if set, err := api.deps.SavedSvc.IDs(reqCtx, store); err == nil {
			dash.SavedQuestions = set.Len()
		}
	}
	if tree, err := api.deps.Catalog.Tree(reqCtx); err == nil {
		dash.Catalog = tree.Counts()
	} else {
		api.deps.Logger.Warn("loading catalog for dashboard", err, sess)
	}
	if sess.HasToken() {
		if profile, err := api.deps.Auth.Profile(reqCtx, sess.Token); err == nil {
			dash.Profile = &profile
		} else if errors.Cause(err) != core.ErrUnauthorized {
			api.deps.Logger.Warn("probing session for dashboard", err, sess)
		}
	}
	return ctx.JSON(http.StatusOK, dash)
}
