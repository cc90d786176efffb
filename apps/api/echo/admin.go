package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/catalog"
	"github.com/examprep/portal/core/cheatsheet"
	"github.com/examprep/portal/core/codequestion"
	"github.com/examprep/portal/core/question"
)

// maxUploadSize bounds admin image uploads.
const maxUploadSize = 5 << 20

type (
	// crudApi forwards validated writes of W to a backend collection of T.
	crudApi[T any, W any, PW interface {
		*W
		core.Writable
	}] struct {
		deps *Deps
		name string
		col  core.Collection[T]

		// beforeWrite runs after validation; id is empty on create.
		beforeWrite func(ctx echo.Context, w PW, id string) error
		// afterWrite runs after any successful create, update or delete.
		afterWrite func()
	}

	adminApi struct {
		deps *Deps
	}

	uploadResponse struct {
		Ref string `json:"ref"`
		URL string `json:"url"`
	}
)

func registerAdminAPI(g *echo.Group, deps *Deps) {
	cols := deps.Collections
	invalidate := func() {
		if deps.Catalog != nil {
			deps.Catalog.Invalidate()
		}
	}

	(&crudApi[catalog.Exam, catalog.ExamWrite, *catalog.ExamWrite]{
		deps: deps, name: "exam", col: cols.Exams, afterWrite: invalidate,
	}).register(g.Group("/exams"))
	(&crudApi[catalog.Topic, catalog.TopicWrite, *catalog.TopicWrite]{
		deps: deps, name: "topic", col: cols.Topics, afterWrite: invalidate,
	}).register(g.Group("/topics"))
	(&crudApi[catalog.Subtopic, catalog.SubtopicWrite, *catalog.SubtopicWrite]{
		deps: deps, name: "subtopic", col: cols.Subtopics, afterWrite: invalidate,
	}).register(g.Group("/subtopics"))
	(&crudApi[catalog.ExamPattern, catalog.ExamPatternWrite, *catalog.ExamPatternWrite]{
		deps: deps, name: "exam pattern", col: cols.ExamPatterns,
	}).register(g.Group("/exam-patterns"))
	(&crudApi[question.Record, question.Write, *question.Write]{
		deps: deps, name: "question", col: cols.Questions,
		beforeWrite: func(ctx echo.Context, w *question.Write, id string) error {
			return deps.QuestionSvc.CheckWrite(ctx.Request().Context(), contextSession(ctx).Token, w, id)
		},
	}).register(g.Group("/questions"))
	(&crudApi[cheatsheet.Cheatsheet, cheatsheet.Write, *cheatsheet.Write]{
		deps: deps, name: "cheatsheet", col: cols.Cheatsheets,
	}).register(g.Group("/cheatsheets"))
	(&crudApi[codequestion.ProgrammingTopic, codequestion.TopicWrite, *codequestion.TopicWrite]{
		deps: deps, name: "programming topic", col: cols.ProgrammingTopics,
	}).register(g.Group("/programming-topics"))

	cqg := g.Group("/code-questions")
	(&crudApi[codequestion.CodeQuestion, codequestion.Write, *codequestion.Write]{
		deps: deps, name: "code question", col: cols.CodeQuestions,
	}).register(cqg)

	api := adminApi{deps: deps}
	cqg.PATCH("/:id/blocks", api.editBlocks)
	g.POST("/media", api.upload)
}

func (api *crudApi[T, W, PW]) register(g *echo.Group) {
	g.GET("", api.list)
	g.POST("", api.create)
	g.GET("/:id", api.get)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.delete)
}

func (api *crudApi[T, W, PW]) list(ctx echo.Context) error {
	items, err := api.col.List(ctx.Request().Context(), contextSession(ctx).Token, ctx.QueryParams())
	if err != nil {
		return errors.Wrapf(err, "listing %ss", api.name)
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *crudApi[T, W, PW]) get(ctx echo.Context) error {
	item, err := api.col.Get(ctx.Request().Context(), contextSession(ctx).Token, ctx.Param("id"))
	if err != nil {
		return errors.Wrapf(err, "getting %s", api.name)
	}
	return ctx.JSON(http.StatusOK, item)
}

func (api *crudApi[T, W, PW]) bind(ctx echo.Context, id string) (PW, error) {
	data := PW(new(W))
	if err := ctx.Bind(data); err != nil {
		return nil, err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return nil, err
	}
	if api.beforeWrite != nil {
		if err := api.beforeWrite(ctx, data, id); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (api *crudApi[T, W, PW]) create(ctx echo.Context) error {
	data, err := api.bind(ctx, "")
	if err != nil {
		return err
	}
	item, err := api.col.Create(ctx.Request().Context(), contextSession(ctx).Token, data)
	if err != nil {
		return errors.Wrapf(err, "creating %s", api.name)
	}
	api.written()
	return ctx.JSON(http.StatusCreated, item)
}

func (api *crudApi[T, W, PW]) update(ctx echo.Context) error {
	id := ctx.Param("id")
	data, err := api.bind(ctx, id)
	if err != nil {
		return err
	}
	item, err := api.col.Update(ctx.Request().Context(), contextSession(ctx).Token, id, data)
	if err != nil {
		return errors.Wrapf(err, "updating %s", api.name)
	}
	api.written()
	return ctx.JSON(http.StatusOK, item)
}

func (api *crudApi[T, W, PW]) delete(ctx echo.Context) error {
	if err := api.col.Delete(ctx.Request().Context(), contextSession(ctx).Token, ctx.Param("id")); err != nil {
		return errors.Wrapf(err, "deleting %s", api.name)
	}
	api.written()
	return ctx.NoContent(http.StatusNoContent)
}

func (api *crudApi[T, W, PW]) written() {
	if api.afterWrite != nil {
		api.afterWrite()
	}
}

func (api *adminApi) editBlocks(ctx echo.Context) error {
	// decoded by hand: the path binder only fills structs
	var edits []codequestion.Edit
	if err := json.NewDecoder(ctx.Request().Body).Decode(&edits); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "edits must be a JSON array").SetInternal(err)
	}
	if len(edits) == 0 {
		return core.NewFieldError("edits", "at least one edit is required")
	}
	q, err := api.deps.CodeSvc.EditBlocks(ctx.Request().Context(), contextSession(ctx).Token, ctx.Param("id"), edits)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *adminApi) upload(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewFieldError("file", "this field is required")
	}
	if fh.Size > maxUploadSize {
		return core.NewFieldError("file", "file is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer f.Close()

	reqCtx := ctx.Request().Context()
	ref, err := api.deps.Media.Upload(reqCtx, fh.Filename, f, fh.Size, fh.Header.Get(echo.HeaderContentType))
	if err != nil {
		return errors.Wrap(err, "uploading image")
	}
	url, err := api.deps.Media.URL(reqCtx, ref)
	if err != nil {
		api.deps.Logger.Warn("resolving uploaded image", err, contextSession(ctx))
	}
	return ctx.JSON(http.StatusCreated, uploadResponse{Ref: ref, URL: url})
}
