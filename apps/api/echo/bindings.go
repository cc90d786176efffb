package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/question"
)

// bindFilter reads a practice filter from the query string.
func bindFilter(ctx echo.Context) (question.Filter, error) {
	f := question.Filter{
		ExamID:     ctx.QueryParam("exam"),
		TopicID:    ctx.QueryParam("topic"),
		SubtopicID: ctx.QueryParam("subtopic"),
		Search:     ctx.QueryParam("search"),
		Difficulty: ctx.QueryParam("difficulty"),
	}
	var err error
	if f.Page, err = intParam(ctx, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = intParam(ctx, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func intParam(ctx echo.Context, name string) (int, error) {
	val := core.CleanString(ctx.QueryParam(name))
	if val == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, core.NewFieldError(name, "must be a number")
	}
	return n, nil
}
