package question

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/examprep/portal/core"
	logsvc "github.com/examprep/portal/services/logger"
	"github.com/examprep/portal/tests/fakes"
)

type mediaStub struct{}

func (mediaStub) URL(_ context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, "broken/") {
		return "", errors.New("no such object")
	}
	return "https://cdn.test/" + ref, nil
}

func newQuestions() *fakes.Collection[Record] {
	return fakes.NewCollection(
		func(r Record) string { return r.ID }, func(r *Record, id string) { r.ID = id },
		Record{ID: "q1", SubtopicID: "s1", Difficulty: "easy", QuestionHTML: "<p>What is 2+2?</p>", Options: []Option{
			{ID: "o1", Type: TextOption, Text: "4"}, {ID: "o2", Type: ImageOption, ImageRef: null.StringFrom("opts/five.png")},
		}},
		Record{ID: "q2", SubtopicID: "s1", Difficulty: "hard", QuestionHTML: "<p>Integrate x dx</p>", ImageRef: null.StringFrom("broken/x.png"), Options: []Option{}},
		Record{ID: "q3", SubtopicID: "s2", Difficulty: "easy", QuestionHTML: "<p>Capital of France?</p>", Options: []Option{{ID: "o3", Type: TextOption, Text: "Paris"}}},
	).MatchBy(func(r Record, q url.Values) bool {
		sub := q.Get("subtopicId")
		return sub == "" || sub == r.SubtopicID
	})
}

func TestService_Practice(t *testing.T) {
	ctx := context.Background()
	questions := newQuestions()
	svc := NewService(questions, mediaStub{}, logsvc.NewNopLogger())
	saved := func(id string) bool { return id == "q3" }

	t.Run("filters, paginates and marks", func(t *testing.T) {
		page, err := svc.Practice(ctx, "tok", Filter{Difficulty: "easy", Limit: 1, Page: 2}, saved)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "q3", page.Items[0].ID)
		assert.True(t, page.Items[0].Saved)
		assert.Equal(t, "tok", questions.Tokens[len(questions.Tokens)-1])
	})

	t.Run("backend filter and search on options", func(t *testing.T) {
		page, err := svc.Practice(ctx, "", Filter{SubtopicID: "s2", Search: "PARIS"}, nil)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "q3", page.Items[0].ID)
		assert.Equal(t, "s2", questions.Queries[len(questions.Queries)-1].Get("subtopicId"))
	})

	t.Run("images resolved best effort", func(t *testing.T) {
		page, err := svc.Practice(ctx, "", Filter{SubtopicID: "s1"}, nil)
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "https://cdn.test/opts/five.png", page.Items[0].Options[1].ImageURL.String)
		assert.False(t, page.Items[1].ImageURL.Valid)
	})

	t.Run("backend failure", func(t *testing.T) {
		failing := newQuestions()
		failing.Err = core.ErrUnauthorized
		_, err := NewService(failing, nil, logsvc.NewNopLogger()).Practice(ctx, "", Filter{}, nil)
		assert.Equal(t, core.ErrUnauthorized, errors.Cause(err))
	})
}

func TestService_CheckWrite(t *testing.T) {
	svc := NewService(newQuestions(), nil, logsvc.NewNopLogger())
	ctx := context.Background()

	w := &Write{SubtopicID: "s1", QuestionHTML: "<p>What is 2 + 2?</p>"}
	err := svc.CheckWrite(ctx, "tok", &Write{SubtopicID: "s1", QuestionHTML: "<p>what is 2+2?</p>"}, "")
	assert.True(t, core.IsValidation(err))

	assert.NoError(t, svc.CheckWrite(ctx, "tok", &Write{SubtopicID: "s1", QuestionHTML: "<p>what is 2+2?</p>"}, "q1"))
	assert.NoError(t, svc.CheckWrite(ctx, "tok", &Write{SubtopicID: "s2", QuestionHTML: w.QuestionHTML}, ""))
}
