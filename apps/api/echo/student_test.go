package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examprep/portal/core/catalog"
	"github.com/examprep/portal/core/cheatsheet"
	"github.com/examprep/portal/core/codequestion"
	"github.com/examprep/portal/core/question"
	"github.com/examprep/portal/core/savedq"
)

func recordIDs(records []question.Record) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func Test_studentApi_savedQuestions(t *testing.T) {
	env := setup(t)
	visitor := newVisitor()
	token := env.studentToken

	list := func(t *testing.T) savedq.View {
		rec := env.do(http.MethodGet, "/v1/saved-questions", token, visitor)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var view savedq.View
		unmarshalBody(t, rec, &view)
		return view
	}
	mutate := func(t *testing.T, method, path string, body []byte) []string {
		rec := env.do(method, path, token, visitor, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got struct {
			IDs []string `json:"ids"`
		}
		unmarshalBody(t, rec, &got)
		return got.IDs
	}

	view := list(t)
	assert.Equal(t, savedq.Empty, view.State)
	assert.Empty(t, view.IDs)
	assert.Empty(t, view.Questions)

	rec := env.do(http.MethodPost, "/v1/saved-questions", token, visitor, []byte(`{"id": "  "}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ok, err := jsonBytesEqual(rec.Body.Bytes(), []byte(`{"id": "this field is required"}`))
	require.NoError(t, err)
	assert.True(t, ok, rec.Body.String())

	assert.Equal(t, []string{"q1"}, mutate(t, http.MethodPost, "/v1/saved-questions", []byte(`{"id": "q1"}`)))
	assert.Equal(t, []string{"q1", "gone"}, mutate(t, http.MethodPost, "/v1/saved-questions", []byte(`{"id": "gone"}`)))
	assert.Equal(t, []string{"q1", "gone"}, mutate(t, http.MethodPost, "/v1/saved-questions", []byte(`{"id": "q1"}`)))

	// ids the backend no longer knows are pruned
	view = list(t)
	assert.Equal(t, savedq.Populated, view.State)
	assert.Equal(t, []string{"q1"}, view.IDs)
	require.Len(t, view.Questions, 1)
	assert.Equal(t, "q1", view.Questions[0].ID)
	assert.True(t, view.Questions[0].Saved)

	assert.Empty(t, mutate(t, http.MethodDelete, "/v1/saved-questions/q1", nil))
	assert.Empty(t, mutate(t, http.MethodDelete, "/v1/saved-questions/q1", nil))

	saved, removed := env.backend.calls()
	assert.Equal(t, []string{"q1", "gone"}, saved)
	assert.Equal(t, []string{"q1"}, removed, "removals reach the backend once")

	t.Run("visitors are isolated", func(t *testing.T) {
		other := newVisitor()
		rec := env.do(http.MethodPost, "/v1/saved-questions", "", other, []byte(`{"id": "q3"}`))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, list(t).IDs)

		saved, _ := env.backend.calls()
		assert.Len(t, saved, 2, "anonymous visitors only save locally")
	})
}

func Test_studentApi_practice(t *testing.T) {
	env := setup(t)
	visitor := newVisitor()

	env.runHttpTests(t, []httpTest{
		{name: "bad page", path: "/v1/questions?page=two", wantCode: http.StatusBadRequest, wantData: []byte(`{"page": "must be a number"}`)},
		{name: "bad difficulty", path: "/v1/questions?difficulty=extreme", wantCode: http.StatusBadRequest},
		{name: "unknown question", path: "/v1/questions/nope", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
	})

	rec := env.do(http.MethodPost, "/v1/saved-questions", "", visitor, []byte(`{"id": "q2"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		name      string
		query     string
		wantIDs   []string
		wantSaved []string
		wantTotal int
	}{
		{name: "all", wantIDs: []string{"q1", "q2", "q3"}, wantSaved: []string{"q2"}, wantTotal: 3},
		{name: "subtopic", query: "?subtopic=s1", wantIDs: []string{"q1", "q2"}, wantSaved: []string{"q2"}, wantTotal: 2},
		{name: "difficulty", query: "?difficulty=EASY", wantIDs: []string{"q1", "q3"}, wantSaved: []string{}, wantTotal: 2},
		{name: "paginated", query: "?limit=2&page=2", wantIDs: []string{"q3"}, wantSaved: []string{}, wantTotal: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/v1/questions"+tt.query, "", visitor)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var page question.Page
			unmarshalBody(t, rec, &page)
			assert.Equal(t, tt.wantIDs, recordIDs(page.Items))
			assert.Equal(t, tt.wantTotal, page.Total)
			saved := []string{}
			for _, r := range page.Items {
				if r.Saved {
					saved = append(saved, r.ID)
				}
			}
			assert.Equal(t, tt.wantSaved, saved)
		})
	}

	t.Run("single", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/questions/q2", "", visitor)
		require.Equal(t, http.StatusOK, rec.Code)
		var got question.Record
		unmarshalBody(t, rec, &got)
		assert.Equal(t, "q2", got.ID)
		assert.True(t, got.Saved)
	})
}

func Test_studentApi_content(t *testing.T) {
	env := setup(t)

	t.Run("catalog", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/catalog", "", newVisitor())
		require.Equal(t, http.StatusOK, rec.Code)
		var tree catalog.Tree
		unmarshalBody(t, rec, &tree)
		assert.Equal(t, catalog.Counts{Exams: 1, Topics: 1, Subtopics: 2}, tree.Counts())
	})

	t.Run("cheatsheets", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/cheatsheets/c1", "", newVisitor())
		require.Equal(t, http.StatusOK, rec.Code)
		var sheet cheatsheet.Cheatsheet
		unmarshalBody(t, rec, &sheet)
		assert.Contains(t, sheet.HTML, "<h1")

		rec = env.do(http.MethodGet, "/v1/cheatsheets/c9", "", newVisitor())
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("code question", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/code-questions/cq1", "", newVisitor())
		require.Equal(t, http.StatusOK, rec.Code)
		var q codequestion.CodeQuestion
		unmarshalBody(t, rec, &q)
		require.Len(t, q.Blocks, 1)
		assert.Contains(t, q.Blocks[0].HTML, "<strong>all</strong>")
	})

	t.Run("programming topics", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/programming-topics", "", newVisitor())
		require.Equal(t, http.StatusOK, rec.Code)
		var topics []codequestion.ProgrammingTopic
		unmarshalBody(t, rec, &topics)
		assert.Len(t, topics, 1)
	})
}

func Test_studentApi_dashboard(t *testing.T) {
	env := setup(t)
	visitor := newVisitor()
	rec := env.do(http.MethodPost, "/v1/saved-questions", env.studentToken, visitor, []byte(`{"id": "q1"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []httpTest{
		{
			name: "anonymous", token: "", wantCode: http.StatusOK,
			wantData: []byte(`{"profile": null, "savedQuestions": 1, "catalog": {"exams": 1, "topics": 1, "subtopics": 2}}`),
		},
		{
			name: "student", token: env.studentToken, wantCode: http.StatusOK,
			wantData: []byte(`{
				"profile": {"id": "s1", "name": "Amani", "email": "amani@test.cd", "role": "student"},
				"savedQuestions": 1,
				"catalog": {"exams": 1, "topics": 1, "subtopics": 2}
			}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/v1/dashboard", tt.token, visitor)
			checkCodeAndData(t, tt, rec)
		})
	}
}
