package question

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/examprep/portal/core"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Filter narrows a practice question list.
// Exam, Topic and Subtopic are resolved by the backend; Search and Difficulty are applied locally.
type Filter struct {
	ExamID     string `query:"exam" json:"exam,omitempty"`
	TopicID    string `query:"topic" json:"topic,omitempty"`
	SubtopicID string `query:"subtopic" json:"subtopic,omitempty"`
	Search     string `query:"search" json:"search,omitempty"`
	Difficulty string `query:"difficulty" json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
	Page       int    `query:"page" json:"page,omitempty" validate:"omitempty,min=1"`
	Limit      int    `query:"limit" json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

func (f *Filter) Clean() {
	f.ExamID = core.CleanString(f.ExamID)
	f.TopicID = core.CleanString(f.TopicID)
	f.SubtopicID = core.CleanString(f.SubtopicID)
	f.Search = core.CleanString(f.Search)
	f.Difficulty = core.CleanString(f.Difficulty, true /* lower */)
}

func (f *Filter) Validate(validate *validator.Validate) error {
	f.Clean()
	return validate.Struct(f)
}

// BackendQuery returns the query parameters understood by `GET /api/questions`.
func (f Filter) BackendQuery() url.Values {
	q := make(url.Values)
	if f.ExamID != "" {
		q.Set("examId", f.ExamID)
	}
	if f.TopicID != "" {
		q.Set("topicId", f.TopicID)
	}
	if f.SubtopicID != "" {
		q.Set("subtopicId", f.SubtopicID)
	}
	return q
}

// Match applies the local part of the filter.
// Search is a case-insensitive match on the question or any of its options.
func (f Filter) Match(rec Record) bool {
	if f.Difficulty != "" && !strings.EqualFold(rec.Difficulty, f.Difficulty) {
		return false
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(rec.QuestionHTML), needle) {
		return true
	}
	for _, opt := range rec.Options {
		if strings.Contains(strings.ToLower(opt.Text), needle) {
			return true
		}
	}
	return false
}

func (f Filter) Apply(records []Record) []Record {
	matched := make([]Record, 0, len(records))
	for _, rec := range records {
		if f.Match(rec) {
			matched = append(matched, rec)
		}
	}
	return matched
}

// Page is one page of a question list.
type Page struct {
	Items      []Record `json:"items"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	Total      int      `json:"total"`
	TotalPages int      `json:"totalPages"`
}

// Paginate slices records into 1-based pages. A page past the end is empty but keeps the totals.
func Paginate(records []Record, page, limit int) Page {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page <= 0 {
		page = 1
	}

	total := len(records)
	p := Page{
		Items:      []Record{},
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
	// compared before multiplying: a huge page must not overflow start
	if page-1 >= p.TotalPages {
		return p
	}
	start := (page - 1) * limit
	end := start + limit
	if end > total {
		end = total
	}
	p.Items = records[start:end]
	return p
}
