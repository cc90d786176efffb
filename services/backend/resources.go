package backend

import (
	"net/url"

	"github.com/pkg/errors"

	"github.com/examprep/portal/core/catalog"
	"github.com/examprep/portal/core/cheatsheet"
	"github.com/examprep/portal/core/codequestion"
	"github.com/examprep/portal/core/question"
)

// Resources are the CRUD collections of the backend.
type Resources struct {
	Exams             *Collection[catalog.Exam]
	Topics            *Collection[catalog.Topic]
	Subtopics         *Collection[catalog.Subtopic]
	ExamPatterns      *Collection[catalog.ExamPattern]
	Questions         *Collection[question.Record]
	Cheatsheets       *Collection[cheatsheet.Cheatsheet]
	ProgrammingTopics *Collection[codequestion.ProgrammingTopic]
	CodeQuestions     *Collection[codequestion.CodeQuestion]
}

func (c *Client) Resources() Resources {
	return Resources{
		Exams:             NewCollection[catalog.Exam](c, "/api/exams"),
		Topics:            NewCollection[catalog.Topic](c, "/api/topics"),
		Subtopics:         NewCollection[catalog.Subtopic](c, "/api/subtopics"),
		ExamPatterns:      NewCollection[catalog.ExamPattern](c, "/api/exam-patterns"),
		Questions:         c.questions(),
		Cheatsheets:       NewCollection[cheatsheet.Cheatsheet](c, "/api/cheatsheets"),
		ProgrammingTopics: NewCollection[codequestion.ProgrammingTopic](c, "/api/programming-topics"),
		CodeQuestions:     NewCollection[codequestion.CodeQuestion](c, "/api/code-questions"),
	}
}

// questions validates every decoded option; a list drops (and logs) the invalid questions.
func (c *Client) questions() *Collection[question.Record] {
	return NewCollection[question.Record](c, "/api/questions").
		WithItemPath(func(id string) string { return "/api/questions/id/" + url.PathEscape(id) }).
		WithDecoders(
			func(raw []byte) (question.Record, error) {
				rec, err := question.DecodeRecord(unwrap(raw))
				return rec, errors.Wrap(err, "decoding backend response")
			},
			func(raw []byte) ([]question.Record, error) {
				recs, errs := question.DecodeRecords(unwrap(raw))
				if recs == nil && len(errs) > 0 {
					return nil, errors.Wrap(errs[0], "decoding backend response")
				}
				if len(errs) > 0 && c.logger != nil {
					c.logger.Warn("skipping invalid questions", map[string]interface{}{"count": len(errs)}, errs[0])
				}
				return recs, nil
			},
		)
}
