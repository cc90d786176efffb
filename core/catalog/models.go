package catalog

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/examprep/portal/core"
)

type (
	Exam struct {
		ID          string      `json:"id"`
		Name        string      `json:"name"`
		Description null.String `json:"description"`
	}

	Topic struct {
		ID     string `json:"id"`
		ExamID string `json:"examId"`
		Name   string `json:"name"`
	}

	Subtopic struct {
		ID      string `json:"id"`
		TopicID string `json:"topicId"`
		Name    string `json:"name"`
	}
)

type (
	ExamWrite struct {
		Name        string `json:"name" validate:"required,notblank,max=200"`
		Description string `json:"description,omitempty" validate:"max=2000"`
	}

	TopicWrite struct {
		ExamID string `json:"examId" validate:"required"`
		Name   string `json:"name" validate:"required,notblank,max=200"`
	}

	SubtopicWrite struct {
		TopicID string `json:"topicId" validate:"required"`
		Name    string `json:"name" validate:"required,notblank,max=200"`
	}
)

func (w *ExamWrite) Validate(validate *validator.Validate) error {
	w.Name = core.CleanString(w.Name)
	w.Description = core.CleanString(w.Description)
	return validate.Struct(w)
}

func (w *TopicWrite) Validate(validate *validator.Validate) error {
	w.ExamID = core.CleanString(w.ExamID)
	w.Name = core.CleanString(w.Name)
	return validate.Struct(w)
}

func (w *SubtopicWrite) Validate(validate *validator.Validate) error {
	w.TopicID = core.CleanString(w.TopicID)
	w.Name = core.CleanString(w.Name)
	return validate.Struct(w)
}
