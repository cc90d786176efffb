package catalog

import (
	"github.com/go-playground/validator/v10"

	"github.com/examprep/portal/core"
)

// Section is a part of an exam paper, eg. "Quantitative aptitude: 25 questions, 2 marks each".
type Section struct {
	Name             string  `json:"name" validate:"required,notblank"`
	TopicID          string  `json:"topicId,omitempty"`
	Questions        int     `json:"questions" validate:"min=1"`
	MarksPerQuestion float64 `json:"marksPerQuestion" validate:"gt=0"`
	NegativeMarks    float64 `json:"negativeMarks" validate:"min=0"`
}

func (s Section) TotalMarks() float64 {
	return float64(s.Questions) * s.MarksPerQuestion
}

// ExamPattern describes how an exam paper is laid out.
type ExamPattern struct {
	ID              string    `json:"id"`
	ExamID          string    `json:"examId"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"durationMinutes"`
	Sections        []Section `json:"sections"`
}

func (p ExamPattern) TotalQuestions() int {
	var n int
	for _, s := range p.Sections {
		n += s.Questions
	}
	return n
}

func (p ExamPattern) TotalMarks() float64 {
	var total float64
	for _, s := range p.Sections {
		total += s.TotalMarks()
	}
	return total
}

type ExamPatternWrite struct {
	ExamID          string    `json:"examId" validate:"required"`
	Name            string    `json:"name" validate:"required,notblank,max=200"`
	DurationMinutes int       `json:"durationMinutes" validate:"min=1,max=1440"`
	Sections        []Section `json:"sections" validate:"required,min=1,dive"`
}

func (w *ExamPatternWrite) Validate(validate *validator.Validate) error {
	w.ExamID = core.CleanString(w.ExamID)
	w.Name = core.CleanString(w.Name)
	for i := range w.Sections {
		w.Sections[i].Name = core.CleanString(w.Sections[i].Name)
		w.Sections[i].TopicID = core.CleanString(w.Sections[i].TopicID)
	}
	return validate.Struct(w)
}
