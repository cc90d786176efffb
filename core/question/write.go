package question

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/examprep/portal/core"
)

// maxSimilarity is the go-difflib ratio above which two questions are considered duplicates.
const maxSimilarity = .9

var errDuplicateText = "a very similar question already exists in this subtopic"

// OptionWrite is an answer option sent by the admin screens.
type OptionWrite struct {
	Type     OptionType `json:"type" validate:"required,oneof=text image"`
	Text     string     `json:"text"`
	ImageRef string     `json:"imageRef,omitempty"`
}

// Write defines what information may be provided to create or modify a question.
type Write struct {
	SubtopicID      string        `json:"subtopicId" validate:"required"`
	Difficulty      string        `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
	QuestionHTML    string        `json:"questionHtml" validate:"required,notblank"`
	AnswerText      string        `json:"answerText" validate:"required,notblank"`
	ExplanationHTML string        `json:"explanationHtml,omitempty"`
	ImageRef        string        `json:"imageRef,omitempty"`
	Options         []OptionWrite `json:"options" validate:"required,min=2,dive"`
}

func (w *Write) Validate(validate *validator.Validate) error {
	w.SubtopicID = core.CleanString(w.SubtopicID)
	w.Difficulty = core.CleanString(w.Difficulty, true /* lower */)
	w.QuestionHTML = core.CleanString(w.QuestionHTML)
	w.AnswerText = core.CleanString(w.AnswerText)
	w.ExplanationHTML = core.CleanString(w.ExplanationHTML)
	w.ImageRef = core.CleanString(w.ImageRef)
	for i := range w.Options {
		w.Options[i].Type = OptionType(core.CleanString(string(w.Options[i].Type), true /* lower */))
		w.Options[i].Text = core.CleanString(w.Options[i].Text)
		w.Options[i].ImageRef = core.CleanString(w.Options[i].ImageRef)
	}

	if err := validate.Struct(w); err != nil {
		return err
	}

	var fields []core.FieldError
	for i, opt := range w.Options {
		switch {
		case opt.Type == TextOption && opt.Text == "":
			fields = append(fields, core.FieldError{Field: fmt.Sprintf("options[%d].text", i), Error: "this field is required"})
		case opt.Type == ImageOption && opt.ImageRef == "":
			fields = append(fields, core.FieldError{Field: fmt.Sprintf("options[%d].imageRef", i), Error: "this field is required"})
		}
	}
	if fields != nil {
		return core.NewValidationError(nil, fields...)
	}
	return nil
}

// CheckDuplicate rejects text that is too similar to one of the existing questions.
// excludeID is the question being updated, if any.
func CheckDuplicate(existing []Record, text, excludeID string) error {
	words := normalizedWords(text)
	if len(words) == 0 {
		return nil
	}
	for _, rec := range existing {
		if rec.ID == excludeID {
			continue
		}
		m := difflib.NewMatcher(words, normalizedWords(rec.QuestionHTML))
		if m.Ratio() >= maxSimilarity {
			return core.NewFieldError("questionHtml", errDuplicateText)
		}
	}
	return nil
}

func normalizedWords(html string) []string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Fields(strings.ToLower(b.String()))
}
