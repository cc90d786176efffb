package question

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// OptionType tags the Option variant.
type OptionType string

const (
	TextOption  OptionType = "text"
	ImageOption OptionType = "image"
)

// Difficulty levels
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

var (
	errMissingID       = errors.New("question: missing id")
	errUnknownOptType  = errors.New("option: unknown type")
	errTextOptNoText   = errors.New("option: text option without text")
	errImageOptNoImage = errors.New("option: image option without imageRef")
)

// Option is either a TextOption (Text set) or an ImageOption (ImageRef set, Text is an optional caption).
type Option struct {
	ID       string      `json:"id"`
	Type     OptionType  `json:"type"`
	Text     string      `json:"text"`
	ImageRef null.String `json:"imageRef"`
	ImageURL null.String `json:"imageUrl"`
}

func (o Option) IsImage() bool { return o.Type == ImageOption }

func (o Option) validate() error {
	switch o.Type {
	case TextOption:
		if o.Text == "" {
			return errTextOptNoText
		}
	case ImageOption:
		if o.ImageRef.String == "" {
			return errImageOptNoImage
		}
	default:
		return errors.Wrapf(errUnknownOptType, "%q", o.Type)
	}
	return nil
}

// UnmarshalJSON rejects options that are neither a valid text nor a valid image option.
// A missing type defaults to text, as older backend payloads omit it.
func (o *Option) UnmarshalJSON(data []byte) error {
	type option Option // drop methods to avoid recursion
	var opt option
	if err := json.Unmarshal(data, &opt); err != nil {
		return err
	}
	if opt.Type == "" {
		opt.Type = TextOption
	}
	if err := Option(opt).validate(); err != nil {
		return err
	}
	*o = Option(opt)
	return nil
}

// Record is the frontend's read-only copy of a backend question.
type Record struct {
	ID              string      `json:"id"`
	SubtopicID      string      `json:"subtopicId,omitempty"`
	Difficulty      string      `json:"difficulty,omitempty"`
	QuestionHTML    string      `json:"questionHtml"`
	AnswerText      string      `json:"answerText"`
	ExplanationHTML null.String `json:"explanationHtml"`
	ImageRef        null.String `json:"imageRef"`
	ImageURL        null.String `json:"imageUrl"`
	Options         []Option    `json:"options"`
	Saved           bool        `json:"saved"`
}

// DecodeRecord decodes a single question payload. The backend answers either with the
// question itself or with `{"question": {...}, "options": [...]}`.
func DecodeRecord(data []byte) (Record, error) {
	var envelope struct {
		Question json.RawMessage `json:"question"`
		Options  []Option        `json:"options"`
	}
	data = bytes.TrimSpace(data)
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Record{}, errors.Wrap(err, "decoding question")
	}

	var rec Record
	if len(envelope.Question) > 0 && envelope.Question[0] == '{' {
		if err := json.Unmarshal(envelope.Question, &rec); err != nil {
			return Record{}, errors.Wrap(err, "decoding question")
		}
		if envelope.Options != nil {
			rec.Options = envelope.Options
		}
	} else if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, errors.Wrap(err, "decoding question")
	}

	if rec.ID == "" {
		return Record{}, errMissingID
	}
	if rec.Options == nil {
		rec.Options = []Option{}
	}
	return rec, nil
}

// DecodeRecords decodes a list of questions. Invalid entries are skipped and reported.
func DecodeRecords(data []byte) ([]Record, []error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, []error{errors.Wrap(err, "decoding questions")}
	}
	records := make([]Record, 0, len(raws))
	var errs []error
	for i, raw := range raws {
		rec, err := DecodeRecord(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("questions[%d]: %w", i, err))
			continue
		}
		records = append(records, rec)
	}
	return records, errs
}
