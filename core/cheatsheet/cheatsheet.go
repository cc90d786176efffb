package cheatsheet

import (
	"context"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
)

// Cheatsheet is a markdown revision note attached to a topic.
// HTML is only filled when presented.
type Cheatsheet struct {
	ID       string `json:"id"`
	TopicID  string `json:"topicId"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html,omitempty"`
}

type Write struct {
	TopicID  string `json:"topicId" validate:"required"`
	Title    string `json:"title" validate:"required,notblank,max=200"`
	Markdown string `json:"markdown" validate:"required,notblank"`
}

func (w *Write) Validate(validate *validator.Validate) error {
	w.TopicID = core.CleanString(w.TopicID)
	w.Title = core.CleanString(w.Title)
	return validate.Struct(w)
}

type Service struct {
	sheets core.Collection[Cheatsheet]
	md     *core.Markdown
}

func NewService(sheets core.Collection[Cheatsheet], md *core.Markdown) *Service {
	if md == nil {
		md = core.NewMarkdown()
	}
	return &Service{sheets: sheets, md: md}
}

// List returns the cheatsheets of a topic (all of them if topicID is empty), without HTML.
func (svc *Service) List(ctx context.Context, token, topicID string) ([]Cheatsheet, error) {
	q := make(url.Values)
	if topicID = core.CleanString(topicID); topicID != "" {
		q.Set("topicId", topicID)
	}
	sheets, err := svc.sheets.List(ctx, token, q)
	if err != nil {
		return nil, errors.Wrap(err, "listing cheatsheets")
	}
	return sheets, nil
}

// Get returns a cheatsheet rendered to HTML.
func (svc *Service) Get(ctx context.Context, token, id string) (Cheatsheet, error) {
	sheet, err := svc.sheets.Get(ctx, token, id)
	if err != nil {
		return Cheatsheet{}, errors.Wrap(err, "getting cheatsheet")
	}
	return svc.Present(sheet)
}

func (svc *Service) Present(sheet Cheatsheet) (Cheatsheet, error) {
	html, err := svc.md.Render(sheet.Markdown)
	if err != nil {
		return Cheatsheet{}, errors.Wrapf(err, "rendering cheatsheet %s", sheet.ID)
	}
	sheet.HTML = html
	return sheet, nil
}
