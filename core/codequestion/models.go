package codequestion

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
)

type (
	ProgrammingTopic struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Language string `json:"language"`
	}

	CodeQuestion struct {
		ID         string `json:"id"`
		TopicID    string `json:"topicId"`
		Title      string `json:"title"`
		Difficulty string `json:"difficulty,omitempty"`
		Blocks     Blocks `json:"blocks"`
	}

	TopicWrite struct {
		Name     string `json:"name" validate:"required,notblank,max=200"`
		Language string `json:"language" validate:"required,notblank,max=50"`
	}

	Write struct {
		TopicID    string `json:"topicId" validate:"required"`
		Title      string `json:"title" validate:"required,notblank,max=300"`
		Difficulty string `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
		Blocks     Blocks `json:"blocks" validate:"required,min=1"`
	}
)

func (w *TopicWrite) Validate(validate *validator.Validate) error {
	w.Name = core.CleanString(w.Name)
	w.Language = core.CleanString(w.Language, true /* lower */)
	return validate.Struct(w)
}

func (w *Write) Validate(validate *validator.Validate) error {
	w.TopicID = core.CleanString(w.TopicID)
	w.Title = core.CleanString(w.Title)
	w.Difficulty = core.CleanString(w.Difficulty, true /* lower */)
	for i := range w.Blocks {
		w.Blocks[i].Type = BlockType(core.CleanString(string(w.Blocks[i].Type), true /* lower */))
		w.Blocks[i].Language = core.CleanString(w.Blocks[i].Language, true /* lower */)
		w.Blocks[i].ImageRef = core.CleanString(w.Blocks[i].ImageRef)
		w.Blocks[i].HTML, w.Blocks[i].ImageURL = "", ""
	}

	if err := validate.Struct(w); err != nil {
		return err
	}
	if fields := w.Blocks.Validate(); fields != nil {
		return core.NewValidationError(nil, fields...)
	}
	return nil
}

// Presenter renders code questions for display: markdown text blocks to HTML, image references to URLs.
type Presenter struct {
	md     *core.Markdown
	media  core.MediaResolver
	logger core.Logger
}

func NewPresenter(md *core.Markdown, media core.MediaResolver, logger core.Logger) *Presenter {
	if md == nil {
		md = core.NewMarkdown()
	}
	if media == nil {
		media = core.PassthroughMedia{}
	}
	return &Presenter{md: md, media: media, logger: logger}
}

func (p *Presenter) Present(ctx context.Context, q CodeQuestion) (CodeQuestion, error) {
	blocks := make(Blocks, len(q.Blocks))
	for i, b := range q.Blocks {
		switch b.Type {
		case TextBlock:
			html, err := p.md.Render(b.Text)
			if err != nil {
				return CodeQuestion{}, errors.Wrapf(err, "rendering block %d of %s", i, q.ID)
			}
			b.HTML = html
		case ImageBlock:
			u, err := p.media.URL(ctx, b.ImageRef)
			if err != nil {
				p.logger.Warn("resolving block image", err, map[string]interface{}{"question_id": q.ID, "block": i})
			} else {
				b.ImageURL = u
			}
		}
		blocks[i] = b
	}
	q.Blocks = blocks
	return q, nil
}
