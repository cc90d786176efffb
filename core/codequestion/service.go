package codequestion

import (
	"context"

	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
)

type Service struct {
	questions core.Collection[CodeQuestion]
	presenter *Presenter
}

func NewService(questions core.Collection[CodeQuestion], presenter *Presenter) *Service {
	return &Service{questions: questions, presenter: presenter}
}

// Get returns a presented code question.
func (svc *Service) Get(ctx context.Context, token, id string) (CodeQuestion, error) {
	q, err := svc.questions.Get(ctx, token, id)
	if err != nil {
		return CodeQuestion{}, errors.Wrap(err, "getting code question")
	}
	return svc.presenter.Present(ctx, q)
}

// EditBlocks applies edits in order to the blocks of question id and saves the result.
// Nothing is saved if any edit fails or the resulting blocks are invalid.
func (svc *Service) EditBlocks(ctx context.Context, token, id string, edits []Edit) (CodeQuestion, error) {
	q, err := svc.questions.Get(ctx, token, id)
	if err != nil {
		return CodeQuestion{}, errors.Wrap(err, "getting code question")
	}

	blocks := q.Blocks
	for i, e := range edits {
		if blocks, err = e.Apply(blocks); err != nil {
			if errors.Cause(err) == ErrBlockIndex {
				return CodeQuestion{}, core.NewValidationError(err, core.FieldError{Field: "edits", Error: err.Error()})
			}
			return CodeQuestion{}, errors.Wrapf(err, "edit %d", i)
		}
	}

	w := Write{TopicID: q.TopicID, Title: q.Title, Difficulty: q.Difficulty, Blocks: blocks}
	if fields := w.Blocks.Validate(); fields != nil {
		return CodeQuestion{}, core.NewValidationError(nil, fields...)
	}
	saved, err := svc.questions.Update(ctx, token, id, w)
	if err != nil {
		return CodeQuestion{}, errors.Wrap(err, "saving code question")
	}
	return svc.presenter.Present(ctx, saved)
}
