package savedq

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/question"
	"github.com/examprep/portal/core/session"
)

// DefaultConcurrency bounds the number of in-flight question fetches.
const DefaultConcurrency = 8

// Fetcher fetches one question, with its options, by id.
type Fetcher interface {
	Question(ctx context.Context, token, id string) (question.Record, error)
}

// Hydration is the outcome of a fan-out. Records follow the order of the requested ids.
type Hydration struct {
	Records []question.Record
	// Stale ids are unknown to the backend; they will never hydrate.
	Stale []string
	// Failed ids may hydrate on a later attempt.
	Failed []string
}

type Hydrator struct {
	fetcher     Fetcher
	concurrency int
	logger      core.Logger
}

func NewHydrator(fetcher Fetcher, concurrency int, logger core.Logger) *Hydrator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Hydrator{fetcher: fetcher, concurrency: concurrency, logger: logger}
}

// Hydrate fetches every id concurrently. A failed fetch drops that id from Records
// instead of failing the whole operation.
func (h *Hydrator) Hydrate(ctx context.Context, sess session.Session, ids []string) Hydration {
	hyd := Hydration{Records: make([]question.Record, 0, len(ids))}
	if len(ids) == 0 {
		return hyd
	}

	type result struct {
		rec question.Record
		err error
	}
	results := make([]result, len(ids))

	var g errgroup.Group
	g.SetLimit(h.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			rec, err := h.fetcher.Question(ctx, sess.Token, id)
			results[i] = result{rec: rec, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		switch {
		case res.err == nil:
			hyd.Records = append(hyd.Records, res.rec)
		case errors.Cause(res.err) == core.ErrNotFound:
			hyd.Stale = append(hyd.Stale, ids[i])
		default:
			hyd.Failed = append(hyd.Failed, ids[i])
			h.logger.Debug("hydrating saved question", res.err, map[string]interface{}{"question_id": ids[i]})
		}
	}
	return hyd
}
