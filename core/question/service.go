package question

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
)

// Service serves practice question lists and guards admin writes.
type Service struct {
	questions core.Collection[Record]
	media     core.MediaResolver
	logger    core.Logger
}

func NewService(questions core.Collection[Record], media core.MediaResolver, logger core.Logger) *Service {
	if media == nil {
		media = core.PassthroughMedia{}
	}
	return &Service{questions: questions, media: media, logger: logger}
}

// Practice lists the questions matching filter, one page at a time.
// isSaved marks the visitor's saved questions; it may be nil.
func (svc *Service) Practice(ctx context.Context, token string, filter Filter, isSaved func(id string) bool) (Page, error) {
	records, err := svc.questions.List(ctx, token, filter.BackendQuery())
	if err != nil {
		return Page{}, errors.Wrap(err, "listing questions")
	}
	page := Paginate(filter.Apply(records), filter.Page, filter.Limit)
	for i := range page.Items {
		if isSaved != nil {
			page.Items[i].Saved = isSaved(page.Items[i].ID)
		}
	}
	svc.ResolveImages(ctx, page.Items)
	return page, nil
}

// Get returns a single question, images resolved.
func (svc *Service) Get(ctx context.Context, token, id string) (Record, error) {
	rec, err := svc.questions.Get(ctx, token, id)
	if err != nil {
		return Record{}, errors.Wrap(err, "getting question")
	}
	svc.ResolveImages(ctx, []Record{rec})
	return rec, nil
}

// CheckWrite rejects a write duplicating another question of the same subtopic.
func (svc *Service) CheckWrite(ctx context.Context, token string, w *Write, excludeID string) error {
	q := make(url.Values)
	q.Set("subtopicId", w.SubtopicID)
	siblings, err := svc.questions.List(ctx, token, q)
	if err != nil {
		return errors.Wrap(err, "listing subtopic questions")
	}
	return CheckDuplicate(siblings, w.QuestionHTML, excludeID)
}

// ResolveImages fills ImageURL on records and their options, best effort:
// a reference that cannot be resolved is left without URL.
func (svc *Service) ResolveImages(ctx context.Context, records []Record) {
	ResolveImages(ctx, svc.media, svc.logger, records)
}

// ResolveImages resolves record and option image references against media.
func ResolveImages(ctx context.Context, media core.MediaResolver, logger core.Logger, records []Record) {
	resolve := func(ref string) (string, bool) {
		u, err := media.URL(ctx, ref)
		if err != nil {
			if logger != nil {
				logger.Warn("resolving image reference", errors.Wrap(err, ref))
			}
			return "", false
		}
		return u, true
	}
	for i := range records {
		rec := &records[i]
		if rec.ImageRef.Valid && rec.ImageRef.String != "" {
			if u, ok := resolve(rec.ImageRef.String); ok {
				rec.ImageURL.SetValid(u)
			}
		}
		for j := range rec.Options {
			opt := &rec.Options[j]
			if opt.IsImage() && opt.ImageRef.String != "" {
				if u, ok := resolve(opt.ImageRef.String); ok {
					opt.ImageURL.SetValid(u)
				}
			}
		}
	}
}
