package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/examprep/portal/core"
)

type (
	TopicNode struct {
		Topic
		Subtopics []Subtopic `json:"subtopics"`
	}

	ExamNode struct {
		Exam
		Topics []TopicNode `json:"topics"`
	}

	// Tree is the exam -> topic -> subtopic hierarchy offered as practice filters.
	Tree struct {
		Exams       []ExamNode `json:"exams"`
		RefreshedAt time.Time  `json:"refreshedAt"`
	}

	Counts struct {
		Exams     int `json:"exams"`
		Topics    int `json:"topics"`
		Subtopics int `json:"subtopics"`
	}
)

func (t Tree) Counts() Counts {
	var c Counts
	c.Exams = len(t.Exams)
	for _, e := range t.Exams {
		c.Topics += len(e.Topics)
		for _, tp := range e.Topics {
			c.Subtopics += len(tp.Subtopics)
		}
	}
	return c
}

// BuildTree nests topics and subtopics under their parents. Orphans are dropped.
func BuildTree(exams []Exam, topics []Topic, subtopics []Subtopic) Tree {
	subsByTopic := make(map[string][]Subtopic)
	for _, s := range subtopics {
		subsByTopic[s.TopicID] = append(subsByTopic[s.TopicID], s)
	}
	topicsByExam := make(map[string][]TopicNode)
	for _, tp := range topics {
		subs := subsByTopic[tp.ID]
		if subs == nil {
			subs = []Subtopic{}
		}
		topicsByExam[tp.ExamID] = append(topicsByExam[tp.ExamID], TopicNode{Topic: tp, Subtopics: subs})
	}

	tree := Tree{Exams: make([]ExamNode, 0, len(exams))}
	for _, e := range exams {
		tps := topicsByExam[e.ID]
		if tps == nil {
			tps = []TopicNode{}
		}
		tree.Exams = append(tree.Exams, ExamNode{Exam: e, Topics: tps})
	}
	sort.SliceStable(tree.Exams, func(i, j int) bool { return tree.Exams[i].Name < tree.Exams[j].Name })
	return tree
}

// Cache keeps the latest catalog tree. A failed refresh keeps the previous tree.
type Cache struct {
	exams     core.Collection[Exam]
	topics    core.Collection[Topic]
	subtopics core.Collection[Subtopic]
	logger    core.Logger
	now       func() time.Time

	mu   sync.RWMutex
	tree *Tree
	// stale trees are refreshed on next read but still served if that refresh fails
	stale bool
	// gen is bumped by Invalidate; a refresh started before only stores its tree if gen is unchanged
	gen uint64
}

func NewCache(exams core.Collection[Exam], topics core.Collection[Topic], subtopics core.Collection[Subtopic], logger core.Logger) *Cache {
	return &Cache{
		exams:     exams,
		topics:    topics,
		subtopics: subtopics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Refresh reloads the whole tree from the backend.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err := c.refresh(ctx)
	return err
}

func (c *Cache) refresh(ctx context.Context) (Tree, error) {
	var (
		exams     []Exam
		topics    []Topic
		subtopics []Subtopic
	)
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		exams, err = c.exams.List(gctx, "", nil)
		return errors.Wrap(err, "listing exams")
	})
	g.Go(func() (err error) {
		topics, err = c.topics.List(gctx, "", nil)
		return errors.Wrap(err, "listing topics")
	})
	g.Go(func() (err error) {
		subtopics, err = c.subtopics.List(gctx, "", nil)
		return errors.Wrap(err, "listing subtopics")
	})
	if err := g.Wait(); err != nil {
		return Tree{}, errors.Wrap(err, "refreshing catalog")
	}

	tree := BuildTree(exams, topics, subtopics)
	tree.RefreshedAt = c.now()
	c.mu.Lock()
	if c.gen == gen {
		c.tree = &tree
		c.stale = false
	}
	c.mu.Unlock()
	return tree, nil
}

// Tree returns the cached tree, loading it on first use and reloading it once invalidated.
// A stale tree is served when its reload fails.
func (c *Cache) Tree(ctx context.Context) (Tree, error) {
	c.mu.RLock()
	tree, stale := c.tree, c.stale
	c.mu.RUnlock()
	if tree != nil && !stale {
		return *tree, nil
	}

	fresh, err := c.refresh(ctx)
	if err != nil {
		if tree != nil {
			c.logger.Warn("serving stale catalog", err)
			return *tree, nil
		}
		return Tree{}, err
	}
	return fresh, nil
}

// Invalidate marks the tree stale; used after admin writes to the catalog.
// Refreshes already in flight do not clear the mark.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.stale = true
	c.mu.Unlock()
}

// Schedule refreshes the cache on cr according to spec (eg. "@every 10m").
// Overlapping runs are skipped.
func (c *Cache) Schedule(cr *cron.Cron, spec string, timeout time.Duration) (cron.EntryID, error) {
	if timeout <= 0 {
		timeout = time.Minute
	}
	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := c.Refresh(ctx); err != nil {
			c.logger.Error("scheduled catalog refresh", err)
		}
	}))
	id, err := cr.AddJob(spec, job)
	return id, errors.Wrapf(err, "scheduling catalog refresh %q", spec)
}
