// Package novels implements novel creation: the form catalog, the draft and
// the multi-step workflow that persists it.
package novels

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oseayemenre/pagesy-reader/internal/events"
	"github.com/oseayemenre/pagesy-reader/internal/logger"
	"github.com/oseayemenre/pagesy-reader/internal/metrics"
	"github.com/oseayemenre/pagesy-reader/internal/models"
	"github.com/oseayemenre/pagesy-reader/internal/session"
	"github.com/oseayemenre/pagesy-reader/internal/store"
)

const (
	CreatedTitle   = "Novel created!"
	CreatedMessage = "Your novel has been successfully created."
	FailedMessage  = "There was an error creating your novel. Please try again."
)

var (
	ErrUnauthenticated = errors.New("you need to be logged in to create a novel")
	ErrCreateNovel     = errors.New("error creating novel")
)

type Warning struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

type Result struct {
	Novel    *models.Novel `json:"novel"`
	Warnings []Warning     `json:"warnings"`
	Redirect string        `json:"redirect"`
}

func EditPath(id string) string {
	return fmt.Sprintf("/author/novels/%s/edit", id)
}

type Workflow struct {
	store   store.Store
	objects store.ObjectStore
	events  events.Publisher
	logger  logger.Logger
}

func NewWorkflow(s store.Store, o store.ObjectStore, p events.Publisher, l logger.Logger) *Workflow {
	if p == nil {
		p = events.Discard{}
	}

	return &Workflow{
		store:   s,
		objects: o,
		events:  p,
		logger:  l,
	}
}

// step is a follow-up to the novel insert. Its failure becomes a warning.
type step struct {
	name    string
	message string
	skip    func(d *Draft) bool
	run     func(ctx context.Context, n *models.Novel, d *Draft) error
}

func (w *Workflow) steps() []step {
	return []step{
		{
			name:    "cover",
			message: "The novel was created but the cover image could not be uploaded.",
			skip:    func(d *Draft) bool { return d.Cover == nil },
			run:     w.uploadCover,
		},
		{
			name:    "genres",
			message: "The novel was created but its genres could not be saved.",
			run:     w.linkGenres,
		},
		{
			name:    "tags",
			message: "The novel was created but its tags could not be saved.",
			skip:    func(d *Draft) bool { return len(d.Tags) == 0 },
			run:     w.linkTags,
		},
	}
}

// Create inserts the novel and then runs every follow-up step. Only the
// insert can fail the call; follow-up failures come back as warnings.
func (w *Workflow) Create(ctx context.Context, actor *session.Actor, d *Draft) (*Result, error) {
	if actor == nil || actor.Id == "" {
		return nil, ErrUnauthenticated
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	novel, err := w.insert(ctx, actor, d)
	if err != nil {
		metrics.NovelCreations.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %w", ErrCreateNovel, err)
	}

	result := &Result{
		Novel:    novel,
		Warnings: []Warning{},
		Redirect: EditPath(novel.Id),
	}

	for _, s := range w.steps() {
		if s.skip != nil && s.skip(d) {
			continue
		}

		if err := s.run(ctx, novel, d); err != nil {
			w.logger.Warn(fmt.Sprintf("error in %s step: %v", s.name, err), "service", "CreateNovel", "novel_id", novel.Id)
			metrics.WorkflowStepFailures.WithLabelValues(s.name).Inc()
			result.Warnings = append(result.Warnings, Warning{Step: s.name, Message: s.message, Err: err})
		}
	}

	if len(result.Warnings) > 0 {
		metrics.NovelCreations.WithLabelValues("created_with_warnings").Inc()
	} else {
		metrics.NovelCreations.WithLabelValues("created").Inc()
	}

	w.announce(ctx, novel)

	return result, nil
}

func (w *Workflow) insert(ctx context.Context, actor *session.Actor, d *Draft) (*models.Novel, error) {
	rows, err := w.store.Insert(ctx, "novels", []store.Row{{
		"title":       d.Title,
		"description": d.Description,
		"status":      string(d.Status),
		"author_id":   actor.Id,
	}})
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("insert returned no row")
	}

	novel := &models.Novel{}
	if err := store.Decode(rows[0], novel); err != nil {
		return nil, err
	}

	if novel.Id == "" {
		return nil, fmt.Errorf("insert returned no id")
	}

	novel.Genres = []models.Genre{}
	novel.Tags = []models.Tag{}
	novel.Chapters = []models.Chapter{}

	return novel, nil
}

func (w *Workflow) uploadCover(ctx context.Context, n *models.Novel, d *Draft) error {
	key := fmt.Sprintf("novels/%s.%s", n.Id, d.Cover.Ext())

	err := w.objects.Upload(ctx, key, bytes.NewReader(d.Cover.Data), store.UploadOptions{
		Overwrite:   true,
		ContentType: d.Cover.Content_type,
	})
	if err != nil {
		return err
	}

	url := w.objects.PublicURL(key)

	if _, err := w.store.Update(ctx, "novels", store.Row{"cover_image": url}, store.Eq("id", n.Id)); err != nil {
		return err
	}

	n.Cover_image = url

	return nil
}

func (w *Workflow) linkGenres(ctx context.Context, n *models.Novel, d *Draft) error {
	rows := make([]store.Row, 0, len(d.Genres))
	for _, g := range d.Genres {
		rows = append(rows, store.Row{"novel_id": n.Id, "genre_id": g.Id})
	}

	if _, err := w.store.Insert(ctx, "novel_genres", rows); err != nil {
		return err
	}

	n.Genres = append(n.Genres, d.Genres...)

	return nil
}

func (w *Workflow) linkTags(ctx context.Context, n *models.Novel, d *Draft) error {
	rows := make([]store.Row, 0, len(d.Tags))
	for _, t := range d.Tags {
		rows = append(rows, store.Row{"novel_id": n.Id, "tag_id": t.Id})
	}

	if _, err := w.store.Insert(ctx, "novel_tags", rows); err != nil {
		return err
	}

	n.Tags = append(n.Tags, d.Tags...)

	return nil
}

func (w *Workflow) announce(ctx context.Context, n *models.Novel) {
	e, err := events.New(events.NovelCreated, events.NovelCreatedPayload{
		Novel_id:  n.Id,
		Author_id: n.Author_id,
		Title:     n.Title,
	})
	if err != nil {
		w.logger.Warn(err.Error(), "service", "CreateNovel")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := w.events.Publish(ctx, e); err != nil {
		w.logger.Warn(fmt.Sprintf("error publishing %s: %v", e.Type, err), "service", "CreateNovel", "novel_id", n.Id)
	}
}
