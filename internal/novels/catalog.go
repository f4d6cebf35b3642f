package novels

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/oseayemenre/pagesy-reader/internal/models"
	"github.com/oseayemenre/pagesy-reader/internal/selector"
	"github.com/oseayemenre/pagesy-reader/internal/store"
)

const (
	CatalogMessage   = "Failed to load genres and tags"
	TagFailedMessage = "Failed to create tag"
)

var (
	ErrCatalog   = errors.New("error loading catalog")
	ErrTagExists = errors.New("a tag with that name already exists")
	ErrTagMatch  = errors.New("tag name matches existing tags")
)

// TagMatchError is returned when a new tag name is contained in existing
// tag names. Matches are the tags the picker would have offered instead.
type TagMatchError struct {
	Matches []models.Tag
}

func (e *TagMatchError) Error() string {
	return ErrTagMatch.Error()
}

func (e *TagMatchError) Is(target error) bool {
	return target == ErrTagMatch
}

type Catalog struct {
	Genres   []models.Genre `json:"genres"`
	Tags     []models.Tag   `json:"tags"`
	Warnings []Warning      `json:"warnings"`
}

func (c *Catalog) Complete() bool {
	return len(c.Warnings) == 0
}

// NameContains matches names containing s, case-insensitively. LIKE
// wildcards in s are matched literally.
func NameContains(s string) store.Filter {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(s))
	return store.ILike("name", "%"+escaped+"%")
}

func ListGenres(ctx context.Context, s store.Store, filters ...store.Filter) ([]models.Genre, error) {
	rows, err := s.Select(ctx, store.Query{Table: "genres", Filters: filters, Order: &store.Order{Column: "name", Ascending: true}})
	if err != nil {
		return nil, fmt.Errorf("error loading genres: %w", err)
	}

	genres := []models.Genre{}
	if err := store.Decode(rows, &genres); err != nil {
		return nil, err
	}

	return genres, nil
}

func ListTags(ctx context.Context, s store.Store, filters ...store.Filter) ([]models.Tag, error) {
	rows, err := s.Select(ctx, store.Query{Table: "tags", Filters: filters, Order: &store.Order{Column: "name", Ascending: true}})
	if err != nil {
		return nil, fmt.Errorf("error loading tags: %w", err)
	}

	tags := []models.Tag{}
	if err := store.Decode(rows, &tags); err != nil {
		return nil, err
	}

	return tags, nil
}

// LoadCatalog fetches genres and tags side by side. A failed half is
// reported as a warning and comes back empty; the other half is kept.
func (w *Workflow) LoadCatalog(ctx context.Context) *Catalog {
	c := &Catalog{Genres: []models.Genre{}, Tags: []models.Tag{}, Warnings: []Warning{}}

	var genresErr, tagsErr error
	var g errgroup.Group

	g.Go(func() error {
		genres, err := ListGenres(ctx, w.store)
		if err != nil {
			genresErr = err
			return nil
		}
		c.Genres = genres
		return nil
	})

	g.Go(func() error {
		tags, err := ListTags(ctx, w.store)
		if err != nil {
			tagsErr = err
			return nil
		}
		c.Tags = tags
		return nil
	})

	g.Wait()

	for _, e := range []struct {
		step string
		err  error
	}{{"genres", genresErr}, {"tags", tagsErr}} {
		if e.err != nil {
			w.logger.Warn(fmt.Sprintf("error loading catalog: %v", e.err), "service", "LoadCatalog")
			c.Warnings = append(c.Warnings, Warning{Step: e.step, Message: CatalogMessage, Err: e.err})
		}
	}

	return c
}

func unknownIDs(field, label string, ids []string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return &ValidationError{Fields: map[string]string{field: fmt.Sprintf("Unknown %s %s", label, id)}}
		}
	}
	return nil
}

// ResolveCatalog loads only the genres and tags named by ids. Malformed ids
// are rejected before any query runs; ids that load nothing are left for the
// form to reject.
func (w *Workflow) ResolveCatalog(ctx context.Context, genreIDs, tagIDs []string) (*Catalog, error) {
	if err := unknownIDs("genres", "genre", genreIDs); err != nil {
		return nil, err
	}
	if err := unknownIDs("tags", "tag", tagIDs); err != nil {
		return nil, err
	}

	c := &Catalog{Genres: []models.Genre{}, Tags: []models.Tag{}, Warnings: []Warning{}}

	g, gctx := errgroup.WithContext(ctx)

	if len(genreIDs) > 0 {
		g.Go(func() error {
			genres, err := ListGenres(gctx, w.store, store.In("id", genreIDs))
			c.Genres = genres
			return err
		})
	}

	if len(tagIDs) > 0 {
		g.Go(func() error {
			tags, err := ListTags(gctx, w.store, store.In("id", tagIDs))
			c.Tags = tags
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalog, err)
	}

	return c, nil
}

// CreateTag is the creator behind the tag picker.
func (w *Workflow) CreateTag(ctx context.Context, name string) (models.Tag, error) {
	rows, err := w.store.Insert(ctx, "tags", []store.Row{{"name": name}})
	if err != nil {
		return models.Tag{}, fmt.Errorf("error creating tag: %w", err)
	}

	if len(rows) == 0 {
		return models.Tag{}, fmt.Errorf("error creating tag: no row returned")
	}

	var tag models.Tag
	if err := store.Decode(rows[0], &tag); err != nil {
		return models.Tag{}, err
	}

	return tag, nil
}

// Form binds the pickers to a draft: every selection change is written
// straight into the draft.
type Form struct {
	Draft  *Draft
	Genres *selector.Selector[models.Genre]
	Tags   *selector.Creatable[models.Tag]
}

// NewForm builds the pickers over c. A nil draft starts a blank one.
func (w *Workflow) NewForm(c *Catalog, d *Draft) *Form {
	if d == nil {
		d = &Draft{Status: models.StatusOngoing}
	}

	f := &Form{Draft: d}

	f.Genres = selector.New(c.Genres, nil, func(selected []models.Genre) {
		f.Draft.Genres = selected
	})

	f.Tags = selector.NewCreatable(selector.New(c.Tags, nil, func(selected []models.Tag) {
		f.Draft.Tags = selected
	}), w.CreateTag)

	return f
}

// selectExactly makes the selection exactly ids, adding missing ones in
// order. Unknown ids leave the selection untouched.
func selectExactly[T selector.Item](s *selector.Selector[T], ids []string) (string, bool) {
	known := map[string]bool{}
	for _, c := range s.Candidates() {
		known[c.Key()] = true
	}

	want := map[string]bool{}
	for _, id := range ids {
		if !known[id] {
			return id, false
		}
		want[id] = true
	}

	for _, chip := range s.Chips() {
		if !want[chip.Key] {
			s.RemoveChip(chip.Key)
		}
	}

	for _, id := range ids {
		if !s.IsSelected(id) {
			s.ToggleKey(id)
		}
	}

	return "", true
}

func (f *Form) SelectGenres(ids []string) error {
	if id, ok := selectExactly(f.Genres, ids); !ok {
		return &ValidationError{Fields: map[string]string{"genres": fmt.Sprintf("Unknown genre %s", id)}}
	}
	return nil
}

func (f *Form) SelectTags(ids []string) error {
	if id, ok := selectExactly(f.Tags.Selector, ids); !ok {
		return &ValidationError{Fields: map[string]string{"tags": fmt.Sprintf("Unknown tag %s", id)}}
	}
	return nil
}

// AddTag creates name through the tag picker. A tag with the same name is
// ErrTagExists; names contained in existing tags come back as a
// *TagMatchError listing them.
func (f *Form) AddTag(ctx context.Context, name string) (models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Tag{}, &ValidationError{Fields: map[string]string{"name": "Tag name is required"}}
	}

	f.Tags.SetInput(name)

	if !f.Tags.CanCreate() {
		matches := f.Tags.Search(name)
		for _, m := range matches {
			if strings.EqualFold(m.Label(), name) {
				return models.Tag{}, ErrTagExists
			}
		}
		return models.Tag{}, &TagMatchError{Matches: matches}
	}

	return f.Tags.Create(ctx)
}
