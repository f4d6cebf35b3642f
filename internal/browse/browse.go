// Package browse loads the two novel tabs of the browse page.
package browse

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/oseayemenre/pagesy-reader/internal/models"
	"github.com/oseayemenre/pagesy-reader/internal/store"
)

const (
	PageSize         = 30
	PlaceholderCount = 12
	ListingTable     = "novel_listings"

	fetchTimeout = 15 * time.Second
)

var (
	ErrFetch    = errors.New("error loading novels")
	ErrNotFound = errors.New("novel not found")
)

type Listing struct {
	Recent []models.NovelCard `json:"recent"`
	All    []models.NovelCard `json:"all"`
}

type Service struct {
	store store.Store
	group singleflight.Group
}

func NewService(s store.Store) *Service {
	return &Service{
		store: s,
	}
}

// Fetch loads both tabs. Concurrent callers share a single in-flight load;
// nothing is cached once it returns. The shared load is detached from any one
// caller, so a caller that goes away only abandons its own wait.
func (s *Service) Fetch(ctx context.Context) (*Listing, error) {
	ch := s.group.DoChan("listing", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		return s.fetch(ctx)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrFetch, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Listing), nil
	}
}

func (s *Service) fetch(ctx context.Context) (*Listing, error) {
	var recent, all []models.NovelCard

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cards, err := s.tab(gctx, "updated_at", func(c models.NovelCard) time.Time { return c.Updated_at })
		recent = cards
		return err
	})

	g.Go(func() error {
		cards, err := s.tab(gctx, "created_at", func(c models.NovelCard) time.Time { return c.Created_at })
		all = cards
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	return &Listing{Recent: recent, All: all}, nil
}

func (s *Service) tab(ctx context.Context, orderBy string, key func(models.NovelCard) time.Time) ([]models.NovelCard, error) {
	rows, err := s.store.Select(ctx, store.Query{
		Table: ListingTable,
		Order: &store.Order{Column: orderBy},
		Limit: PageSize,
	})
	if err != nil {
		return nil, err
	}

	cards := make([]models.NovelCard, 0, len(rows))

	for _, row := range rows {
		card, err := Card(row)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	sort.SliceStable(cards, func(i, j int) bool {
		return key(cards[i]).After(key(cards[j]))
	})

	if len(cards) > PageSize {
		cards = cards[:PageSize]
	}

	return cards, nil
}

// Get loads one novel from the listing view.
func (s *Service) Get(ctx context.Context, id string) (models.NovelCard, error) {
	rows, err := s.store.Select(ctx, store.Query{
		Table:   ListingTable,
		Filters: []store.Filter{store.Eq("id", id)},
		Limit:   1,
	})
	if err != nil {
		return models.NovelCard{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	if len(rows) == 0 {
		return models.NovelCard{}, ErrNotFound
	}

	return Card(rows[0])
}
