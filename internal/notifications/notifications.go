// Package notifications turns novel.created events into follower
// notifications.
package notifications

import (
	"context"
	"fmt"

	"github.com/oseayemenre/pagesy-reader/internal/events"
	"github.com/oseayemenre/pagesy-reader/internal/store"
)

type Notifier struct {
	store store.Store
}

func NewNotifier(s store.Store) *Notifier {
	return &Notifier{
		store: s,
	}
}

// Handle is an events.Handler. Events other than novel.created are ignored.
func (n *Notifier) Handle(ctx context.Context, e events.Event) error {
	if e.Type != events.NovelCreated {
		return nil
	}

	var payload events.NovelCreatedPayload
	if err := e.Decode(&payload); err != nil {
		return err
	}

	followers, err := n.store.Select(ctx, store.Query{
		Table:   "followers",
		Columns: []string{"follower_id"},
		Filters: []store.Filter{store.Eq("author_id", payload.Author_id)},
	})
	if err != nil {
		return fmt.Errorf("error querying followers, %w", err)
	}

	if len(followers) == 0 {
		return nil
	}

	rows := make([]store.Row, 0, len(followers))

	for _, f := range followers {
		rows = append(rows, store.Row{
			"user_id":  f["follower_id"],
			"novel_id": payload.Novel_id,
			"kind":     string(events.NovelCreated),
			"message":  fmt.Sprintf("%s was just published", payload.Title),
		})
	}

	if _, err := n.store.Insert(ctx, "notifications", rows); err != nil {
		return fmt.Errorf("error inserting user notifications, %w", err)
	}

	return nil
}
