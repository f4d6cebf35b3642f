// Package events carries domain events to connected browsers and to the
// notification worker.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	NovelCreated Type = "novel.created"
)

type Event struct {
	Id          string          `json:"id"`
	Type        Type            `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Occurred_at time.Time       `json:"occurred_at"`
}

type NovelCreatedPayload struct {
	Novel_id  string `json:"novel_id"`
	Author_id string `json:"author_id"`
	Title     string `json:"title"`
}

func New(t Type, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("error marshalling %s payload: %v", t, err)
	}

	return Event{
		Id:          uuid.NewString(),
		Type:        t,
		Payload:     body,
		Occurred_at: time.Now().UTC(),
	}, nil
}

func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("error decoding %s payload: %v", e.Type, err)
	}
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Discard struct{}

func (Discard) Publish(ctx context.Context, e Event) error { return nil }
