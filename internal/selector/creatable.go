package selector

import (
	"context"
	"errors"
	"strings"
)

var ErrCannotCreate = errors.New("nothing to create")

// Creator persists a new candidate named name.
type Creator[T Item] func(ctx context.Context, name string) (T, error)

// Creatable is a Selector whose search input can become a new candidate
// when nothing matches it.
type Creatable[T Item] struct {
	*Selector[T]

	create Creator[T]
	input  string
}

func NewCreatable[T Item](s *Selector[T], create Creator[T]) *Creatable[T] {
	return &Creatable[T]{
		Selector: s,
		create:   create,
	}
}

func (c *Creatable[T]) SetInput(input string) {
	c.input = input
}

func (c *Creatable[T]) Input() string {
	return c.input
}

func (c *Creatable[T]) CanCreate() bool {
	name := strings.TrimSpace(c.input)
	return name != "" && c.create != nil && len(c.Search(name)) == 0
}

// Create persists the typed input, appends it to the candidates, selects it
// and clears the input. On failure the selector is left untouched.
func (c *Creatable[T]) Create(ctx context.Context) (T, error) {
	var zero T

	if !c.CanCreate() {
		return zero, ErrCannotCreate
	}

	item, err := c.create(ctx, strings.TrimSpace(c.input))
	if err != nil {
		return zero, err
	}

	c.addCandidate(item)
	if !c.IsSelected(item.Key()) {
		c.Toggle(item)
	}
	c.input = ""

	return item, nil
}
