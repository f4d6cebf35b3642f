package browse

import (
	"strings"

	"github.com/oseayemenre/pagesy-reader/internal/models"
)

const (
	ErrorTitle   = "Error loading novels"
	ErrorMessage = "Please try again later"
	EmptyTitle   = "No novels found"
	EmptyMessage = "Try a different search or check back later"
)

// Matches reports whether query occurs in the card's title, description,
// author or one of its genres, ignoring case.
func Matches(card models.NovelCard, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}

	fields := append([]string{card.Title, card.Description, card.Author}, card.Genres...)

	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}

	return false
}

func filter(cards []models.NovelCard, query string) []models.NovelCard {
	out := []models.NovelCard{}
	for _, c := range cards {
		if Matches(c, query) {
			out = append(out, c)
		}
	}
	return out
}

// Filter narrows both tabs without touching the receiver.
func (l *Listing) Filter(query string) *Listing {
	return &Listing{
		Recent: filter(l.Recent, query),
		All:    filter(l.All, query),
	}
}

type Notice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type Tab struct {
	Novels []models.NovelCard `json:"novels"`
	Empty  *Notice            `json:"empty,omitempty"`
}

type View struct {
	Query             string  `json:"query"`
	Recent            Tab     `json:"recent"`
	All               Tab     `json:"all"`
	Error             *Notice `json:"error,omitempty"`
	Placeholder_count int     `json:"placeholder_count"`
}

func tab(cards []models.NovelCard) Tab {
	t := Tab{Novels: cards}
	if len(cards) == 0 {
		t.Empty = &Notice{Title: EmptyTitle, Message: EmptyMessage}
	}
	return t
}

// View is what the browse page renders for query.
func (l *Listing) View(query string) View {
	filtered := l.Filter(query)

	return View{
		Query:             query,
		Recent:            tab(filtered.Recent),
		All:               tab(filtered.All),
		Placeholder_count: PlaceholderCount,
	}
}

// ErrorView replaces every card with the static error notice.
func ErrorView(query string) View {
	return View{
		Query:             query,
		Recent:            Tab{Novels: []models.NovelCard{}},
		All:               Tab{Novels: []models.NovelCard{}},
		Error:             &Notice{Title: ErrorTitle, Message: ErrorMessage},
		Placeholder_count: PlaceholderCount,
	}
}
