package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	PlaceholderCover = "https://picsum.photos/800/1200"
	MaxRating        = 5
)

type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusHiatus    Status = "hiatus"
)

// ParseStatus accepts any casing of the three lifecycle states. An empty
// value means a freshly created novel and maps to ongoing.
func ParseStatus(s string) (Status, error) {
	switch status := Status(strings.ToLower(strings.TrimSpace(s))); status {
	case "":
		return StatusOngoing, nil
	case StatusOngoing, StatusCompleted, StatusHiatus:
		return status, nil
	default:
		return "", fmt.Errorf("invalid status %q", s)
	}
}

func (s Status) Valid() bool {
	return s == StatusOngoing || s == StatusCompleted || s == StatusHiatus
}

type Author struct {
	Id           string `json:"id" mapstructure:"id"`
	Username     string `json:"username" mapstructure:"username"`
	Display_name string `json:"display_name,omitempty" mapstructure:"display_name"`
}

// Label is the human readable author name.
func (a *Author) Label() string {
	if a == nil {
		return ""
	}
	if a.Display_name != "" {
		return a.Display_name
	}
	return a.Username
}

type Genre struct {
	Id   string `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"name"`
}

func (g Genre) Key() string   { return g.Id }
func (g Genre) Label() string { return g.Name }

type Tag struct {
	Id   string `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"name"`
}

func (t Tag) Key() string   { return t.Id }
func (t Tag) Label() string { return t.Name }

type Chapter struct {
	Id             string    `json:"id" mapstructure:"id"`
	Title          string    `json:"title" mapstructure:"title"`
	Chapter_number int       `json:"chapter_number" mapstructure:"chapter_number"`
	Novel_id       string    `json:"novel_id" mapstructure:"novel_id"`
	Is_premium     bool      `json:"is_premium" mapstructure:"is_premium"`
	Coin_cost      int       `json:"coin_cost" mapstructure:"coin_cost"`
	Views          int       `json:"views" mapstructure:"views"`
	Content        string    `json:"content" mapstructure:"content"`
	Created_at     time.Time `json:"created_at" mapstructure:"created_at"`
	Updated_at     time.Time `json:"updated_at" mapstructure:"updated_at"`
}

type Novel struct {
	Id          string    `json:"id" mapstructure:"id"`
	Title       string    `json:"title" mapstructure:"title"`
	Description string    `json:"description" mapstructure:"description"`
	Cover_image string    `json:"cover_image" mapstructure:"cover_image"`
	Author_id   string    `json:"author_id" mapstructure:"author_id"`
	Author      *Author   `json:"author,omitempty" mapstructure:"-"`
	Status      Status    `json:"status" mapstructure:"status"`
	Views       int       `json:"views" mapstructure:"views"`
	Rating      float64   `json:"rating" mapstructure:"-"`
	Genres      []Genre   `json:"genres" mapstructure:"-"`
	Tags        []Tag     `json:"tags" mapstructure:"-"`
	Chapters    []Chapter `json:"chapters" mapstructure:"-"`
	Created_at  time.Time `json:"created_at" mapstructure:"created_at"`
	Updated_at  time.Time `json:"updated_at" mapstructure:"updated_at"`
}

// CoverURL never returns an empty string.
func (n *Novel) CoverURL() string {
	return CoverURL(n.Cover_image)
}

func CoverURL(image string) string {
	if strings.TrimSpace(image) == "" {
		return PlaceholderCover
	}
	return image
}

// AverageRating is the arithmetic mean of ratings, 0 when there are none.
// Nil entries count as 0 and the mean is kept within [0, MaxRating].
func AverageRating(ratings []*float64) float64 {
	if len(ratings) == 0 {
		return 0
	}

	var sum float64
	for _, r := range ratings {
		if r != nil {
			sum += *r
		}
	}

	avg := sum / float64(len(ratings))

	switch {
	case avg < 0:
		return 0
	case avg > MaxRating:
		return MaxRating
	}

	return avg
}

// NovelCard is what the browse grid renders for one novel.
type NovelCard struct {
	Id            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Author        string    `json:"author"`
	Author_id     string    `json:"author_id"`
	Cover_image   string    `json:"cover_image"`
	Status        Status    `json:"status"`
	Rating        float64   `json:"rating"`
	Views         int       `json:"views"`
	Genres        []string  `json:"genres"`
	Tags          []string  `json:"tags"`
	Chapter_count int       `json:"chapter_count"`
	Created_at    time.Time `json:"created_at"`
	Updated_at    time.Time `json:"updated_at"`
}

func (n *Novel) Card() NovelCard {
	card := NovelCard{
		Id:            n.Id,
		Title:         n.Title,
		Description:   n.Description,
		Author:        n.Author.Label(),
		Author_id:     n.Author_id,
		Cover_image:   n.CoverURL(),
		Status:        n.Status,
		Rating:        n.Rating,
		Views:         n.Views,
		Genres:        []string{},
		Tags:          []string{},
		Chapter_count: len(n.Chapters),
		Created_at:    n.Created_at,
		Updated_at:    n.Updated_at,
	}

	for _, g := range n.Genres {
		card.Genres = append(card.Genres, g.Name)
	}

	for _, t := range n.Tags {
		card.Tags = append(card.Tags, t.Name)
	}

	return card
}

type ErrorResponse struct {
	Error string `json:"error"`
}
