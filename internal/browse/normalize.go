package browse

import (
	"github.com/oseayemenre/pagesy-reader/internal/models"
	"github.com/oseayemenre/pagesy-reader/internal/store"
)

type listingRow struct {
	models.Novel `mapstructure:",squash"`

	Author_row   *models.Author `mapstructure:"author"`
	Novel_genres []struct {
		Genre *models.Genre `mapstructure:"genre"`
	} `mapstructure:"novel_genres"`
	Novel_tags []struct {
		Tag *models.Tag `mapstructure:"tag"`
	} `mapstructure:"novel_tags"`
	Ratings []struct {
		Rating *float64 `mapstructure:"rating"`
	} `mapstructure:"ratings"`
	Chapter_count int `mapstructure:"chapter_count"`
}

// Novel flattens a listing row: join rows become plain genre and tag lists,
// ratings become their mean.
func Novel(row store.Row) (*models.Novel, int, error) {
	var r listingRow

	if err := store.Decode(row, &r); err != nil {
		return nil, 0, err
	}

	n := r.Novel
	n.Author = r.Author_row
	n.Genres = []models.Genre{}
	n.Tags = []models.Tag{}
	n.Chapters = []models.Chapter{}

	for _, g := range r.Novel_genres {
		if g.Genre != nil {
			n.Genres = append(n.Genres, *g.Genre)
		}
	}

	for _, t := range r.Novel_tags {
		if t.Tag != nil {
			n.Tags = append(n.Tags, *t.Tag)
		}
	}

	ratings := make([]*float64, 0, len(r.Ratings))
	for _, rating := range r.Ratings {
		ratings = append(ratings, rating.Rating)
	}
	n.Rating = models.AverageRating(ratings)

	if n.Status == "" {
		n.Status = models.StatusOngoing
	}

	return &n, r.Chapter_count, nil
}

func Card(row store.Row) (models.NovelCard, error) {
	n, chapters, err := Novel(row)
	if err != nil {
		return models.NovelCard{}, err
	}

	card := n.Card()
	card.Chapter_count = chapters

	return card, nil
}
