package novels

import (
	"errors"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oseayemenre/pagesy-reader/internal/models"
)

const MaxCoverSize = 5 << 20

var (
	ErrValidation    = errors.New("validation error")
	ErrCoverTooLarge = errors.New("cover image must be 5MB or smaller")
	ErrInvalidCover  = errors.New("cover image must be an image file")
)

var validate = validator.New()

type Cover struct {
	Filename     string
	Content_type string
	Data         []byte
}

// Ext is the extension the stored object gets, without the dot.
func (c *Cover) Ext() string {
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(c.Filename)), "."); ext != "" {
		return ext
	}

	switch subtype := strings.TrimPrefix(c.Content_type, "image/"); subtype {
	case "jpeg":
		return "jpg"
	case "":
		return "img"
	default:
		return subtype
	}
}

type Draft struct {
	Title       string         `validate:"required"`
	Description string         `validate:"required"`
	Status      models.Status  `validate:"required,oneof=ongoing completed hiatus"`
	Genres      []models.Genre `validate:"min=1"`
	Tags        []models.Tag
	Cover       *Cover
}

// SetCover checks the file before anything is uploaded. A rejected file
// leaves the draft's cover as it was.
func (d *Draft) SetCover(filename string, data []byte) error {
	if len(data) > MaxCoverSize {
		return ErrCoverTooLarge
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return ErrInvalidCover
	}

	d.Cover = &Cover{
		Filename:     filename,
		Content_type: contentType,
		Data:         data,
	}

	return nil
}

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Fields))
	for _, m := range e.Fields {
		messages = append(messages, m)
	}
	sort.Strings(messages)

	return strings.Join(messages, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var fieldMessages = map[string]string{
	"Title":       "Title is required",
	"Description": "Description is required",
	"Status":      "Status must be ongoing, completed or hiatus",
	"Genres":      "Select at least one genre",
}

func (d *Draft) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)

	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{Fields: map[string]string{}}
	for _, fe := range fieldErrs {
		verr.Fields[strings.ToLower(fe.Field())] = fieldMessages[fe.Field()]
	}

	return verr
}

// Precheck runs the checks that need no catalog: title, description and at
// least one genre id.
func (d *Draft) Precheck(genreIDs []string) error {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)

	fields := map[string]string{}

	if d.Title == "" {
		fields["title"] = fieldMessages["Title"]
	}
	if d.Description == "" {
		fields["description"] = fieldMessages["Description"]
	}
	if len(genreIDs) == 0 {
		fields["genres"] = fieldMessages["Genres"]
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return nil
}
