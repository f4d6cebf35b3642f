package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/oseayemenre/pagesy-reader/internal/models"
	"github.com/oseayemenre/pagesy-reader/internal/novels"
	"github.com/oseayemenre/pagesy-reader/internal/store"
)

// HandleGetGenres godoc
//
//	@Summary	List genres
//	@Tags		catalog
//	@Produce	json
//	@Success	200	{array}		models.Genre
//	@Failure	500	{object}	models.ErrorResponse
//	@Router		/genres [get]
func (a *Api) HandleGetGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := novels.ListGenres(r.Context(), a.store)

	if err != nil {
		a.logger.Error(err.Error(), "service", "HandleGetGenres")
		respondWithError(w, http.StatusInternalServerError, errors.New(novels.CatalogMessage))
		return
	}

	respondWithSuccess(w, http.StatusOK, genres)
}

// HandleGetTags godoc
//
//	@Summary	List tags
//	@Tags		catalog
//	@Produce	json
//	@Param		q	query		string	false	"name contains"
//	@Success	200	{array}		models.Tag
//	@Failure	500	{object}	models.ErrorResponse
//	@Router		/tags [get]
func (a *Api) HandleGetTags(w http.ResponseWriter, r *http.Request) {
	filters := []store.Filter{}

	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		filters = append(filters, novels.NameContains(q))
	}

	tags, err := novels.ListTags(r.Context(), a.store, filters...)

	if err != nil {
		a.logger.Error(err.Error(), "service", "HandleGetTags")
		respondWithError(w, http.StatusInternalServerError, errors.New(novels.CatalogMessage))
		return
	}

	respondWithSuccess(w, http.StatusOK, tags)
}

type createTagRequest struct {
	Name string `json:"name"`
}

type tagConflictResponse struct {
	Error   string       `json:"error"`
	Matches []models.Tag `json:"matches"`
}

// HandleCreateTag godoc
//
//	@Summary		Create a tag
//	@Description	Creates a tag unless an existing tag name equals or contains it. Contained names come back with the matching tags.
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		createTagRequest	true	"tag"
//	@Success		201		{object}	models.Tag
//	@Failure		400		{object}	validationResponse
//	@Failure		409		{object}	tagConflictResponse
//	@Failure		500		{object}	models.ErrorResponse
//	@Router			/tags [post]
func (a *Api) HandleCreateTag(w http.ResponseWriter, r *http.Request) {
	var params createTagRequest

	if err := decodeJson(r, &params); err != nil {
		a.logger.Warn(err.Error(), "service", "HandleCreateTag")
		respondWithError(w, http.StatusBadRequest, err)
		return
	}

	tags := []models.Tag{}

	if strings.TrimSpace(params.Name) != "" {
		var err error

		tags, err = novels.ListTags(r.Context(), a.store, novels.NameContains(params.Name))
		if err != nil {
			a.logger.Error(err.Error(), "service", "HandleCreateTag")
			respondWithError(w, http.StatusInternalServerError, errors.New(novels.TagFailedMessage))
			return
		}
	}

	form := a.novels.NewForm(&novels.Catalog{Tags: tags}, nil)

	tag, err := form.AddTag(r.Context(), params.Name)

	if err != nil {
		var matchErr *novels.TagMatchError

		switch {
		case errors.Is(err, novels.ErrValidation):
			a.respondWithValidation(w, err, "HandleCreateTag")
		case errors.Is(err, novels.ErrTagExists):
			respondWithError(w, http.StatusConflict, err)
		case errors.As(err, &matchErr):
			respondWithSuccess(w, http.StatusConflict, tagConflictResponse{Error: err.Error(), Matches: matchErr.Matches})
		default:
			a.logger.Error(err.Error(), "service", "HandleCreateTag")
			respondWithError(w, http.StatusInternalServerError, errors.New(novels.TagFailedMessage))
		}
		return
	}

	respondWithSuccess(w, http.StatusCreated, tag)
}
