package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oseayemenre/pagesy-reader/internal/browse"
	"github.com/oseayemenre/pagesy-reader/internal/metrics"
	"github.com/oseayemenre/pagesy-reader/internal/models"
	"github.com/oseayemenre/pagesy-reader/internal/novels"
	"github.com/oseayemenre/pagesy-reader/internal/selector"
	"github.com/oseayemenre/pagesy-reader/internal/session"
)

const maxFormSize = 8 << 20

type validationResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type newNovelResponse struct {
	Genres          []models.Genre   `json:"genres"`
	Tags            []models.Tag     `json:"tags"`
	Selected_genres []selector.Chip  `json:"selected_genres"`
	Selected_tags   []selector.Chip  `json:"selected_tags"`
	Statuses        []models.Status  `json:"statuses"`
	Status          models.Status    `json:"status"`
	Max_cover_size  int              `json:"max_cover_size"`
	Warnings        []novels.Warning `json:"warnings"`
}

type createNovelResponse struct {
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Novel    *models.Novel    `json:"novel"`
	Warnings []novels.Warning `json:"warnings"`
	Redirect string           `json:"redirect"`
}

// HandleBrowse godoc
//
//	@Summary		Browse novels
//	@Description	Recently updated and all novels, filtered by q over title, description, author and genres
//	@Tags			novels
//	@Produce		json
//	@Param			q	query		string	false	"search"
//	@Success		200	{object}	browse.View
//	@Failure		500	{object}	browse.View
//	@Router			/novels [get]
func (a *Api) HandleBrowse(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	listing, err := a.browse.Fetch(r.Context())

	if err != nil {
		metrics.BrowseFetches.WithLabelValues("error").Inc()
		a.logger.Error(err.Error(), "service", "HandleBrowse")
		respondWithSuccess(w, http.StatusInternalServerError, browse.ErrorView(query))
		return
	}

	metrics.BrowseFetches.WithLabelValues("ok").Inc()
	respondWithSuccess(w, http.StatusOK, listing.View(query))
}

// HandleGetNovel godoc
//
//	@Summary	Get novel
//	@Tags		novels
//	@Produce	json
//	@Param		novelID	path		string	true	"novel id"
//	@Success	200		{object}	models.NovelCard
//	@Failure	400		{object}	models.ErrorResponse
//	@Failure	404		{object}	models.ErrorResponse
//	@Failure	500		{object}	models.ErrorResponse
//	@Router		/novels/{novelID} [get]
func (a *Api) HandleGetNovel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "novelID")

	if _, err := uuid.Parse(id); err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("invalid novel id"))
		return
	}

	card, err := a.browse.Get(r.Context(), id)

	if err != nil {
		if errors.Is(err, browse.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, err)
			return
		}
		a.logger.Error(err.Error(), "service", "HandleGetNovel")
		respondWithError(w, http.StatusInternalServerError, errors.New(browse.ErrorTitle))
		return
	}

	respondWithSuccess(w, http.StatusOK, card)
}

// HandleNewNovelForm godoc
//
//	@Summary		Creation form
//	@Description	Genre and tag catalogs for the creation form; a failed catalog comes back empty with a warning. Preselected ids that are not in the catalog are dropped.
//	@Tags			novels
//	@Produce		json
//	@Param			genres	query		[]string	false	"preselected genre ids"
//	@Param			tags	query		[]string	false	"preselected tag ids"
//	@Success		200		{object}	newNovelResponse
//	@Success		302
//	@Router			/novels/new [get]
func (a *Api) HandleNewNovelForm(w http.ResponseWriter, r *http.Request) {
	catalog := a.novels.LoadCatalog(r.Context())
	form := a.novels.NewForm(catalog, nil)

	query := r.URL.Query()

	form.SelectGenres(knownIDs(form.Genres.Candidates(), formIDs(query["genres"])))
	form.SelectTags(knownIDs(form.Tags.Candidates(), formIDs(query["tags"])))

	respondWithSuccess(w, http.StatusOK, newNovelResponse{
		Genres:          form.Genres.Candidates(),
		Tags:            form.Tags.Candidates(),
		Selected_genres: form.Genres.Chips(),
		Selected_tags:   form.Tags.Chips(),
		Statuses:        []models.Status{models.StatusOngoing, models.StatusCompleted, models.StatusHiatus},
		Status:          form.Draft.Status,
		Max_cover_size:  novels.MaxCoverSize,
		Warnings:        catalog.Warnings,
	})
}

func knownIDs[T selector.Item](candidates []T, ids []string) []string {
	known := map[string]bool{}
	for _, c := range candidates {
		known[c.Key()] = true
	}

	out := []string{}
	for _, id := range ids {
		if known[id] {
			out = append(out, id)
		}
	}
	return out
}

func formIDs(values []string) []string {
	ids := []string{}
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (a *Api) respondWithValidation(w http.ResponseWriter, err error, service string) {
	var verr *novels.ValidationError
	if errors.As(err, &verr) {
		a.logger.Warn(fmt.Sprintf("validation error: %v", err), "service", service)
		respondWithSuccess(w, http.StatusBadRequest, validationResponse{Error: "validation error", Fields: verr.Fields})
		return
	}
	respondWithError(w, http.StatusBadRequest, err)
}

// HandleCreateNovel godoc
//
//	@Summary		Create a novel
//	@Description	Creates the novel, then uploads the cover and links genres and tags. Follow-up failures come back as warnings.
//	@Tags			novels
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			title		formData	string		true	"title"
//	@Param			description	formData	string		true	"description"
//	@Param			status		formData	string		false	"ongoing, completed or hiatus"
//	@Param			genres		formData	[]string	true	"genre ids"
//	@Param			tags		formData	[]string	false	"tag ids"
//	@Param			cover		formData	file		false	"cover image (max 5MB)"
//	@Success		201			{object}	createNovelResponse
//	@Success		302
//	@Failure		400			{object}	validationResponse
//	@Failure		413			{object}	models.ErrorResponse
//	@Failure		500			{object}	models.ErrorResponse
//	@Router			/novels [post]
func (a *Api) HandleCreateNovel(w http.ResponseWriter, r *http.Request) {
	actor := session.ActorFrom(r.Context())

	if actor == nil {
		http.Redirect(w, r, LoginURL(MsgLoginRequired), http.StatusFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)

	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, novels.ErrCoverTooLarge)
			return
		}
		a.logger.Warn(fmt.Sprintf("error parsing form: %v", err), "service", "HandleCreateNovel")
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("error parsing form: %v", err))
		return
	}

	defer r.MultipartForm.RemoveAll()

	status, err := models.ParseStatus(r.FormValue("status"))

	if err != nil {
		respondWithSuccess(w, http.StatusBadRequest, validationResponse{Error: "validation error", Fields: map[string]string{"status": "Status must be ongoing, completed or hiatus"}})
		return
	}

	draft := &novels.Draft{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Status:      status,
	}

	file, header, err := r.FormFile("cover")

	switch {
	case err == nil:
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, novels.MaxCoverSize+1))
		if err != nil {
			a.logger.Error(fmt.Sprintf("error reading bytes: %v", err), "service", "HandleCreateNovel")
			respondWithError(w, http.StatusInternalServerError, fmt.Errorf("error reading bytes: %v", err))
			return
		}

		if err := draft.SetCover(header.Filename, data); err != nil {
			code := http.StatusBadRequest
			if errors.Is(err, novels.ErrCoverTooLarge) {
				code = http.StatusRequestEntityTooLarge
			}
			respondWithError(w, code, err)
			return
		}
	case !errors.Is(err, http.ErrMissingFile):
		respondWithError(w, http.StatusBadRequest, fmt.Errorf("error retrieving file: %v", err))
		return
	}

	genreIDs := formIDs(r.Form["genres"])
	tagIDs := formIDs(r.Form["tags"])

	if err := draft.Precheck(genreIDs); err != nil {
		a.respondWithValidation(w, err, "HandleCreateNovel")
		return
	}

	catalog, err := a.novels.ResolveCatalog(r.Context(), genreIDs, tagIDs)

	if err != nil {
		if errors.Is(err, novels.ErrValidation) {
			a.respondWithValidation(w, err, "HandleCreateNovel")
			return
		}
		a.logger.Error(err.Error(), "service", "HandleCreateNovel")
		respondWithError(w, http.StatusInternalServerError, errors.New(novels.CatalogMessage))
		return
	}

	form := a.novels.NewForm(catalog, draft)

	if err := form.SelectGenres(genreIDs); err != nil {
		a.respondWithValidation(w, err, "HandleCreateNovel")
		return
	}

	if err := form.SelectTags(tagIDs); err != nil {
		a.respondWithValidation(w, err, "HandleCreateNovel")
		return
	}

	result, err := a.novels.Create(r.Context(), actor, form.Draft)

	if err != nil {
		switch {
		case errors.Is(err, novels.ErrUnauthenticated):
			http.Redirect(w, r, LoginURL(MsgLoginRequired), http.StatusFound)
		case errors.Is(err, novels.ErrValidation):
			a.respondWithValidation(w, err, "HandleCreateNovel")
		default:
			a.logger.Error(err.Error(), "service", "HandleCreateNovel")
			respondWithError(w, http.StatusInternalServerError, errors.New(novels.FailedMessage))
		}
		return
	}

	w.Header().Set("Location", result.Redirect)

	respondWithSuccess(w, http.StatusCreated, createNovelResponse{
		Title:    novels.CreatedTitle,
		Message:  novels.CreatedMessage,
		Novel:    result.Novel,
		Warnings: result.Warnings,
		Redirect: result.Redirect,
	})
}
