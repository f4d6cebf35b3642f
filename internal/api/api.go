package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oseayemenre/pagesy-reader/internal/browse"
	"github.com/oseayemenre/pagesy-reader/internal/config"
	"github.com/oseayemenre/pagesy-reader/internal/events"
	"github.com/oseayemenre/pagesy-reader/internal/logger"
	"github.com/oseayemenre/pagesy-reader/internal/novels"
	"github.com/oseayemenre/pagesy-reader/internal/session"
	"github.com/oseayemenre/pagesy-reader/internal/store"
)

// Sessions resolves, issues and clears the cookie session.
type Sessions interface {
	session.Provider
	Issue(w http.ResponseWriter, actor session.Actor) error
	Clear(w http.ResponseWriter)
}

type LiveFeed interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
}

type Api struct {
	router   *chi.Mux
	logger   logger.Logger
	store    store.Store
	sessions Sessions
	browse   *browse.Service
	novels   *novels.Workflow
	feed     LiveFeed
	config   *config.Config
}

func New(
	router *chi.Mux,
	logger logger.Logger,
	objectStore store.ObjectStore,
	store store.Store,
	sessions Sessions,
	publisher events.Publisher,
	feed LiveFeed,
	config *config.Config,
) *Api {
	return &Api{
		router:   router,
		logger:   logger,
		store:    store,
		sessions: sessions,
		browse:   browse.NewService(store),
		novels:   novels.NewWorkflow(store, objectStore, publisher, logger),
		feed:     feed,
		config:   config,
	}
}

func (a *Api) RegisterRoutes() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Recoverer)
	a.router.Use(a.CorsMiddleware())
	a.router.Use(a.LoggingMiddleware)
	a.router.Use(a.MetricsMiddleware)

	a.router.Get("/healthz", a.HandleHealthz)
	a.router.Handle("/metrics", promhttp.Handler())

	a.router.Route("/auth", func(r chi.Router) {
		r.Route("/google", func(r chi.Router) {
			r.Get("/", a.HandleGoogleSignIn)
			r.Get("/callback", a.HandleGoogleSignInCallback)
		})

		r.Get("/callback", a.HandleAuthCallback)
		r.Post("/logout", a.HandleLogout)
	})

	a.router.Route("/api/v1", func(r chi.Router) {
		r.With(a.Authenticate).Get("/me", a.HandleMe)

		r.Route("/novels", func(r chi.Router) {
			r.Get("/", a.HandleBrowse)
			r.With(a.RequireSession).Get("/new", a.HandleNewNovelForm)
			r.With(a.RequireSession).Post("/", a.HandleCreateNovel)
			r.Get("/{novelID}", a.HandleGetNovel)
		})

		r.Get("/genres", a.HandleGetGenres)

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", a.HandleGetTags)
			r.With(a.Authenticate).Post("/", a.HandleCreateTag)
		})

		r.Get("/ws", a.HandleWS)
	})
}
