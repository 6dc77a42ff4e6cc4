package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hse-portal/internal/handlers"
	"hse-portal/internal/service"
	"hse-portal/internal/uploads"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Collections service.CollectionService
	Ledger      service.LedgerService
	Training    service.TrainingService
	Factories   service.FactoryService
	Stats       service.StatsService
	Auth        service.AuthService
	Uploads     *uploads.Store
	Health      handlers.DocumentLister

	// MaxBodyBytes caps request bodies; zero disables the limit.
	MaxBodyBytes int64
	// LenientTrainingDelete makes training deletes succeed even when nothing matched.
	LenientTrainingDelete bool
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(Metrics)
	r.Use(MaxBodyBytes(deps.MaxBodyBytes))

	ppe := handlers.NewPPEHandler(deps.Ledger, deps.Collections)
	noticePage := handlers.NewNoticePageHandler(deps.Collections)
	training := handlers.NewTrainingHandler(deps.Training, deps.LenientTrainingDelete)
	factories := handlers.NewFactoriesHandler(deps.Factories)
	stats := handlers.NewStatsHandler(deps.Stats)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", handlers.APIIndex)
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.Health))
		r.Method(http.MethodPost, "/auth/login", handlers.NewLoginHandler(deps.Auth))

		collection(r, deps, service.Notices, collectionRoutes{
			extra: func(r chi.Router) {
				r.Method(http.MethodGet, "/{id}/page", noticePage)
			},
		})
		collection(r, deps, service.Reports, collectionRoutes{})
		collection(r, deps, service.PTW, collectionRoutes{})
		collection(r, deps, service.Chat, collectionRoutes{})
		collection(r, deps, service.PPE, collectionRoutes{
			create: ppe.Create,
			update: ppe.Update,
			extra: func(r chi.Router) {
				r.Get("/logs", ppe.Logs)
			},
		})
		collection(r, deps, service.Visitors, collectionRoutes{
			create: handlers.NewVisitorUploadHandler(deps.Collections, deps.Uploads).ServeHTTP,
		})
		collection(r, deps, service.Policies, collectionRoutes{
			create: handlers.NewPolicyUploadHandler(deps.Collections, deps.Uploads).ServeHTTP,
		})
		collection(r, deps, service.Gallery, collectionRoutes{
			create: handlers.NewGalleryUploadHandler(deps.Collections, deps.Uploads).ServeHTTP,
		})

		r.Route("/training", func(r chi.Router) {
			r.Get("/", training.Get)
			r.Post("/", training.Create)
			r.Put("/{id}", training.Update)
			r.Delete("/{id}", training.Delete)
		})

		r.Route("/factories", func(r chi.Router) {
			r.Get("/", factories.Get)
			r.Post("/", factories.Replace)
			r.Put("/", factories.Replace)
			r.Delete("/{name}", factories.Delete)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", stats.Get)
			r.Put("/", stats.Replace)
		})
	})

	r.Get("/uploads/*", serveUpload(deps.Uploads))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/", handlers.Root)

	return r
}

// collectionRoutes overrides parts of the default CRUD routes. Nil handlers
// fall back to the generic collection handler; extra adds routes.
type collectionRoutes struct {
	create http.HandlerFunc
	update http.HandlerFunc
	extra  func(chi.Router)
}

// collection mounts the CRUD routes of a list-shaped collection.
func collection(r chi.Router, deps *Deps, name string, routes collectionRoutes) {
	h := handlers.NewCollectionHandler(deps.Collections, name)
	create, update := routes.create, routes.update
	if create == nil {
		create = h.Create
	}
	if update == nil {
		update = h.Update
	}

	r.Route("/"+name, func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", create)
		if routes.extra != nil {
			routes.extra(r)
		}
		r.Get("/{id}", h.Get)
		r.Put("/{id}", update)
		r.Delete("/{id}", h.Delete)
	})
}

func serveUpload(store *uploads.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := store.Resolve(r.URL.Path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, path)
	}
}
