package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"formgrid/internal/middleware"
)

// RouterConfig configures the HTTP router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	Validator          middleware.TokenValidator
	Users              middleware.UserResolver
}

// NewRouter builds the chi router: public health endpoint, then the
// authenticated API under /v1.
func NewRouter(h *Handler, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Authenticator(cfg.Validator, cfg.Users))

		r.Route("/resources", func(r chi.Router) {
			r.Post("/", h.createResource)
			r.Get("/", h.listResources)
			r.Route("/{resourceID}", func(r chi.Router) {
				r.Get("/", h.getResource)
				r.Put("/fields", h.editResourceFields)
				r.Delete("/", h.deleteResource)

				r.Post("/forms", h.createForm)
				r.Get("/forms", h.listForms)

				r.Post("/records", h.addRecord)
				r.Post("/records/query", h.queryRecords)
				r.Post("/records/export", h.exportRecords)

				r.Post("/pull-jobs", h.createPullJob)
			})
		})

		r.Route("/forms/{formID}", func(r chi.Router) {
			r.Get("/", h.getForm)
			r.Delete("/", h.deleteForm)
		})

		r.Route("/records/{recordID}", func(r chi.Router) {
			r.Get("/", h.getRecord)
			r.Patch("/", h.editRecord)
			r.Post("/archive", h.archiveRecord)
			r.Post("/restore", h.restoreRecord)
			r.Delete("/", h.deleteRecord)
		})

		r.Route("/roles", func(r chi.Router) {
			r.Post("/", h.createRole)
			r.Get("/", h.listRoles)
			r.Get("/{roleID}", h.getRole)
			r.Post("/{roleID}/rules", h.addRoleRule)
			r.Delete("/{roleID}", h.deleteRole)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.createUser)
			r.Post("/{userID}/roles/{roleID}", h.assignRole)
		})

		r.Get("/pull-jobs", h.listPullJobs)
	})

	return r
}
