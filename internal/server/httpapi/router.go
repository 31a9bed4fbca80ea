package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/logging"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators of the HTTP API. Metrics, Observer and Health
// are optional.
type Deps struct {
	Sessions Sessions
	Users    Users
	Projects Projects
	Tasks    Tasks
	Files    Files
	Guard    IdentityResolver
	Cookie   CookieConfig
	Log      logging.Logger

	// MaxUploadSize bounds the decoded attachment size accepted by the
	// upload route.
	MaxUploadSize int64

	Metrics  http.Handler
	Observer Observer
	Health   func(ctx context.Context) error
}

type handler struct {
	Deps
}

// NewRouter builds the chi router serving every route of the API.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logging.Nop{}
	}
	h := &handler{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(h.identify)

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/refresh", h.refresh)
			r.Post("/logout", h.logout)
		})

		r.Get("/me", h.me)
		r.Get("/me/sessions", h.mySessions)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.listUsers)
			r.Patch("/{userID}/role", h.setRole)
			r.Post("/{userID}/logout-all", h.logoutAll)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.listProjects)
			r.Post("/", h.createProject)

			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", h.getProject)
				r.Patch("/", h.updateProject)
				r.Delete("/", h.deleteProject)
				r.Post("/members/{userID}", h.addMember)
				r.Delete("/members/{userID}", h.removeMember)

				r.Route("/tasks", func(r chi.Router) {
					r.Get("/", h.listTasks)
					r.Post("/", h.createTask)
					r.Patch("/{taskID}", h.updateTask)
					r.Delete("/{taskID}", h.deleteTask)
					r.Post("/{taskID}/files", h.uploadFile)
					r.Get("/{taskID}/files/{fileID}", h.downloadFile)
					r.Delete("/{taskID}/files/{fileID}", h.deleteFile)
				})
			})
		})
	})

	return r
}

// identify resolves the caller once per request. Failures yield the
// anonymous identity; handlers reject it where authentication is required.
func (h *handler) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.Anonymous
		if h.Guard != nil {
			id = h.Guard.ResolveIdentity(r.Header.Get(common.AuthorizationHeaderName))
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

func (h *handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)

		if h.Observer != nil {
			h.Observer.ObserveHTTP(r.Method, route, status, elapsed)
		}
		h.Log.Debug(r.Context(), "http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := h.Health(ctx); err != nil {
			h.Log.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func caller(r *http.Request) auth.Identity {
	return auth.IdentityFromContext(r.Context())
}
