/*
Package api exposes the shift validation services over HTTP.

Every write goes through the same services the CLI uses, so a shift is validated against
the operator's full schedule and the fatigue policy before it is stored. Rejections are
returned as 422 with the rule, reason and date that fired.

Routes:

	POST   /api/events                    Create a draft shift
	POST   /api/events/validate           Validate without saving
	POST   /api/events/range              Create one shift per day over a date range
	POST   /api/events/split              Take part of a slot off, assign the rest
	POST   /api/events/partial            Create a mandate or overtime shift
	POST   /api/events/publish            Publish drafts by id
	PUT    /api/events/{id}               Edit a shift (re-validated)
	PUT    /api/events/{id}/publish       Publish one draft
	DELETE /api/events/{id}               Delete a shift
	GET    /api/operators                 List operators
	PUT    /api/operators/{id}            Create or replace an operator
	GET    /api/operators/{id}/events     Operator's shifts in [from, to)
	GET    /api/config/fatigue-policy     Current fatigue policy
	PUT    /api/config/fatigue-policy     Replace the fatigue policy
	POST   /api/schedule/generate         Generate a rotating team week
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Post("/", h.CreateEvent)
			r.Post("/validate", h.ValidateEvent)
			r.Post("/range", h.CreateEventRange)
			r.Post("/split", h.CreateSplitEvent)
			r.Post("/partial", h.CreatePartialEvent)
			r.Post("/publish", h.PublishEvents)
			r.Put("/{id}", h.UpdateEvent)
			r.Put("/{id}/publish", h.PublishEvent)
			r.Delete("/{id}", h.DeleteEvent)
		})

		r.Route("/operators", func(r chi.Router) {
			r.Get("/", h.ListOperators)
			r.Put("/{id}", h.PutOperator)
			r.Get("/{id}/events", h.ListOperatorEvents)
		})

		r.Route("/config", func(r chi.Router) {
			r.Get("/fatigue-policy", h.GetFatiguePolicy)
			r.Put("/fatigue-policy", h.PutFatiguePolicy)
		})

		r.Post("/schedule/generate", h.GenerateSchedule)
	})

	return r
}

// requestLogger logs each request through zap once it completes
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
