// Package server exposes the adaptive learning API over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/LyoshaGodX/adaptivelearn/internal/debug"
	"github.com/LyoshaGodX/adaptivelearn/internal/recommender"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
)

// Server wires storage and the recommendation manager behind a chi router
type Server struct {
	store storage.Storage
	mgr   *recommender.Manager
	addr  string
}

// New builds a server listening on addr
func New(store storage.Storage, mgr *recommender.Manager, addr string) *Server {
	return &Server{store: store, mgr: mgr, addr: addr}
}

// Router assembles the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if debug.Enabled() {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Actor"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/skills", func(r chi.Router) {
			r.Get("/", s.handleListSkills)
			r.Post("/", s.handleCreateSkill)
			r.Route("/{skillID}", func(r chi.Router) {
				r.Get("/", s.handleGetSkill)
				r.Delete("/", s.handleDeleteSkill)
				r.Get("/ancestors", s.handleSkillAncestors)
				r.Get("/descendants", s.handleSkillDescendants)
				r.Get("/eligible-prerequisites", s.handleEligiblePrereqs)
				r.Post("/prerequisites", s.handleAddPrereq)
				r.Post("/prerequisites/check", s.handleCheckPrereq)
				r.Delete("/prerequisites/{prereqID}", s.handleRemovePrereq)
			})
		})

		r.Route("/graph", func(r chi.Router) {
			r.Get("/", s.handleGraph)
			r.Get("/cycles", s.handleGraphCycles)
			r.Get("/order", s.handleGraphOrder)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Get("/{taskID}", s.handleGetTask)
		})

		r.Route("/students", func(r chi.Router) {
			r.Get("/", s.handleListStudents)
			r.Post("/", s.handleCreateStudent)
			r.Route("/{studentID}", func(r chi.Router) {
				r.Get("/", s.handleGetStudent)
				r.Get("/progress", s.handleStudentProgress)
				r.Get("/recommendation", s.handleCurrentRecommendation)
				r.Get("/recommendations", s.handleRecommendationHistory)
			})
		})

		r.Post("/attempts", s.handleSubmitAttempt)
		r.Post("/feedback", s.handleAddFeedback)
		r.Post("/train", s.handleTrain)
		r.Get("/stats", s.handleStats)
	})

	return r
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully with a five second drain window.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		debug.Logf("serve: listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
