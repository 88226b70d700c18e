package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/limbo/journal/internal/pipeline"
	"github.com/limbo/journal/internal/service"
	"github.com/limbo/journal/internal/session"
	"github.com/limbo/journal/pkg/cleanup"
)

type Server struct {
	mx             *chi.Mux
	loop           *pipeline.Loop
	sess           *session.Session
	userService    service.UserServiceI
	journalService service.JournalServiceI
	editor         EditorI
	jwtService     JWTServiceI
	clock          func() time.Time
}

type ServicesList struct {
	Loop           *pipeline.Loop
	Session        *session.Session
	UserService    service.UserServiceI
	JournalService service.JournalServiceI
	Editor         EditorI
	JwtService     JWTServiceI
	// Defaults to time.Now
	Clock func() time.Time
}

func New(servicesOptions *ServicesList) *Server {
	clock := servicesOptions.Clock
	if clock == nil {
		clock = time.Now
	}
	s := &Server{
		mx:             chi.NewMux(),
		loop:           servicesOptions.Loop,
		sess:           servicesOptions.Session,
		userService:    servicesOptions.UserService,
		journalService: servicesOptions.JournalService,
		editor:         servicesOptions.Editor,
		jwtService:     servicesOptions.JwtService,
		clock:          clock,
	}
	s.mountRoutes()
	return s
}

func (s *Server) mountRoutes() {
	s.mx.Use(middleware.Recoverer)
	s.mx.Use(s.RequestIDMiddleware)
	s.mx.Use(s.SettingUpLoggerMiddleware)
	s.mx.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", s.Signup)
		r.Post("/auth/login", s.Login)
		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)
			r.Use(s.LoggerExtensionMiddleware)
			r.Post("/auth/logout", s.Logout)
			r.Get("/auth/me", s.Me)

			r.Get("/entries", s.ListEntries)
			r.Delete("/entries/{id}", s.DeleteEntry)

			r.Get("/dashboard", s.Dashboard)

			r.Get("/editor", s.EditorState)
			r.Post("/editor/new", s.EditorNew)
			r.Post("/editor/today", s.EditorToday)
			r.Post("/editor/entries/{id}", s.EditorEdit)
			r.Post("/editor/submit", s.EditorSubmit)
		})
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mx.ServeHTTP(w, r)
}

// Run serves until the listener fails or the cleanup job shuts it down.
func (s *Server) Run(address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.mx,
		ReadHeaderTimeout: 5 * time.Second,
	}
	cleanup.Register(&cleanup.Job{
		Name: "shutting down http server",
		F: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
	log.Printf("listening on %s", address)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// onLoop runs fn on the loop, bounded by the request context
func (s *Server) onLoop(ctx context.Context, fn func()) error {
	return s.loop.Call(ctx, fn)
}

// onLoopErr is onLoop for functions that report their own error
func (s *Server) onLoopErr(ctx context.Context, fn func() error) error {
	var fnErr error
	if err := s.onLoop(ctx, func() {
		fnErr = fn()
	}); err != nil {
		return err
	}
	return fnErr
}
