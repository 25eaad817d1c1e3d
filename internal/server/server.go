// Package server provides the HTTP server for the editor: the session gate,
// control API, scene feed and camera preview.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/handbuilder/internal/auth"
	"github.com/ayusman/handbuilder/internal/server/api"
)

// LoginPage is where unauthenticated page requests are sent.
const LoginPage = "/login.html"

// publicFiles are static files served without a session.
var publicFiles = map[string]bool{
	LoginPage:      true,
	"/login.js":    true,
	"/style.css":   true,
	"/favicon.ico": true,
}

// Config holds the server configuration. Nil components leave their routes
// unregistered; a nil Auth disables the session gate.
type Config struct {
	StaticDir  string
	Auth       *auth.Manager
	Controller api.Controller
	Hub        *SceneHub
	Preview    FrameSource
	Hands      HandSource
}

// Server represents the HTTP server for the editor.
type Server struct {
	config    Config
	mux       *http.ServeMux
	start     time.Time
	landmarks *LandmarksHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Auth != nil {
		sessions := api.NewSessionHandler(s.config.Auth)
		s.mux.Handle("/api/session", sessions)
		s.mux.Handle("/api/session/", sessions)
	}

	s.mux.Handle("/api/catalog", s.requireAPI(http.HandlerFunc(api.HandleCatalog)))

	if s.config.Controller != nil {
		controls := api.NewControlsHandler(s.config.Controller)
		for _, p := range controls.Patterns() {
			s.mux.Handle(p, s.requireAPI(controls))
		}
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/scene", s.requireAPI(s.config.Hub))
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", s.requireAPI(NewStreamHandler(s.config.Preview)))
	}

	if s.config.Hands != nil {
		s.landmarks = NewLandmarksHandler(s.config.Hands)
		s.mux.Handle("/api/landmarks", s.requireAPI(s.landmarks))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", s.requirePage(fs))
	}
}

// identify attaches the session identity to the request context.
func (s *Server) identify(r *http.Request) (*http.Request, auth.Identity) {
	id := api.Identify(s.config.Auth, r)
	return r.WithContext(auth.WithIdentity(r.Context(), id)), id
}

// requireAPI rejects API requests without a session.
func (s *Server) requireAPI(next http.Handler) http.Handler {
	if s.config.Auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, id := s.identify(r)
		if !id.Authenticated() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Login required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requirePage redirects page requests without a session to the login page.
func (s *Server) requirePage(next http.Handler) http.Handler {
	if s.config.Auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		if publicFiles[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		r, id := s.identify(r)
		if !id.Authenticated() {
			http.Redirect(w, r, LoginPage, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Close stops background broadcasters.
func (s *Server) Close() {
	if s.landmarks != nil {
		s.landmarks.Close()
	}
}
