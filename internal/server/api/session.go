package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ayusman/handbuilder/internal/auth"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "handbuilder_session"

// SessionHandler serves register, login, logout and the current session.
type SessionHandler struct {
	auth *auth.Manager
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(m *auth.Manager) *SessionHandler {
	return &SessionHandler{auth: m}
}

// ServeHTTP routes /api/session and its sub-paths.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/session")
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "" && r.Method == http.MethodGet:
		h.current(w, r)
	case path == "register" && r.Method == http.MethodPost:
		h.register(w, r)
	case path == "login" && r.Method == http.MethodPost:
		h.login(w, r)
	case path == "logout" && r.Method == http.MethodPost:
		h.logout(w, r)
	case path == "" || path == "register" || path == "login" || path == "logout":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

// Identify resolves the request's session cookie. Requests without a valid
// session get an anonymous identity.
func Identify(m *auth.Manager, r *http.Request) auth.Identity {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return auth.Identity{}
	}

	id, err := m.Resolve(c.Value)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidSession) {
			log.Printf("Session lookup failed: %v", err)
		}
		return auth.Identity{}
	}
	return id
}

// current handles GET /api/session.
func (h *SessionHandler) current(w http.ResponseWriter, r *http.Request) {
	id := Identify(h.auth, r)
	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: id.Authenticated(),
		Username:      id.Username(),
	})
}

// register handles POST /api/session/register.
func (h *SessionHandler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	u, err := h.auth.Register(req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrUsernameTooShort), errors.Is(err, auth.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		log.Printf("Register failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	log.Printf("Registered account %q", u.Username)
	writeJSON(w, http.StatusCreated, sessionResponse{Username: u.Username})
}

// login handles POST /api/session/login and sets the session cookie.
func (h *SessionHandler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		log.Printf("Login failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, Username: strings.TrimSpace(req.Username)})
}

// logout handles POST /api/session/logout and clears the cookie.
func (h *SessionHandler) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if err := h.auth.Logout(c.Value); err != nil {
			log.Printf("Logout failed: %v", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
