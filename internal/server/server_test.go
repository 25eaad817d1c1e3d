package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/ayusman/handbuilder/internal/auth"
	"github.com/ayusman/handbuilder/internal/server/api"
	"github.com/ayusman/handbuilder/internal/store"
)

func newTestAuth(t *testing.T) *auth.Manager {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	cfg := auth.DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	m := auth.NewManager(s, cfg)
	if err := m.Seed(); err != nil {
		t.Fatalf("seed accounts: %v", err)
	}
	return m
}

func loginCookie(t *testing.T, m *auth.Manager, username, password string) *http.Cookie {
	t.Helper()
	sess, err := m.Login(username, password)
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return &http.Cookie{Name: api.SessionCookie, Value: sess.Token}
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}

		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func writeStatic(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html": "<html><body>Editor</body></html>",
		"login.html": "<html><body>Login</body></html>",
		"style.css":  "body { color: red; }",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	return dir
}

func TestServer_StaticFiles(t *testing.T) {
	s := New(Config{StaticDir: writeStatic(t)})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if rec.Body.String() != "<html><body>Editor</body></html>" {
			t.Errorf("unexpected body %q", rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_SessionGate(t *testing.T) {
	m := newTestAuth(t)
	s := New(Config{StaticDir: writeStatic(t), Auth: m, Hub: NewSceneHub()})
	cookie := loginCookie(t, m, "demo", "demo123")

	tests := []struct {
		name       string
		path       string
		cookie     *http.Cookie
		wantStatus int
		wantLoc    string
	}{
		{"editor without session redirects", "/", nil, http.StatusSeeOther, LoginPage},
		{"login page is public", LoginPage, nil, http.StatusOK, ""},
		{"stylesheet is public", "/style.css", nil, http.StatusOK, ""},
		{"editor with session", "/", cookie, http.StatusOK, ""},
		{"api without session", "/api/catalog", nil, http.StatusUnauthorized, ""},
		{"api with session", "/api/catalog", cookie, http.StatusOK, ""},
		{"scene feed without session", "/api/scene", nil, http.StatusUnauthorized, ""},
		{"bogus cookie", "/api/catalog", &http.Cookie{Name: api.SessionCookie, Value: "nope"}, http.StatusUnauthorized, ""},
		{"health is public", "/api/health", nil, http.StatusOK, ""},
		{"session check is public", "/api/session", nil, http.StatusOK, ""},
		{"unknown api path", "/api/nothing", cookie, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantLoc != "" && rec.Header().Get("Location") != tt.wantLoc {
				t.Errorf("Location = %q, want %q", rec.Header().Get("Location"), tt.wantLoc)
			}
		})
	}
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestNew(t *testing.T) {
	cfg := Config{StaticDir: "/some/path"}
	s := New(cfg)

	if s.config.StaticDir != cfg.StaticDir {
		t.Errorf("expected StaticDir %s, got %s", cfg.StaticDir, s.config.StaticDir)
	}

	var _ http.Handler = s
}
