package e2e

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayusman/handbuilder/internal/app"
	"github.com/ayusman/handbuilder/internal/auth"
	"github.com/ayusman/handbuilder/internal/capture"
	"github.com/ayusman/handbuilder/internal/catalog"
	"github.com/ayusman/handbuilder/internal/config"
	"github.com/ayusman/handbuilder/internal/detector"
	"github.com/ayusman/handbuilder/internal/scene"
	"github.com/ayusman/handbuilder/internal/server"
	"github.com/ayusman/handbuilder/internal/store"
	"github.com/ayusman/handbuilder/testdata"
)

const frameStep = 33 * time.Millisecond

func TestE2E_ReplaySessions(t *testing.T) {
	names, err := testdata.Sessions()
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no recorded sessions")
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			sess, err := testdata.LoadSession(name)
			if err != nil {
				t.Fatal(err)
			}

			r := scene.NewMemoryRenderer()
			cfg := scene.DefaultConfig()
			cfg.Seed = 11
			e := scene.NewEditor(r, cfg)

			mode, err := catalog.ParseMode(sess.Mode)
			if err != nil {
				t.Fatal(err)
			}
			e.SetMode(mode)
			if sess.Select != "" {
				if _, err := e.Select(sess.Select); err != nil {
					t.Fatalf("select %s: %v", sess.Select, err)
				}
			}

			start := time.Now()
			err = sess.Replay(func(hands []detector.HandLandmarks, at time.Duration) {
				e.HandleFrame(hands, start.Add(at))
				e.Tick(frameStep)
			})
			if err != nil {
				t.Fatal(err)
			}

			st := e.Status()
			if st.Placed != sess.Expect.Placed {
				t.Errorf("placed = %d, want %d", st.Placed, sess.Expect.Placed)
			}
			if got := r.Count(scene.RolePlaced); got != sess.Expect.Placed {
				t.Errorf("renderer placed meshes = %d, want %d", got, sess.Expect.Placed)
			}
			if st.CursorVisible != sess.Expect.CursorVisible {
				t.Errorf("cursor visible = %v, want %v", st.CursorVisible, sess.Expect.CursorVisible)
			}
			if st.Interaction != sess.Expect.Interaction {
				t.Errorf("interaction = %q, want %q", st.Interaction, sess.Expect.Interaction)
			}

			if mode == catalog.Building {
				for _, m := range e.Placed() {
					p := m.Transform.Position
					if p.X != math.Round(p.X) || p.Y != math.Round(p.Y) {
						t.Errorf("building part at %+v is off the grid", p)
					}
				}
			}
		})
	}
}

// stack is the full application wired the way the binary wires it, with a
// mock camera and detector.
type stack struct {
	app    *app.App
	hub    *server.SceneHub
	det    *detector.MockDetector
	ts     *httptest.Server
	client *http.Client
}

func newStack(t *testing.T, cfg config.Config, st *store.Store) *stack {
	t.Helper()

	authCfg := auth.DefaultConfig()
	authCfg.SessionTTL = cfg.SessionTTL()
	authCfg.BcryptCost = bcrypt.MinCost
	manager := auth.NewManager(st, authCfg)
	if err := manager.Seed(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	hub := server.NewSceneHub()
	a := app.New(app.Config{
		Camera:       cfg.CameraConfig(),
		Detector:     cfg.DetectorConfig(),
		Enhance:      cfg.EnhanceConfig(),
		Scene:        cfg.SceneConfig(),
		TickInterval: cfg.TickInterval(),
		Store:        st,
	}, hub)

	frame := testdata.BlankFrame(160, 120)
	t.Cleanup(func() { frame.Close() })
	a.SetCamera(capture.NewMockCamera([]*gocv.Mat{frame}, true))

	det := detector.NewMockDetector()
	a.SetDetector(det)
	if err := a.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	srv := server.New(server.Config{
		Auth:       manager,
		Controller: a,
		Hub:        hub,
		Preview:    a.Preview(),
		Hands:      a.Hands(),
	})
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	jar, _ := cookiejar.New(nil)
	client := ts.Client()
	client.Jar = jar

	return &stack{app: a, hub: hub, det: det, ts: ts, client: client}
}

func (s *stack) post(t *testing.T, path, body string) int {
	t.Helper()
	resp, err := s.client.Post(s.ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", path, err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.toml")
	dbPath := filepath.Join(tmpDir, "data.db")

	toml := "[server]\n" +
		"database = " + strconv.Quote(dbPath) + "\n" +
		"tray = false\n" +
		"[scene]\n" +
		"tick_hz = 200\n"
	if err := os.WriteFile(cfgPath, []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	if cfg.Server.Tray {
		t.Error("tray should be disabled by the file")
	}

	st, err := store.New(cfg.Server.Database)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	s := newStack(t, cfg, st)

	t.Run("Login", func(t *testing.T) {
		if code := s.post(t, "/api/mode", `{"mode": "solar"}`); code != http.StatusUnauthorized {
			t.Fatalf("mode without session = %d, want 401", code)
		}
		if code := s.post(t, "/api/session/login", `{"username": "demo", "password": "demo123"}`); code != http.StatusOK {
			t.Fatalf("login = %d", code)
		}
	})

	t.Run("SelectPlanet", func(t *testing.T) {
		if code := s.post(t, "/api/mode", `{"mode": "solar"}`); code != http.StatusOK {
			t.Fatalf("mode = %d", code)
		}
		if code := s.post(t, "/api/select", `{"item": "earth"}`); code != http.StatusOK {
			t.Fatalf("select = %d", code)
		}
		if code := s.post(t, "/api/select", `{"item": "pluto"}`); code != http.StatusNotFound {
			t.Errorf("select unknown = %d, want 404", code)
		}
	})

	t.Run("PinchPlaces", func(t *testing.T) {
		s.det.SetHands([]detector.HandLandmarks{detector.PinchLandmarks()})
		waitFor(t, "placement", func() bool {
			return s.hub.Memory().Count(scene.RolePlaced) == 1
		})
		s.det.SetHands(nil)

		placed := s.hub.Memory().Meshes()
		var planet *scene.Mesh
		for i := range placed {
			if placed[i].Role == scene.RolePlaced {
				planet = &placed[i]
			}
		}
		if planet == nil || planet.Geometry.Kind != scene.KindSphere {
			t.Fatalf("placed mesh = %+v, want a sphere", planet)
		}
		if planet.Spin <= 0 {
			t.Errorf("planet spin = %v, want positive", planet.Spin)
		}
	})

	t.Run("Status", func(t *testing.T) {
		resp, err := s.client.Get(s.ts.URL + "/api/status")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var status struct {
			Mode     string `json:"mode"`
			Selected string `json:"selected"`
			Placed   int    `json:"placed"`
			Tracker  string `json:"tracker"`
			Username string `json:"username"`
		}
		json.NewDecoder(resp.Body).Decode(&status)

		if status.Mode != "solar" || status.Selected != "earth" || status.Placed != 1 {
			t.Errorf("status = %+v", status)
		}
		if status.Tracker != "running" {
			t.Errorf("tracker = %q, want running", status.Tracker)
		}
		if status.Username != "demo" {
			t.Errorf("username = %q, want demo", status.Username)
		}
	})

	t.Run("ClearAndHealth", func(t *testing.T) {
		if code := s.post(t, "/api/scene/clear", ``); code != http.StatusOK {
			t.Fatalf("clear = %d", code)
		}
		if got := s.hub.Memory().Count(scene.RolePlaced); got != 0 {
			t.Errorf("placed after clear = %d", got)
		}

		resp, _ := s.client.Get(s.ts.URL + "/api/health")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health check failed after app operations")
		}
		resp.Body.Close()
	})

	t.Run("SelectionSurvivesRestart", func(t *testing.T) {
		s.app.Close()

		again := newStack(t, cfg, st)
		status := again.app.Status()
		if status.Mode != catalog.Solar || status.Selected != "earth" {
			t.Errorf("restored selection = %v/%q, want solar/earth", status.Mode, status.Selected)
		}
		if status.Placed != 0 {
			t.Errorf("placed after restart = %d, want 0", status.Placed)
		}
	})
}
