package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/handbuilder/internal/app"
	"github.com/ayusman/handbuilder/internal/capture"
	"github.com/ayusman/handbuilder/internal/detector"
	"github.com/ayusman/handbuilder/internal/scene"
)

type editorStack struct {
	ts     *httptest.Server
	client *http.Client
	app    *app.App
	hub    *SceneHub
	det    *detector.MockDetector
}

func newEditorStack(t *testing.T) *editorStack {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	hub := NewSceneHub()
	cfg := app.DefaultConfig()
	cfg.TickInterval = 5 * time.Millisecond
	cfg.Scene.Seed = 3
	a := app.New(cfg, hub)

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })
	a.SetCamera(capture.NewMockCamera([]*gocv.Mat{&frame}, true))

	det := detector.NewMockDetector()
	a.SetDetector(det)
	if err := a.Start(); err != nil {
		t.Fatalf("start app: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	srv := New(Config{
		Auth:       newTestAuth(t),
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

	return &editorStack{ts: ts, client: client, app: a, hub: hub, det: det}
}

func (s *editorStack) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := s.client.Post(s.ts.URL+path, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", path, err)
	}
	return resp
}

func (s *editorStack) status(t *testing.T) app.Status {
	t.Helper()
	resp, err := s.client.Get(s.ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/status = %d", resp.StatusCode)
	}

	var st app.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return st
}

func TestAPI_EditorWorkflow(t *testing.T) {
	s := newEditorStack(t)

	// 1. Controls need a session
	resp := s.post(t, "/api/mode", `{"mode": "building"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("POST /api/mode without session = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	// 2. Log in
	resp = s.post(t, "/api/session/login", `{"username": "demo", "password": "demo123"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// 3. Switch to Building and pick a part
	resp = s.post(t, "/api/mode", `{"mode": "building"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/mode = %d", resp.StatusCode)
	}
	resp = s.post(t, "/api/select", `{"item": "roof"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/select = %d", resp.StatusCode)
	}

	st := s.status(t)
	if st.Selected != "roof" {
		t.Errorf("selected = %q, want roof", st.Selected)
	}

	// 4. A pinch places one roof
	s.det.SetHands([]detector.HandLandmarks{detector.PinchLandmarks()})

	deadline := time.Now().Add(2 * time.Second)
	for s.hub.Memory().Count(scene.RolePlaced) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("pinch did not place anything")
		}
		time.Sleep(10 * time.Millisecond)
	}
	s.det.SetHands(nil)

	st = s.status(t)
	if st.Placed != 1 {
		t.Errorf("placed = %d, want 1", st.Placed)
	}
	if st.Tracker != app.TrackerRunning {
		t.Errorf("tracker = %q, want running", st.Tracker)
	}

	// 5. Clear removes it again
	resp = s.post(t, "/api/scene/clear", ``)
	var cleared struct {
		Removed int `json:"removed"`
	}
	json.NewDecoder(resp.Body).Decode(&cleared)
	resp.Body.Close()
	if cleared.Removed != 1 {
		t.Errorf("removed = %d, want 1", cleared.Removed)
	}
	if got := s.hub.Memory().Count(scene.RolePlaced); got != 0 {
		t.Errorf("placed meshes after clear = %d, want 0", got)
	}
}

func TestAPI_SceneFeedRequiresSession(t *testing.T) {
	s := newEditorStack(t)
	url := "ws" + strings.TrimPrefix(s.ts.URL, "http") + "/api/scene"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial without session to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("handshake response = %v, want 401", resp)
	}

	resp2 := s.post(t, "/api/session/login", `{"username": "admin", "password": "admin123"}`)
	resp2.Body.Close()

	header := http.Header{}
	for _, c := range s.client.Jar.Cookies(resp2.Request.URL) {
		header.Add("Cookie", c.String())
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial with session: %v", err)
	}
	defer conn.Close()

	msg := readMessage(t, conn)
	if msg.Op != OpSnapshot {
		t.Errorf("first op = %q, want snapshot", msg.Op)
	}
}
