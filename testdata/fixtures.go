// Package testdata holds recorded gesture sessions for replay tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handbuilder/internal/detector"
)

//go:embed sessions/*.json
var sessionsFS embed.FS

// Hand places a stock pose in the image.
type Hand struct {
	Pose       string  `json:"pose"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Handedness string  `json:"handedness,omitempty"`
}

// Step is the tracker output at one moment of a session.
type Step struct {
	AtMS  int    `json:"at_ms"`
	Hands []Hand `json:"hands"`
}

// At returns the step offset from the session start.
func (s Step) At() time.Duration {
	return time.Duration(s.AtMS) * time.Millisecond
}

// Landmarks expands the step into full hand landmarks.
func (s Step) Landmarks() ([]detector.HandLandmarks, error) {
	hands := make([]detector.HandLandmarks, 0, len(s.Hands))
	for _, h := range s.Hands {
		var base detector.HandLandmarks
		switch h.Pose {
		case "open":
			base = detector.OpenPalmLandmarks()
		case "pinch":
			base = detector.PinchLandmarks()
		default:
			return nil, fmt.Errorf("unknown pose %q at %dms", h.Pose, s.AtMS)
		}
		lm := detector.HandAt(base, h.X, h.Y)
		if h.Handedness != "" {
			lm.Handedness = h.Handedness
		}
		hands = append(hands, lm)
	}
	return hands, nil
}

// Expect is what the editor should show once a session has played.
type Expect struct {
	Placed        int    `json:"placed"`
	CursorVisible bool   `json:"cursor_visible"`
	Interaction   string `json:"interaction"`
}

// Session is a recorded run of tracker output.
type Session struct {
	Name   string `json:"name"`
	Mode   string `json:"mode"`
	Select string `json:"select,omitempty"`
	Steps  []Step `json:"steps"`
	Expect Expect `json:"expect"`
}

// Replay calls fn for every step in order.
func (s *Session) Replay(fn func(hands []detector.HandLandmarks, at time.Duration)) error {
	for _, step := range s.Steps {
		hands, err := step.Landmarks()
		if err != nil {
			return fmt.Errorf("session %s: %w", s.Name, err)
		}
		fn(hands, step.At())
	}
	return nil
}

// LoadSession loads a recorded session by file name.
func LoadSession(name string) (*Session, error) {
	data, err := sessionsFS.ReadFile("sessions/" + name)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", name, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", name, err)
	}
	if s.Name == "" {
		s.Name = name
	}
	return &s, nil
}

// Sessions lists the embedded session files.
func Sessions() ([]string, error) {
	entries, err := sessionsFS.ReadDir("sessions")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// BlankFrame returns a black BGR camera frame. The caller closes it.
func BlankFrame(width, height int) *gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	return &mat
}
