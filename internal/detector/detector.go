package detector

import (
	"strconv"
	"time"

	"gocv.io/x/gocv"
)

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// ModelComplexity selects the landmark model tier: 0 lite, 1 full.
	ModelComplexity int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Python and Script override the interpreter and tracker script. Empty
	// values are searched for next to the project and in ~/.handbuilder.
	Python string
	Script string

	// StartTimeout bounds how long the tracker may take to report ready.
	StartTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		ModelComplexity: 0,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		StartTimeout:    20 * time.Second,
	}
}

// Args renders the config as command line flags for the tracker service.
func (c Config) Args() []string {
	return []string{
		"--max-hands", strconv.Itoa(c.MaxHands),
		"--model-complexity", strconv.Itoa(c.ModelComplexity),
		"--min-detection-confidence", strconv.FormatFloat(c.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(c.MinTrackingConf, 'f', -1, 64),
	}
}
