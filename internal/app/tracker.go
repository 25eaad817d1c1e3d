package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ayusman/handbuilder/internal/capture"
	"github.com/ayusman/handbuilder/internal/detector"
)

// runTracker reads camera frames, corrects them for low light and runs hand
// detection, passing each result to the render loop.
func (a *App) runTracker(stop <-chan struct{}, camera capture.Camera, det detector.Detector) {
	defer a.wg.Done()

	fps := camera.FPS()
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	failing := false
	detectFailing := false

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		frame, err := camera.ReadFrame()
		if err != nil {
			if !failing {
				log.Printf("Error reading frame: %v", err)
				failing = true
			}
			continue
		}
		failing = false

		a.preview.Update(frame)

		enhanced, lighting := a.enhancer.Enhance(frame)
		frame.Close()

		a.mu.Lock()
		if lighting != a.lighting {
			log.Printf("Lighting changed to %s", lighting)
		}
		a.lighting = lighting
		a.mu.Unlock()

		hands, err := det.Detect(enhanced)
		enhanced.Close()
		if errors.Is(err, detector.ErrTrackerExited) {
			a.trackerLost(err)
			return
		}
		if err != nil {
			if !detectFailing {
				log.Printf("Error detecting hands: %v", err)
				detectFailing = true
			}
			continue
		}
		detectFailing = false

		f := detector.Frame{Hands: hands, Timestamp: time.Now()}
		a.hands.Publish(f)
		a.deliver(f)
	}
}

// trackerLost turns tracking off for the rest of the session. The render
// loop keeps running so UI commands still work.
func (a *App) trackerLost(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.tracker = TrackerUnavailable
	a.trackErr = fmt.Errorf("%w: %v", ErrTrackerLost, err)
	log.Printf("Hand tracking disabled: %v", a.trackErr)
}
