package app

import (
	"time"

	"github.com/ayusman/handbuilder/internal/detector"
)

// runLoop owns the editor. Tracker frames and UI commands are applied as
// they arrive; the ticker drives smoothing and animation.
func (a *App) runLoop(stop <-chan struct{}) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.config.TickInterval)
	defer ticker.Stop()

	last := time.Now()

	for {
		select {
		case <-stop:
			return

		case f := <-a.frames:
			a.editor.HandleFrame(f.Hands, f.Timestamp)

		case cmd := <-a.cmds:
			cmd.fn(a.editor)
			a.publish()
			close(cmd.done)

		case now := <-ticker.C:
			a.editor.Tick(now.Sub(last))
			last = now
			a.publish()
		}
	}
}

func (a *App) publish() {
	st := a.editor.Status()

	a.mu.Lock()
	a.status = st
	a.mu.Unlock()
}

// deliver hands a frame to the render loop, replacing any frame it has not
// picked up yet. Only the tracker goroutine sends.
func (a *App) deliver(f detector.Frame) {
	select {
	case a.frames <- f:
		return
	default:
	}

	select {
	case <-a.frames:
	default:
	}

	select {
	case a.frames <- f:
	default:
	}
}
