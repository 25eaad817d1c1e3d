// Package tray provides a system tray menu for the hand-gesture editor.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handbuilder/internal/app"
	"github.com/ayusman/handbuilder/internal/catalog"
)

// Tray represents the system tray application.
type Tray struct {
	onMode  func(m catalog.Mode)
	onGrid  func()
	onReset func()
	onClear func()
	onOpen  func()
	onQuit  func()
	mode    catalog.Mode
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	menuModes  map[catalog.Mode]*systray.MenuItem
}

// New creates a new Tray with Free mode checked.
func New() *Tray {
	return &Tray{
		mode:      catalog.Free,
		menuModes: make(map[catalog.Mode]*systray.MenuItem),
	}
}

// OnMode sets the callback for the placement mode items.
func (t *Tray) OnMode(fn func(m catalog.Mode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMode = fn
}

// OnToggleGrid sets the callback for the grid item.
func (t *Tray) OnToggleGrid(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onGrid = fn
}

// OnResetCamera sets the callback for the camera reset item.
func (t *Tray) OnResetCamera(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnClear sets the callback for the clear scene item.
func (t *Tray) OnClear(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClear = fn
}

// OnOpen sets the callback for the open editor item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady builds the menu once the tray is up.
func (t *Tray) onReady() {
	systray.SetTitle("Handbuilder")
	systray.SetTooltip("Handbuilder gesture editor")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem("No hand", "Current gesture")
	t.menuStatus.Disable()
	systray.AddSeparator()

	for _, m := range catalog.Modes() {
		t.menuModes[m] = systray.AddMenuItemCheckbox(m.Title(), "Switch to "+m.Title()+" mode", m == t.mode)
	}
	t.mu.Unlock()
	systray.AddSeparator()

	menuGrid := systray.AddMenuItem("Toggle Grid", "Show or hide the floor grid")
	menuReset := systray.AddMenuItem("Reset Camera", "Return the camera to its home view")
	menuClear := systray.AddMenuItem("Clear Scene", "Remove every placed object")
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Editor...", "Open the editor in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Handbuilder")

	for m, item := range t.menuModes {
		go func() {
			for range item.ClickedCh {
				t.handleMode(m)
			}
		}()
	}

	go func() {
		for {
			select {
			case <-menuGrid.ClickedCh:
				t.call(&t.onGrid)
			case <-menuReset.ClickedCh:
				t.call(&t.onReset)
			case <-menuClear.ClickedCh:
				t.call(&t.onClear)
			case <-menuOpen.ClickedCh:
				t.call(&t.onOpen)
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// call reads the callback under the lock and runs it outside.
func (t *Tray) call(fn *func()) {
	t.mu.RLock()
	cb := *fn
	t.mu.RUnlock()

	if cb != nil {
		cb()
	}
}

// handleMode handles a click on a mode item.
func (t *Tray) handleMode(m catalog.Mode) {
	t.SetMode(m)

	t.mu.RLock()
	callback := t.onMode
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(m)
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetMode moves the check mark to m.
func (t *Tray) SetMode(m catalog.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = m
	for mode, item := range t.menuModes {
		if mode == m {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// Mode returns the checked mode.
func (t *Tray) Mode() catalog.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

// SetStatus updates the status line and mode check from st.
func (t *Tray) SetStatus(st app.Status) {
	if t.Mode() != st.Mode {
		t.SetMode(st.Mode)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(StatusLine(st))
	}
}

// StatusLine renders the one-line tray summary of st.
func StatusLine(st app.Status) string {
	if st.Tracker != app.TrackerRunning {
		return "Camera off"
	}
	line := st.Label
	if st.SelectedName != "" && st.Interaction == "build" {
		line = fmt.Sprintf("%s · %s", line, st.SelectedName)
	}
	return fmt.Sprintf("%s · %d placed", line, st.Placed)
}

// Quit stops a running tray. Safe to call from any goroutine.
func Quit() {
	systray.Quit()
}
