package app

import (
	"log"

	"github.com/ayusman/handbuilder/internal/catalog"
	"github.com/ayusman/handbuilder/internal/scene"
	"github.com/ayusman/handbuilder/internal/store"
)

// SetMode switches the placement mode.
func (a *App) SetMode(m catalog.Mode) (catalog.Selection, error) {
	var sel catalog.Selection
	err := a.Do(func(e *scene.Editor) {
		sel = e.SetMode(m)
	})
	if err != nil {
		return sel, err
	}

	log.Printf("Mode switched to %s", m.Title())
	a.saveSelection(sel)
	return sel, nil
}

// Select picks an item from the current mode's catalog.
func (a *App) Select(key string) (catalog.Selection, error) {
	var (
		sel    catalog.Selection
		selErr error
	)
	err := a.Do(func(e *scene.Editor) {
		sel, selErr = e.Select(key)
	})
	if err != nil {
		return sel, err
	}
	if selErr != nil {
		return sel, selErr
	}

	log.Printf("Selected %s", sel.Name())
	a.saveSelection(sel)
	return sel, nil
}

// SetColor sets the Free mode block color.
func (a *App) SetColor(c catalog.Color) (catalog.Selection, error) {
	var sel catalog.Selection
	err := a.Do(func(e *scene.Editor) {
		sel = e.SetColor(c)
	})
	if err != nil {
		return sel, err
	}

	a.saveSelection(sel)
	return sel, nil
}

// ToggleGrid flips grid visibility and returns the new state.
func (a *App) ToggleGrid() (bool, error) {
	var visible bool
	err := a.Do(func(e *scene.Editor) {
		visible = e.ToggleGrid()
	})
	return visible, err
}

// ResetCamera returns the camera to its home pose.
func (a *App) ResetCamera() error {
	return a.Do(func(e *scene.Editor) {
		e.ResetCamera()
	})
}

// Clear removes every placed object and returns how many were removed.
func (a *App) Clear() (int, error) {
	var n int
	err := a.Do(func(e *scene.Editor) {
		n = e.Clear()
	})
	if err == nil {
		log.Printf("Cleared %d objects", n)
	}
	return n, err
}

// saveSelection records the selection so the next run starts with it.
func (a *App) saveSelection(sel catalog.Selection) {
	if a.config.Store == nil {
		return
	}

	settings := a.config.Store.Settings()
	values := map[string]string{store.SettingMode: sel.Mode().String()}
	switch sel.Mode() {
	case catalog.Building:
		values[store.SettingPart] = sel.Key()
	case catalog.Solar:
		values[store.SettingBody] = sel.Key()
	default:
		values[store.SettingColor] = sel.Color().Hex()
	}

	for k, v := range values {
		if err := settings.Set(k, v); err != nil {
			log.Printf("Failed to save setting %s: %v", k, err)
		}
	}
}

// restoreSelection applies the saved selection. It runs before the render
// loop starts, so it may touch the editor directly.
func (a *App) restoreSelection() {
	if a.config.Store == nil {
		return
	}

	settings, err := a.config.Store.Settings().All()
	if err != nil {
		log.Printf("Failed to load settings: %v", err)
		return
	}

	if v, ok := settings[store.SettingColor]; ok {
		if c, err := catalog.ParseColor(v); err == nil {
			a.editor.SetColor(c)
		}
	}
	if v, ok := settings[store.SettingPart]; ok {
		if _, err := a.editor.SelectPart(v); err != nil {
			log.Printf("Ignoring saved part: %v", err)
		}
	}
	if v, ok := settings[store.SettingBody]; ok {
		if _, err := a.editor.SelectBody(v); err != nil {
			log.Printf("Ignoring saved body: %v", err)
		}
	}

	mode := catalog.Free
	if v, ok := settings[store.SettingMode]; ok {
		if m, err := catalog.ParseMode(v); err == nil {
			mode = m
		}
	}
	sel := a.editor.SetMode(mode)
	log.Printf("Restored %s mode (%s)", mode.Title(), sel.Name())
}
