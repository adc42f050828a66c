// Package tray provides the system tray menu of the formcheck application.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/formcheck/internal/exercise"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onExercise func(id exercise.ID)
	onOpen     func()
	onQuit     func()
	enabled    bool
	current    exercise.ID
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuStatus    *systray.MenuItem
	menuExercises map[exercise.ID]*systray.MenuItem
}

// New creates a new Tray with tracking enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback for the tracking switch.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnExercise sets the callback for picking an exercise.
func (t *Tray) OnExercise(fn func(id exercise.ID)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExercise = fn
}

// OnOpen sets the callback for the open-in-browser item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for the quit item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit is called and must run
// on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("FormCheck")
	systray.SetTooltip("FormCheck exercise form feedback")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume form tracking")
	t.menuStatus = systray.AddMenuItem(statusTitle(0, false), "Current form score")
	t.menuStatus.Disable()
	systray.AddSeparator()

	menuExercise := systray.AddMenuItem("Exercise", "Exercise to evaluate")
	t.menuExercises = make(map[exercise.ID]*systray.MenuItem)
	for _, e := range exercise.All() {
		item := menuExercise.AddSubMenuItem(e.Name, e.Description)
		if e.ID == t.current {
			item.Check()
		}
		t.menuExercises[e.ID] = item
		go t.watchExercise(e.ID, item)
	}
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the live view")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit FormCheck")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) watchExercise(id exercise.ID, item *systray.MenuItem) {
	for range item.ClickedCh {
		t.mu.RLock()
		callback := t.onExercise
		t.mu.RUnlock()

		if callback != nil {
			callback(id)
		}
	}
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.menuToggle.SetTitle(toggleTitle(enabled))
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetEnabled shows the tracking switch as enabled or paused without firing
// the toggle callback.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// SetExercise marks id as the selected exercise. An empty id clears the mark.
func (t *Tray) SetExercise(id exercise.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = id
	for eid, item := range t.menuExercises {
		if eid == id {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// SetProgress shows the latest form score.
func (t *Tray) SetProgress(progress float64, correct bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitle(progress, correct))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Exercise returns the exercise currently marked in the menu.
func (t *Tray) Exercise() exercise.ID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}

func statusTitle(progress float64, correct bool) string {
	mark := "✗"
	if correct {
		mark = "✓"
	}
	return fmt.Sprintf("Form: %.0f%% %s", progress, mark)
}
