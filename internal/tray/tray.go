// Package tray provides a system tray interface for the finger counter.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
	"gocv.io/x/gocv"

	"github.com/ayusman/fingercount/internal/detector"
)

// Tray represents the system tray application. It is also a pipeline sink
// that shows the latest finger count.
type Tray struct {
	onToggle    func(enabled bool)
	onDashboard func()
	onQuit      func()
	enabled     bool
	fingers     int
	status      detector.Status
	seen        bool
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuFingers *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
		status:  detector.StatusNoCandidate,
	}
}

// OnToggle sets the callback function to be called when processing is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback function to be called when the dashboard menu item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
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

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Fingers")
	systray.SetTooltip("Finger Counter")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleLabel(t.enabled), "Pause or resume counting")
	systray.AddSeparator()

	t.menuFingers = systray.AddMenuItem(fingersLabel(t.fingers, t.status), "Latest finger count")
	t.menuFingers.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Finger Counter")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleLabel(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleDashboard handles the dashboard menu item click.
func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
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

// Consume implements app.Sink. The menu is only touched when the count or
// status changes.
func (t *Tray) Consume(_ gocv.Mat, res *detector.Result) error {
	t.SetFingers(res.Fingers, res.Status)
	return nil
}

// SetFingers updates the finger count display in the menu.
func (t *Tray) SetFingers(n int, status detector.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seen && n == t.fingers && status == t.status {
		return
	}
	t.fingers, t.status, t.seen = n, status, true

	if t.menuFingers != nil {
		t.menuFingers.SetTitle(fingersLabel(n, status))
		systray.SetTitle(fmt.Sprintf("✋ %d", n))
	}
}

// Fingers returns the last displayed count.
func (t *Tray) Fingers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fingers
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleLabel(enabled bool) string {
	if enabled {
		return "● Counting"
	}
	return "○ Paused"
}

func fingersLabel(n int, status detector.Status) string {
	switch status {
	case detector.StatusOK:
		return fmt.Sprintf("Fingers: %d", n)
	case detector.StatusNoCandidate:
		return "Fingers: no hand"
	default:
		return fmt.Sprintf("Fingers: %d (%s)", n, status)
	}
}
