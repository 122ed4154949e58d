// Package tray provides the system tray menu for live practice mode.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onGuidance func(on bool)
	onSkip     func()
	onOpen     func()
	onQuit     func()
	guidance   bool
	status     string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuGuidance *systray.MenuItem
	menuStatus   *systray.MenuItem
}

// New creates a new Tray instance with guidance turned on.
func New() *Tray {
	return &Tray{
		guidance: true,
		status:   "Starting...",
	}
}

// OnGuidance sets the callback invoked when the marker overlay is toggled.
func (t *Tray) OnGuidance(fn func(on bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onGuidance = fn
}

// OnSkip sets the callback invoked when "Skip chord" is clicked.
func (t *Tray) OnSkip(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSkip = fn
}

// OnOpen sets the callback invoked when the web view menu item is clicked.
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
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("StrumSpace")
	systray.SetTooltip("StrumSpace chord trainer")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(t.status, "Current chord and score")
	t.menuStatus.Disable()
	systray.AddSeparator()

	t.menuGuidance = systray.AddMenuItem(guidanceTitle(t.guidance), "Toggle finger markers")
	t.mu.Unlock()
	menuSkip := systray.AddMenuItem("Skip chord", "Move on to the next chord")
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the live view")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit StrumSpace")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuGuidance.ClickedCh:
				t.handleGuidance()
			case <-menuSkip.ClickedCh:
				t.handleSkip()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func guidanceTitle(on bool) string {
	if on {
		return "● Guidance on"
	}
	return "○ Guidance off"
}

// handleGuidance flips the guidance state and notifies the callback.
func (t *Tray) handleGuidance() {
	t.mu.Lock()
	t.guidance = !t.guidance
	on := t.guidance
	if t.menuGuidance != nil {
		t.menuGuidance.SetTitle(guidanceTitle(on))
	}
	callback := t.onGuidance
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(on)
	}
}

func (t *Tray) handleSkip() {
	t.mu.RLock()
	callback := t.onSkip
	t.mu.RUnlock()

	if callback != nil {
		callback()
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

// SetStatus updates the status line, e.g. "Play: Am · Score 10".
func (t *Tray) SetStatus(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = line
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(line)
	}
}

// Status returns the last status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// SetGuidance syncs the menu with a guidance change made elsewhere.
func (t *Tray) SetGuidance(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.guidance = on
	if t.menuGuidance != nil {
		t.menuGuidance.SetTitle(guidanceTitle(on))
	}
}

// Guidance returns the current guidance state.
func (t *Tray) Guidance() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.guidance
}
