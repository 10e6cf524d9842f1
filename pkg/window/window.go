package window

import "time"

// Info describes the currently focused window.
type Info struct {
	AppName       string
	WindowTitle   string
	DisplayServer string // "x11" or "wayland"
}

// IdleInfo reports how long each input device has been silent. X11 exposes a
// single idle counter for all input, so both fields carry the same value
// there; the split mirrors the idle rule, which requires mouse AND keyboard
// to be silent.
type IdleInfo struct {
	MouseIdle time.Duration
	KeyIdle   time.Duration
	IsLocked  bool
}

// Detector is the interface that all window detection implementations must
// satisfy.
type Detector interface {
	// FocusedWindow returns information about the currently focused window.
	FocusedWindow() (*Info, error)

	// Idle returns the current input idle and lock state.
	Idle() (*IdleInfo, error)

	// IsAvailable checks if this detector can run on the current system.
	IsAvailable() bool

	// DisplayServer returns the display server type ("x11" or "wayland").
	DisplayServer() string

	// Close cleans up any resources used by the detector.
	Close() error
}
