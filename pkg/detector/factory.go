// Package detector selects a window.Detector implementation for the current
// display server.
package detector

import (
	"fmt"
	"os"

	"github.com/timescope/timescope/pkg/detector/wayland"
	"github.com/timescope/timescope/pkg/detector/x11"
	"github.com/timescope/timescope/pkg/window"
)

// New returns a detector for the current session.
func New() (window.Detector, error) {
	switch DetectDisplayServer() {
	case "wayland":
		d := wayland.NewDetector()
		if d.IsAvailable() {
			return d, nil
		}
		// Xwayland sessions often still expose a usable X11 connection.
		if xd, err := x11.NewDetector(); err == nil {
			return xd, nil
		}
		return nil, fmt.Errorf("no usable wayland detection method found")
	case "x11":
		return x11.NewDetector()
	default:
		return nil, fmt.Errorf("no display server detected")
	}
}

// DetectDisplayServer inspects the session environment.
func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
