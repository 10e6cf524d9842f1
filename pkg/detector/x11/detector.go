// Package x11 detects the focused window and input idle time over a native
// X connection: _NET_ACTIVE_WINDOW and WM_CLASS for the foreground app, the
// MIT-SCREEN-SAVER extension for milliseconds since the last input event.
package x11

import (
	"encoding/binary"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"

	"github.com/timescope/timescope/pkg/window"
)

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// Detector implements window.Detector for X11.
type Detector struct {
	conn     *xgb.Conn
	root     xproto.Window
	atoms    map[string]xproto.Atom
	hasSaver bool
}

// NewDetector connects to the X server and interns the atoms it needs.
func NewDetector() (*Detector, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	d := &Detector{
		conn:  conn,
		root:  xproto.Setup(conn).DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom, len(atomNames)),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to intern atom %s: %w", name, err)
		}
		d.atoms[name] = reply.Atom
	}

	d.hasSaver = screensaver.Init(conn) == nil

	return d, nil
}

func (d *Detector) IsAvailable() bool {
	return d.conn != nil
}

func (d *Detector) DisplayServer() string {
	return "x11"
}

// FocusedWindow resolves the active window and its application name, WM_CLASS
// first (it survives sandboxed apps), window title as fallback.
func (d *Detector) FocusedWindow() (*window.Info, error) {
	win := d.activeWindow()
	if win == 0 {
		return nil, fmt.Errorf("no active window")
	}

	info := &window.Info{DisplayServer: "x11"}

	if class := d.wmClass(win); class != "" {
		info.AppName = class
	}
	info.WindowTitle = d.windowName(win)

	if info.AppName == "" {
		info.AppName = info.WindowTitle
	}

	return info, nil
}

func (d *Detector) activeWindow() xproto.Window {
	data := d.property(d.root, d.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if len(data) < 4 {
		return d.inputFocus()
	}
	return xproto.Window(binary.LittleEndian.Uint32(data))
}

func (d *Detector) inputFocus() xproto.Window {
	reply, err := xproto.GetInputFocus(d.conn).Reply()
	if err != nil {
		return 0
	}
	return reply.Focus
}

func (d *Detector) property(win xproto.Window, atom, atomType xproto.Atom, length uint32) []byte {
	reply, err := xproto.GetProperty(d.conn, false, win, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil
	}
	return reply.Value
}

// wmClass returns the class half of the WM_CLASS property, which holds two
// null-terminated strings: instance, then class.
func (d *Detector) wmClass(win xproto.Window) string {
	data := d.property(win, d.atoms["WM_CLASS"], xproto.AtomString, 256)
	parts := strings.Split(string(data), "\x00")

	var fields []string
	for _, p := range parts {
		if p != "" {
			fields = append(fields, p)
		}
	}
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func (d *Detector) windowName(win xproto.Window) string {
	data := d.property(win, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], 256)
	if len(data) == 0 {
		data = d.property(win, xproto.AtomWmName, xproto.AtomString, 256)
	}
	return strings.TrimRight(string(data), "\x00")
}

// Idle reports milliseconds since the last input event. X maintains one
// counter for all devices, so mouse and keyboard idle are the same value.
func (d *Detector) Idle() (*window.IdleInfo, error) {
	idle, err := d.idleTime()
	if err != nil {
		return nil, err
	}

	return &window.IdleInfo{
		MouseIdle: idle,
		KeyIdle:   idle,
		IsLocked:  screenLocked(),
	}, nil
}

func (d *Detector) idleTime() (time.Duration, error) {
	if !d.hasSaver {
		return 0, fmt.Errorf("MIT-SCREEN-SAVER extension unavailable")
	}

	reply, err := screensaver.QueryInfo(d.conn, xproto.Drawable(d.root)).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to query idle time: %w", err)
	}

	return time.Duration(reply.MsSinceUserInput) * time.Millisecond, nil
}

// screenLocked checks for a running screen locker process.
func screenLocked() bool {
	lockers := []string{
		"gnome-screensaver-dialog",
		"kscreenlocker",
		"i3lock",
		"slock",
		"xscreensaver",
		"xsecurelock",
		"swaylock",
	}

	for _, locker := range lockers {
		if exec.Command("pgrep", "-x", locker).Run() == nil {
			return true
		}
	}

	return false
}

func (d *Detector) Close() error {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
	return nil
}
