// Package desktop enumerates and captures top-level windows. The Win32
// implementation lives in the _windows files; other platforms report
// ports.ErrUnsupported.
package desktop

import (
	"errors"
	"strings"

	"ambientctx/internal/domain"
)

// ErrEnumWindows is returned when the platform enumeration call itself fails.
var ErrEnumWindows = errors.New("failed to enumerate windows")

// DefaultMinArea is the client area, in pixels, below which a window is
// treated as not rendered.
const DefaultMinArea = 10000

var (
	ignoredClasses = map[string]struct{}{
		"Progman":                    {},
		"TaskManagerWindow":          {},
		"Windows.UI.Core.CoreWindow": {},
	}
	ignoredTitles = map[string]struct{}{
		"Settings": {},
	}
)

const (
	wrapperClassMarker = "HwndWrapper"
	settingsPageMarker = "settings.html"
)

// WindowInfo is what the enumerator learns about one top-level window.
type WindowInfo struct {
	Handle       uintptr
	Title        string
	Class        string
	Visible      bool
	ClientWidth  int
	ClientHeight int
	PID          uint32
}

// FilterConfig parameterizes Eligible.
type FilterConfig struct {
	MinArea int
	SelfPID uint32
}

// Eligible applies the window filters in order and returns the first reason
// a window was excluded, or "" if it passes.
func Eligible(w WindowInfo, cfg FilterConfig) string {
	minArea := cfg.MinArea
	if minArea <= 0 {
		minArea = DefaultMinArea
	}

	switch {
	case !w.Visible:
		return "not_visible"
	case w.Title == "":
		return "empty_title"
	case isIgnoredClass(w.Class):
		return "ignored_class"
	case isIgnoredTitle(w.Title):
		return "ignored_title"
	case w.ClientWidth*w.ClientHeight < minArea:
		return "too_small"
	case w.PID == cfg.SelfPID:
		return "own_process"
	}
	return ""
}

func isIgnoredClass(class string) bool {
	if _, ok := ignoredClasses[class]; ok {
		return true
	}
	return strings.Contains(class, wrapperClassMarker)
}

func isIgnoredTitle(title string) bool {
	if _, ok := ignoredTitles[title]; ok {
		return true
	}
	return strings.Contains(title, settingsPageMarker)
}

// Filter keeps eligible windows in enumeration order.
func Filter(infos []WindowInfo, cfg FilterConfig) []domain.Window {
	out := make([]domain.Window, 0, len(infos))
	for _, info := range infos {
		if Eligible(info, cfg) != "" {
			continue
		}
		out = append(out, domain.Window{Handle: info.Handle, Title: info.Title})
	}
	return out
}
