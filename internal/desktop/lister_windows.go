//go:build windows

package desktop

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sys/windows"

	"ambientctx/internal/domain"
	"ambientctx/internal/logging"
)

// Lister walks the top-level windows with EnumWindows.
type Lister struct {
	cfg FilterConfig
}

func NewLister(minArea int) *Lister {
	return &Lister{cfg: FilterConfig{MinArea: minArea, SelfPID: windows.GetCurrentProcessId()}}
}

var (
	enumMu       sync.Mutex
	enumInfos    []WindowInfo
	enumCallback uintptr
	callbackOnce sync.Once
)

// EnumWindows callbacks cannot be freed, so one callback is shared and
// enumerations are serialized.
func enumProc(hwnd windows.HWND, _ uintptr) uintptr {
	enumInfos = append(enumInfos, describe(hwnd))
	return 1
}

func describe(hwnd windows.HWND) WindowInfo {
	info := WindowInfo{
		Handle:  uintptr(hwnd),
		Visible: windows.IsWindowVisible(hwnd),
	}
	if !info.Visible {
		return info
	}
	info.Title = windowText(hwnd)
	if info.Title == "" {
		return info
	}
	info.Class = className(hwnd)
	if r, ok := clientRect(hwnd); ok {
		info.ClientWidth = int(r.Right - r.Left)
		info.ClientHeight = int(r.Bottom - r.Top)
	}
	_, _ = windows.GetWindowThreadProcessId(hwnd, &info.PID)
	return info
}

func (l *Lister) ListWindows(ctx context.Context) ([]domain.Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	callbackOnce.Do(func() {
		enumCallback = windows.NewCallback(enumProc)
	})

	enumMu.Lock()
	enumInfos = nil
	err := windows.EnumWindows(enumCallback, nil)
	infos := enumInfos
	enumInfos = nil
	enumMu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnumWindows, err)
	}

	windowsOut := Filter(infos, l.cfg)
	logging.Debugw("windows enumerated", "total", len(infos), "eligible", len(windowsOut))
	return windowsOut, nil
}
