//go:build windows

package desktop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"unsafe"

	"golang.org/x/sys/windows"

	"ambientctx/internal/domain"
)

const (
	pwRenderFullContent = 0x2
	biRGB               = 0
	dibRGBColors        = 0
)

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// Capturer renders a window's client area with PrintWindow, which also works
// for windows covered by other windows.
type Capturer struct{}

func NewCapturer() *Capturer {
	return &Capturer{}
}

func (c *Capturer) Capture(ctx context.Context, window domain.Window) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hwnd := windows.HWND(window.Handle)

	r, ok := clientRect(hwnd)
	if !ok {
		return nil, errors.New("GetClientRect failed")
	}
	width, height := int(r.Right-r.Left), int(r.Bottom-r.Top)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("empty client area %dx%d", width, height)
	}

	hdcWindow, _, _ := procGetDC.Call(uintptr(hwnd))
	if hdcWindow == 0 {
		return nil, errors.New("GetDC failed")
	}
	defer procReleaseDC.Call(uintptr(hwnd), hdcWindow)

	hdcMem, _, _ := procCreateCompatibleDC.Call(hdcWindow)
	if hdcMem == 0 {
		return nil, errors.New("CreateCompatibleDC failed")
	}
	defer procDeleteDC.Call(hdcMem)

	bitmap, _, _ := procCreateCompatibleBitmap.Call(hdcWindow, uintptr(width), uintptr(height))
	if bitmap == 0 {
		return nil, errors.New("CreateCompatibleBitmap failed")
	}
	defer procDeleteObject.Call(bitmap)

	previous, _, _ := procSelectObject.Call(hdcMem, bitmap)
	defer procSelectObject.Call(hdcMem, previous)

	if ok, _, _ := procPrintWindow.Call(uintptr(hwnd), hdcMem, pwRenderFullContent); ok == 0 {
		return nil, errors.New("PrintWindow failed")
	}

	header := bitmapInfoHeader{
		Width:       int32(width),
		Height:      -int32(height),
		Planes:      1,
		BitCount:    32,
		Compression: biRGB,
	}
	header.Size = uint32(unsafe.Sizeof(header))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	lines, _, _ := procGetDIBits.Call(
		hdcMem,
		bitmap,
		0,
		uintptr(height),
		uintptr(unsafe.Pointer(&img.Pix[0])),
		uintptr(unsafe.Pointer(&header)),
		dibRGBColors,
	)
	if lines == 0 {
		return nil, errors.New("GetDIBits failed")
	}

	// GDI hands back BGRA with an undefined alpha byte.
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
		img.Pix[i+3] = 0xff
	}
	return img, nil
}
