//go:build !windows

package desktop

import (
	"context"
	"image"

	"ambientctx/internal/domain"
	"ambientctx/internal/ports"
)

// Lister reports ports.ErrUnsupported outside Windows.
type Lister struct{}

func NewLister(int) *Lister {
	return &Lister{}
}

func (l *Lister) ListWindows(context.Context) ([]domain.Window, error) {
	return nil, ports.ErrUnsupported
}

// Capturer reports ports.ErrUnsupported outside Windows.
type Capturer struct{}

func NewCapturer() *Capturer {
	return &Capturer{}
}

func (c *Capturer) Capture(context.Context, domain.Window) (image.Image, error) {
	return nil, ports.ErrUnsupported
}
