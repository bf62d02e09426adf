//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import (
	"context"
	"fmt"
	"image"
)

func portalScreenshot(context.Context) (*image.RGBA, error) {
	return nil, fmt.Errorf("%w: no desktop portal on this platform", ErrUnsupported)
}

func x11Screenshot(context.Context) (*image.RGBA, error) {
	return nil, fmt.Errorf("%w: no X server on this platform", ErrUnsupported)
}
