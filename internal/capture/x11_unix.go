//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

func x11Screenshot(ctx context.Context) (*image.RGBA, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("%w: connect X server: %v", ErrUnsupported, err)
	}
	defer conn.Close()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	setup := xproto.Setup(conn)
	if setup == nil {
		return nil, fmt.Errorf("xproto setup unavailable")
	}
	screen := setup.DefaultScreen(conn)
	if screen == nil {
		return nil, fmt.Errorf("xproto screen unavailable")
	}
	w, h := int(screen.WidthInPixels), int(screen.HeightInPixels)
	reply, err := xproto.GetImage(conn, xproto.ImageFormatZPixmap, xproto.Drawable(screen.Root),
		0, 0, uint16(w), uint16(h), ^uint32(0)).Reply()
	if err != nil {
		return nil, fmt.Errorf("get root image: %w", err)
	}
	return zpixmapToRGBA(setup.PixmapFormats, reply.Depth, reply.Data, w, h)
}

// zpixmapToRGBA converts BGR(A) ZPixmap rows into an RGBA image.
func zpixmapToRGBA(formats []xproto.Format, depth byte, data []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("root window has empty geometry")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("root window pixels: empty image data")
	}
	bpp := 0
	for _, f := range formats {
		if f.Depth == depth {
			bpp = int(f.BitsPerPixel)
			break
		}
	}
	if bpp == 0 {
		return nil, fmt.Errorf("unsupported depth %d", depth)
	}
	stride := len(data) / height
	px := bpp / 8
	if px < 3 || stride*height != len(data) || stride < width*px {
		return nil, fmt.Errorf("unsupported pixel layout: %d bpp, stride %d", bpp, stride)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := data[y*stride : (y+1)*stride]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			s := row[x*px:]
			d := dst[x*4:]
			d[0], d[1], d[2] = s[2], s[1], s[0]
			// Root window alpha bytes are padding.
			d[3] = 0xff
		}
	}
	return img, nil
}
