package capture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxUploadBytes is the largest accepted upload.
const MaxUploadBytes = 25 << 20

var imageExtensions = map[string]string{
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".heic": "image/heic",
	".svg":  "image/svg+xml",
}

// Upload is an image file chosen by the user.
type Upload struct {
	Name string
	Type string
	Data []byte
}

// NewUpload validates data before anything is decoded. limit <= 0 uses
// MaxUploadBytes.
func NewUpload(name string, data []byte, limit int64) (*Upload, error) {
	if limit <= 0 {
		limit = MaxUploadBytes
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, name, len(data))
	}
	typ := DetectType(name, data)
	if !strings.HasPrefix(typ, "image/") {
		return nil, fmt.Errorf("%w: %s is %s", ErrWrongType, name, typ)
	}
	return &Upload{Name: filepath.Base(name), Type: typ, Data: data}, nil
}

// ReadUpload checks the size of path before reading it.
func ReadUpload(path string, limit int64) (*Upload, error) {
	if limit <= 0 {
		limit = MaxUploadBytes
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return NewUpload(path, data, limit)
}

// DetectType sniffs the content and falls back to the file extension.
func DetectType(name string, data []byte) string {
	typ := http.DetectContentType(data)
	if strings.HasPrefix(typ, "image/") {
		return typ
	}
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := imageExtensions[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil && strings.HasPrefix(mt, "image/") {
			return mt
		}
	}
	return typ
}

// Decode turns the upload into a surface.
func (u *Upload) Decode() (*image.RGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(u.Data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", u.Name, err)
	}
	return ToRGBA(img), nil
}
