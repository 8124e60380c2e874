package texture

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// Export formats understood by Encode.
const (
	FormatWebP = "webp"
	FormatPNG  = "png"
)

// ErrExportFormat is returned for export formats Encode does not write.
var ErrExportFormat = errors.New("texture: unsupported export format")

// Image wraps RGBA8 pixels as an image without copying.
func (p *Pixels) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    p.Data,
		Stride: 4 * p.Width,
		Rect:   image.Rect(0, 0, p.Width, p.Height),
	}
}

// Encode writes img as lossless WebP or PNG.
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case FormatWebP, "":
		return nativewebp.Encode(w, img, nil)
	case FormatPNG:
		return png.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrExportFormat, format)
	}
}

// Ext returns the file extension, with dot, for an export format.
func Ext(format string) string {
	if strings.EqualFold(format, FormatPNG) {
		return ".png"
	}
	return ".webp"
}
