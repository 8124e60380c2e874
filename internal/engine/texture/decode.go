// Package texture decodes glTF images and turns them into deduplicated,
// reference-counted engine textures.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// ErrDecode is returned when image bytes cannot be decoded.
var ErrDecode = errors.New("texture: cannot decode image")

// Pixels is a decoded image as tightly packed, non-premultiplied RGBA8.
type Pixels struct {
	Width  int
	Height int
	Data   []byte
	Format string // Decoder name: "png", "jpeg", "webp", "bmp", "tga"
}

type decoder struct {
	name   string
	match  func([]byte) bool
	decode func(io.Reader) (image.Image, error)
}

// decoders are tried by signature. TGA has no magic number and the tga
// package registers itself with image.RegisterFormat under an empty one,
// so image.Decode is not used here.
var decoders = []decoder{
	{"png", hasPrefix("\x89PNG\r\n\x1a\n"), png.Decode},
	{"jpeg", hasPrefix("\xff\xd8"), jpeg.Decode},
	{"webp", isWebP, webp.Decode},
	{"bmp", hasPrefix("BM"), bmp.Decode},
}

func hasPrefix(magic string) func([]byte) bool {
	return func(b []byte) bool { return bytes.HasPrefix(b, []byte(magic)) }
}

func isWebP(b []byte) bool {
	return len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WEBP"
}

// Decode decodes PNG, JPEG, WebP, BMP or TGA bytes into RGBA8 pixels.
// Data without a known signature is decoded as TGA.
func Decode(data []byte) (*Pixels, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrDecode)
	}

	format, decode := "tga", tga.Decode
	for _, d := range decoders {
		if d.match(data) {
			format, decode = d.name, d.decode
			break
		}
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, format, err)
	}

	rgba := ToNRGBA(img)
	b := rgba.Bounds()
	return &Pixels{
		Width:  b.Dx(),
		Height: b.Dy(),
		Data:   rgba.Pix,
		Format: format,
	}, nil
}

// ToNRGBA converts any image to a zero-origin NRGBA image with stride 4*width.
func ToNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
