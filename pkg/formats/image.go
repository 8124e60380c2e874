package formats

import (
	"fmt"
	"io/fs"
	"net/url"
	"path"

	"github.com/qmuntal/gltf"
)

// ReadImage returns the encoded bytes (PNG, JPEG, ...) of image index and
// its declared MIME type. Embedded images come from a buffer view or a data
// URI; external images are read from fsys.
func ReadImage(doc *gltf.Document, index int, fsys fs.FS) ([]byte, string, error) {
	if index < 0 || index >= len(doc.Images) {
		return nil, "", fmt.Errorf("%w: image %d of %d", ErrReference, index, len(doc.Images))
	}
	img := doc.Images[index]

	if img.BufferView != nil {
		data, err := ReadBufferView(doc, *img.BufferView)
		if err != nil {
			return nil, "", fmt.Errorf("image %d: %w", index, err)
		}
		return data, img.MimeType, nil
	}

	if img.URI == "" {
		return nil, "", fmt.Errorf("%w: image %d has neither URI nor buffer view", ErrParse, index)
	}

	if img.IsEmbeddedResource() {
		data, err := img.MarshalData()
		if err != nil {
			return nil, "", fmt.Errorf("%w: image %d data URI: %w", ErrParse, index, err)
		}
		return data, img.MimeType, nil
	}

	if fsys == nil {
		return nil, "", fmt.Errorf("%w: image %d references external file %q", ErrReference, index, img.URI)
	}
	name, err := url.PathUnescape(img.URI)
	if err != nil {
		name = img.URI
	}
	data, err := fs.ReadFile(fsys, path.Clean(name))
	if err != nil {
		return nil, "", fmt.Errorf("image %d: %w", index, err)
	}
	return data, img.MimeType, nil
}
