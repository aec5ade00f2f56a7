package recognize

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// ErrUnsupportedImage is returned for image data that is not PNG, JPEG,
// GIF or WebP.
var ErrUnsupportedImage = errors.New("unsupported image format")

// maxImageBytes bounds what is read from disk and sent to a backend.
const maxImageBytes = 8 << 20

var supportedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Image is a snapshot of a handwritten answer.
type Image struct {
	Data     []byte
	MIMEType string
}

// Empty reports whether the image carries no data.
func (i Image) Empty() bool {
	return len(i.Data) == 0
}

// NewImage sniffs the format of data.
func NewImage(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("empty image: %w", ErrUnsupportedImage)
	}
	if len(data) > maxImageBytes {
		return Image{}, fmt.Errorf("image is %d bytes, limit is %d", len(data), maxImageBytes)
	}
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !supportedTypes[mime] {
		return Image{}, fmt.Errorf("%s: %w", mime, ErrUnsupportedImage)
	}
	return Image{Data: data, MIMEType: mime}, nil
}

// LoadImage reads and sniffs an image file.
func LoadImage(path string) (Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Image{}, fmt.Errorf("stat image: %w", err)
	}
	if info.Size() > maxImageBytes {
		return Image{}, fmt.Errorf("image %s is %d bytes, limit is %d", path, info.Size(), maxImageBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	img, err := NewImage(data)
	if err != nil {
		return Image{}, fmt.Errorf("load %s: %w", path, err)
	}
	return img, nil
}
