package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// minHeight is the height below which images are scaled up before
// recognition. Tesseract misses glyphs that are only a few pixels tall.
const minHeight = 64

// ErrUnsupportedImage is returned for image data no registered decoder accepts.
var ErrUnsupportedImage = errors.New("ocr: unsupported image format")

// supportedTypes are the media types PreparePNG can decode.
var supportedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/webp": true,
}

// Supported reports whether images of the given media type can be prepared
// for recognition.
func Supported(mediaType string) bool {
	return supportedTypes[strings.ToLower(strings.TrimSpace(mediaType))]
}

// PreparePNG decodes an image in any supported format and re-encodes it as
// a grayscale PNG, scaling short images up to minHeight.
func PreparePNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedImage
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("decoding image: empty bounds")
	}

	scale := 1
	if b.Dy() < minHeight {
		scale = (minHeight + b.Dy() - 1) / b.Dy()
	}
	gray := image.NewGray(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	if scale == 1 {
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(gray, gray.Bounds(), img, b, draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
