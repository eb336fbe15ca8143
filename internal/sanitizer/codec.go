package sanitizer

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// ErrEmptyPage is returned when a page resource holds no bytes.
var ErrEmptyPage = errors.New("page resource is empty")

// isHEIC sniffs the ISO BMFF ftyp box for HEIC/HEIF brands.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	default:
		return false
	}
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// decodePage turns page bytes into an image. Engines normally produce JPEG but
// some hand out HEIC captures or single-page PDFs.
func decodePage(data []byte) (image.Image, error) {
	switch {
	case len(data) == 0:
		return nil, ErrEmptyPage
	case isHEIC(data):
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC page: %w", err)
		}

		return img, nil
	case isPDF(data):
		doc, err := fitz.NewFromMemory(data)
		if err != nil {
			return nil, fmt.Errorf("opening PDF page: %w", err)
		}
		defer func() {
			_ = doc.Close()
		}()

		img, err := doc.Image(0)
		if err != nil {
			return nil, fmt.Errorf("rendering PDF page: %w", err)
		}

		return img, nil
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding page: %w", err)
		}

		return img, nil
	}
}

// encodeJPEGBase64 re-encodes img as JPEG at quality and returns the standard
// base64 text. jpeg.Encode itself bounds quality to [1,100].
func encodeJPEGBase64(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("encoding JPEG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
