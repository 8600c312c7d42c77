package image

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"mime/multipart"

	"github.com/chai2010/webp"
)

const (
	MaxImageSize = 10 * 1024 * 1024 // 10MB
)

var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ProcessImage re-encodes a validated upload as webp, the single format the
// frontend serves. Returns the encoded buffer and its content type.
func ProcessImage(file *multipart.FileHeader) (*bytes.Buffer, string, error) {
	src, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("could not open file: %v", err)
	}
	defer src.Close()

	img, format, err := image.Decode(src)
	if err != nil {
		return nil, "", fmt.Errorf("could not decode image: %v", err)
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Quality: 85}); err != nil {
		// Fall back to the original format if webp encoding fails.
		buf.Reset()
		switch format {
		case "png":
			err = png.Encode(buf, img)
			return buf, "image/png", err
		default:
			err = jpeg.Encode(buf, img, &jpeg.Options{Quality: 85})
			return buf, "image/jpeg", err
		}
	}

	return buf, "image/webp", nil
}
