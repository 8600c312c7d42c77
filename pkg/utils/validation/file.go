package validation

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"wheredjsplay_backend/pkg/utils/image"
)

// ValidateImageFile checks size, extension and declared content type before
// any bytes are decoded.
func ValidateImageFile(file *multipart.FileHeader) error {
	if file.Size > image.MaxImageSize {
		return fmt.Errorf("file too large, maximum size is %d MB", image.MaxImageSize/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return fmt.Errorf("unsupported file extension: %s", ext)
	}

	contentType := file.Header.Get("Content-Type")
	if !image.AllowedImageTypes[contentType] {
		return fmt.Errorf("unsupported content type: %s", contentType)
	}

	return nil
}
