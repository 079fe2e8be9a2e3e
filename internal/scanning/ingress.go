package scanning

import (
	"mime"
	"path/filepath"
	"strings"
)

// MaxUploadSize is the largest image accepted for scanning (10 MiB)
const MaxUploadSize = 10 << 20

// Upload is an uploaded receipt image. It lives only for the duration of one scan.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

var allowedMimeTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

// ValidateUpload enforces type and size constraints before any expensive work
func ValidateUpload(u Upload) ([]byte, error) {
	if u.Data == nil && u.Size == 0 {
		return nil, invalidInput(InvalidMissingFile, "no file")
	}

	if u.Size > MaxUploadSize || int64(len(u.Data)) > MaxUploadSize {
		return nil, invalidInput(InvalidTooLarge, "file exceeds 10MiB")
	}

	mimeType := normalizeMimeType(u.ContentType, u.Filename)
	if !allowedMimeTypes[mimeType] {
		return nil, invalidInput(InvalidBadType, "unsupported type "+mimeType)
	}

	if len(u.Data) == 0 {
		return nil, invalidInput(InvalidMissingFile, "empty file")
	}

	return u.Data, nil
}

// normalizeMimeType lowercases the declared type, drops parameters and falls back
// to the file extension when no type was declared
func normalizeMimeType(contentType, filename string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return contentType
}
