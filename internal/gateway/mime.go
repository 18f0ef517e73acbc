package gateway

import (
	"path/filepath"
	"strings"
)

// DefaultImageMIMEType is used when the extension is absent or unrecognized
const DefaultImageMIMEType = "image/jpeg"

var imageMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// MIMETypeForFilename infers an image MIME type from the file extension
func MIMETypeForFilename(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := imageMIMETypes[ext]; ok {
		return t
	}
	return DefaultImageMIMEType
}

// ExtensionForMIMEType is the inverse of MIMETypeForFilename
func ExtensionForMIMEType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/tiff":
		return ".tiff"
	}
	for ext, t := range imageMIMETypes {
		if t == contentType {
			return ext
		}
	}
	return ".jpg"
}
