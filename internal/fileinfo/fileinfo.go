package fileinfo

import (
	"mime"
	"path"
	"strings"
)

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// IsImageFile checks if a file is an image the labeler can decode
func IsImageFile(filename string) bool {
	_, ok := imageTypes[strings.ToLower(path.Ext(filename))]
	return ok
}

// IsHidden reports dot files and the temporary files of the output store
func IsHidden(filename string) bool {
	return strings.HasPrefix(path.Base(filename), ".")
}

// ContentType returns the content type for a file
func ContentType(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if t, ok := imageTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
