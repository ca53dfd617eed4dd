package detect

import (
	"path/filepath"
	"strings"
)

// Content categories. Every inbound item maps to exactly one.
const (
	CategoryImages    = "images"
	CategoryDocuments = "documents"
	CategoryLinks     = "links"
	CategoryNotes     = "notes"
)

// Categories lists all known content categories.
var Categories = []string{CategoryImages, CategoryDocuments, CategoryLinks, CategoryNotes}

var documentMIMETypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/msword": true,
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".bmp": true, ".webp": true,
}

var documentExtensions = map[string]bool{
	".pdf": true, ".docx": true, ".doc": true,
}

// ContentType maps a filename and MIME type to a content category.
// MIME takes priority over the filename extension; when neither is
// informative the item is treated as a note. Always returns a valid
// category.
func ContentType(filename, mimeType string) string {
	if mimeType != "" {
		if strings.HasPrefix(mimeType, "image/") {
			return CategoryImages
		}
		if documentMIMETypes[mimeType] {
			return CategoryDocuments
		}
	}

	if filename != "" {
		ext := strings.ToLower(filepath.Ext(filename))
		if imageExtensions[ext] {
			return CategoryImages
		}
		if documentExtensions[ext] {
			return CategoryDocuments
		}
	}

	return CategoryNotes
}

// ValidCategory reports whether s names a known content category.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if s == c {
			return true
		}
	}
	return false
}
