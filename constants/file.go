package constants

import "strings"

// Source formats a rate confirmation can arrive in.
const (
	PDF = "PDF"
	TXT = "TXT"
)

// FileTypes holds the formats accepted by the document dispatcher.
var FileTypes = []string{PDF, TXT}

// AllowedExtensions holds the default allowed file extensions for rate confirmation uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"txt":  {},
	"text": {},
}

// AllowedMIMETypes mirrors AllowedExtensions for multipart uploads.
var AllowedMIMETypes = map[string]struct{}{
	"application/pdf": {},
	"text/plain":      {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to a source format.
// Anything that is not a PDF is read as plain text.
func MapExtToFormat(ext string) string {
	if NormalizeExt(ext) == "pdf" {
		return PDF
	}
	return TXT
}

// IsAllowedExt reports whether ext (with or without dot) may be ingested.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
