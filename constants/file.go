package constants

import "strings"

// Format tags for the extraction stage.
const (
	PDF  = "PDF"
	DOCX = "DOCX"
	XLSX = "XLSX"
	TXT  = "TXT"
)

// AllowedExtensions holds the file extensions accepted for upload.
// Anything else is rejected before extraction begins.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"xlsx": {},
	"xls":  {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to its format tag.
// Returns "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "xlsx", "xls":
		return XLSX
	case "txt":
		return TXT
	default:
		return ""
	}
}
