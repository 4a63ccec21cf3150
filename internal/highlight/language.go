package highlight

import (
	"path/filepath"
	"strings"
)

// DetectLanguage returns the Chroma language identifier for a C-family file.
// Everything cffind scans is parsed as C, so that is the fallback.
func DetectLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx":
		return "cpp"
	case ".m":
		return "objective-c"
	default:
		return "c"
	}
}
