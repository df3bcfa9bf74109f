// Package naming holds the rules for deriving output paths from input paths.
package naming

import (
	"path/filepath"
	"strings"
)

// Modified returns path with suffix inserted before its extension:
// "dir/name.ext" becomes "dir/name<suffix>.ext".
func Modified(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

// ExtractDir returns the folder an archive is extracted into:
// the archive path without its extension, followed by suffix.
func ExtractDir(archivePath, suffix string) string {
	return strings.TrimSuffix(archivePath, filepath.Ext(archivePath)) + suffix
}

// Report returns the path of the JSON run report written beside an archive.
func Report(archivePath string) string {
	return strings.TrimSuffix(archivePath, filepath.Ext(archivePath)) + "_report.json"
}

// Ext returns the lower-cased extension of path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
