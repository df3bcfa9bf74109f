package ports

// Archiver abstracts zip archive operations for testability.
// Production code uses ZipArchiver adapter; tests use MockArchiver.
type Archiver interface {
	// Create writes a zip archive at destPath holding files, each stored
	// under its slash-separated path relative to baseDir, in the given order.
	// Returns the number of entries written.
	Create(destPath, baseDir string, files []string) (fileCount int, err error)

	// Extract extracts a zip archive to destDir, preserving its directory layout.
	Extract(zipPath, destDir string) error

	// List returns a map of entry names to their info from the archive.
	List(zipPath string) (map[string]FileInfo, error)
}

// FileInfo contains metadata about a file in an archive.
type FileInfo struct {
	Size  int64
	CRC32 uint32
}
