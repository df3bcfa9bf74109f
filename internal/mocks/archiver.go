package mocks

import (
	"github.com/mcdonaldj/docswap/internal/ports"
)

// MockArchiver implements ports.Archiver for testing.
type MockArchiver struct {
	// CreateCalls records calls to Create
	CreateCalls []CreateCall
	// ExtractCalls records calls to Extract
	ExtractCalls []ExtractCall
	// ListResults maps zip paths to entry listings
	ListResults map[string]map[string]ports.FileInfo
	// Errors maps method names to errors
	Errors map[string]error
	// CreateResult overrides the entry count returned by Create when >= 0
	CreateResult int
}

// CreateCall records parameters of a Create call.
type CreateCall struct {
	DestPath string
	BaseDir  string
	Files    []string
}

// ExtractCall records parameters of an Extract call.
type ExtractCall struct {
	ZipPath string
	DestDir string
}

// NewMockArchiver creates a new mock archiver.
func NewMockArchiver() *MockArchiver {
	return &MockArchiver{
		ListResults:  make(map[string]map[string]ports.FileInfo),
		Errors:       make(map[string]error),
		CreateResult: -1, // report one entry per file
	}
}

// Create records the archive request and reports the number of entries written.
func (m *MockArchiver) Create(destPath, baseDir string, files []string) (int, error) {
	m.CreateCalls = append(m.CreateCalls, CreateCall{
		DestPath: destPath,
		BaseDir:  baseDir,
		Files:    append([]string(nil), files...),
	})
	if err, ok := m.Errors["Create"]; ok {
		return 0, err
	}
	if m.CreateResult >= 0 {
		return m.CreateResult, nil
	}
	return len(files), nil
}

// Extract records the extraction request.
func (m *MockArchiver) Extract(zipPath, destDir string) error {
	m.ExtractCalls = append(m.ExtractCalls, ExtractCall{
		ZipPath: zipPath,
		DestDir: destDir,
	})
	if err, ok := m.Errors["Extract"]; ok {
		return err
	}
	return nil
}

// List returns a map of entry names to their info from the archive.
func (m *MockArchiver) List(zipPath string) (map[string]ports.FileInfo, error) {
	if err, ok := m.Errors["List"]; ok {
		return nil, err
	}
	if result, ok := m.ListResults[zipPath]; ok {
		return result, nil
	}
	return make(map[string]ports.FileInfo), nil
}

// Compile-time check that MockArchiver implements ports.Archiver.
var _ ports.Archiver = (*MockArchiver)(nil)
