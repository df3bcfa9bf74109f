// Package mocks provides mock implementations for testing.
package mocks

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mcdonaldj/docswap/internal/ports"
)

// MockFileSystem implements ports.FileSystem for testing.
type MockFileSystem struct {
	// Stats maps paths to FileInfo for Stat
	Stats map[string]os.FileInfo
	// Errors maps paths to errors (for simulating failures)
	Errors map[string]error
	// WalkEntries contains entries to return during Walk
	WalkEntries []WalkEntry
	// MkdirCalls records paths passed to MkdirAll
	MkdirCalls []string
	// RemoveAllCalls records paths passed to RemoveAll
	RemoveAllCalls []string
}

// WalkEntry represents a file or directory entry for Walk testing.
type WalkEntry struct {
	Path string
	Info os.FileInfo
	Err  error
}

// NewMockFileSystem creates a new mock filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		Stats:  make(map[string]os.FileInfo),
		Errors: make(map[string]error),
	}
}

// AddFile registers a regular file so Stat and Walk report it.
func (m *MockFileSystem) AddFile(path string, size int64) {
	info := FileInfo(filepath.Base(path), size, false)
	m.Stats[path] = info
	m.WalkEntries = append(m.WalkEntries, WalkEntry{Path: path, Info: info})
}

// Stat returns file info for the named file.
func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if info, ok := m.Stats[name]; ok {
		return info, nil
	}
	return nil, os.ErrNotExist
}

// MkdirAll creates a directory along with any necessary parents.
func (m *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	m.MkdirCalls = append(m.MkdirCalls, path)
	if err, ok := m.Errors[path]; ok {
		return err
	}
	// Mark directory as existing
	m.Stats[path] = FileInfo(filepath.Base(path), 0, true)
	return nil
}

// RemoveAll removes path and any children it contains.
func (m *MockFileSystem) RemoveAll(path string) error {
	m.RemoveAllCalls = append(m.RemoveAllCalls, path)
	if err, ok := m.Errors["RemoveAll:"+path]; ok {
		return err
	}
	for k := range m.Stats {
		if k == path || strings.HasPrefix(k, path+string(filepath.Separator)) {
			delete(m.Stats, k)
		}
	}
	return nil
}

// Walk walks the file tree rooted at root, calling fn for each file or directory.
func (m *MockFileSystem) Walk(root string, fn ports.WalkFunc) error {
	if err, ok := m.Errors["Walk:"+root]; ok {
		return err
	}
	for _, entry := range m.WalkEntries {
		if strings.HasPrefix(entry.Path, root) {
			if err := fn(entry.Path, entry.Info, entry.Err); err != nil {
				if err == filepath.SkipDir || err == filepath.SkipAll {
					return nil
				}
				return err
			}
		}
	}
	return nil
}

// FileInfo returns an os.FileInfo for tests.
func FileInfo(name string, size int64, isDir bool) os.FileInfo {
	return &mockFileInfo{name: name, size: size, isDir: isDir, modTime: time.Now()}
}

// mockFileInfo implements os.FileInfo for testing.
type mockFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
	isDir   bool
}

func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return fi.size }
func (fi *mockFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *mockFileInfo) IsDir() bool        { return fi.isDir }
func (fi *mockFileInfo) Sys() interface{}   { return nil }

// Compile-time check that MockFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*MockFileSystem)(nil)
