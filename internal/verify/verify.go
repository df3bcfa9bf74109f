// Package verify checks a run report against the files it describes.
package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mcdonaldj/docswap/internal/adapters/osfs"
	"github.com/mcdonaldj/docswap/internal/adapters/ziparchiver"
	"github.com/mcdonaldj/docswap/internal/manifest"
	"github.com/mcdonaldj/docswap/internal/ports"
)

// Problem is one mismatch between a report and the disk.
type Problem struct {
	Path   string
	Reason string
}

func (p Problem) String() string {
	return p.Path + ": " + p.Reason
}

// Result summarises a verification.
type Result struct {
	Report   string
	Checked  int // files whose checksum was compared
	Missing  int // outputs already removed, e.g. by cleanup
	Failed   int // files the run itself recorded as failed
	Problems []Problem
}

// OK reports whether no problems were found.
func (r *Result) OK() bool { return len(r.Problems) == 0 }

// Service verifies reports with injected dependencies.
type Service struct {
	fs       ports.FileSystem
	archiver ports.Archiver
}

// NewService creates a new verify service with the given dependencies.
func NewService(fs ports.FileSystem, archiver ports.Archiver) *Service {
	return &Service{
		fs:       fs,
		archiver: archiver,
	}
}

// NewDefaultService creates a verify service with real production dependencies.
func NewDefaultService() *Service {
	return NewService(
		osfs.New(),
		ziparchiver.New(),
	)
}

// Verify loads the report at reportPath and compares it with the output
// archive and the extracted outputs that still exist.
func (s *Service) Verify(reportPath string) (*Result, error) {
	r, err := manifest.Load(reportPath)
	if err != nil {
		return nil, fmt.Errorf("loading report: %w", err)
	}

	res := &Result{Report: reportPath, Failed: r.Failed()}

	if r.Output != "" {
		if err := s.verifyArchive(r, res); err != nil {
			return nil, err
		}
	}

	for _, f := range r.Files {
		if f.Output == "" || f.SHA256 == "" {
			continue
		}
		if _, err := s.fs.Stat(f.Output); err != nil {
			if os.IsNotExist(err) {
				res.Missing++
				continue
			}
			return nil, err
		}
		res.Checked++
		if p, ok := checksum(f.Output, f.SHA256); !ok {
			res.Problems = append(res.Problems, p)
		}
	}

	return res, nil
}

func (s *Service) verifyArchive(r *manifest.Report, res *Result) error {
	if _, err := s.fs.Stat(r.Output); err != nil {
		if os.IsNotExist(err) {
			res.Problems = append(res.Problems, Problem{Path: r.Output, Reason: "archive missing"})
			return nil
		}
		return err
	}

	if r.OutputSHA256 != "" {
		res.Checked++
		if p, ok := checksum(r.Output, r.OutputSHA256); !ok {
			res.Problems = append(res.Problems, p)
		}
	}

	entries, err := s.archiver.List(r.Output)
	if err != nil {
		return fmt.Errorf("listing %s: %w", r.Output, err)
	}

	expected := make(map[string]bool)
	for _, f := range r.Files {
		if f.Output == "" {
			continue
		}
		rel, err := filepath.Rel(r.ExtractDir, f.Output)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", f.Output, err)
		}
		name := filepath.ToSlash(rel)
		expected[name] = true
		if _, ok := entries[name]; !ok {
			res.Problems = append(res.Problems, Problem{Path: name, Reason: "missing from archive"})
		}
	}

	var extra []string
	for name := range entries {
		if !expected[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		res.Problems = append(res.Problems, Problem{Path: name, Reason: "not in report"})
	}

	return nil
}

func checksum(path, want string) (Problem, bool) {
	got, err := manifest.ComputeSHA256(path)
	if err != nil {
		return Problem{Path: path, Reason: fmt.Sprintf("computing checksum: %v", err)}, false
	}
	if got != want {
		return Problem{Path: path, Reason: fmt.Sprintf("checksum mismatch: expected %s, got %s", want, got)}, false
	}
	return Problem{}, true
}
