// Package manifest writes the JSON report of a substitution run.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"
)

type FileEntry struct {
	Source    string `json:"source"`
	Output    string `json:"output,omitempty"`
	SHA256    string `json:"sha256,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Report struct {
	Input        string      `json:"input"`
	Output       string      `json:"output,omitempty"`
	OutputSHA256 string      `json:"output_sha256,omitempty"`
	ExtractDir   string      `json:"extract_dir,omitempty"`
	Old          string      `json:"old"`
	New          string      `json:"new"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   time.Time   `json:"finished_at"`
	Files        []FileEntry `json:"files"`
}

func New(input, old, new string, started time.Time) *Report {
	return &Report{
		Input:     input,
		Old:       old,
		New:       new,
		StartedAt: started,
		Files:     []FileEntry{},
	}
}

func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}

	return &r, nil
}

func (r *Report) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// AddFile records one processed file. Produced outputs are hashed.
func (r *Report) AddFile(source, output string, fileErr error) error {
	entry := FileEntry{Source: source, Output: output}
	if fileErr != nil {
		entry.Error = fileErr.Error()
	}
	if output != "" {
		sum, err := ComputeSHA256(output)
		if err != nil {
			return err
		}
		info, err := os.Stat(output)
		if err != nil {
			return err
		}
		entry.SHA256 = sum
		entry.SizeBytes = info.Size()
	}
	r.Files = append(r.Files, entry)
	return nil
}

// Finish stamps the end time and, when an output archive exists, its checksum.
func (r *Report) Finish(output string, finished time.Time) error {
	r.Output = output
	r.FinishedAt = finished
	if output == "" {
		return nil
	}
	sum, err := ComputeSHA256(output)
	if err != nil {
		return err
	}
	r.OutputSHA256 = sum
	return nil
}

// Failed returns the number of files that could not be processed.
func (r *Report) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Error != "" {
			n++
		}
	}
	return n
}

// ComputeSHA256 calculates SHA256 hash of a file
func ComputeSHA256(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
