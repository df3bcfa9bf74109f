package tuisvc

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcdonaldj/docswap/internal/config"
	"github.com/mcdonaldj/docswap/internal/ports"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestLoadConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("modified_suffix: _tui\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvConfigPath, path)

	cfg, err := New().LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ModifiedSuffix != "_tui" {
		t.Errorf("ModifiedSuffix = %q, expected _tui", cfg.ModifiedSuffix)
	}
}

func TestRunSingleFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(input, []byte("company\nAcme\n"), 0644); err != nil {
		t.Fatal(err)
	}

	res := New().Run(defaultConfig(t), input, ports.Substitution{Old: "Acme", New: "Globex"})

	if res.Error != nil {
		t.Fatalf("Run() error = %v", res.Error)
	}
	if res.Archive {
		t.Error("Archive = true, expected false")
	}
	if res.Output != filepath.Join(dir, "in_modified.csv") {
		t.Errorf("Output = %q, expected in_modified.csv", res.Output)
	}
}

func TestRunArchive(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bundle.zip")
	f, err := os.Create(input)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range map[string]string{
		"a.csv":     "company\nAcme\n",
		"notes.txt": "Acme",
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	res := New().Run(defaultConfig(t), input, ports.Substitution{Old: "Acme", New: "Globex"})

	if res.Error != nil {
		t.Fatalf("Run() error = %v", res.Error)
	}
	if !res.Archive {
		t.Error("Archive = false, expected true")
	}
	if len(res.Files) != 2 {
		t.Fatalf("Files = %d, expected 2", len(res.Files))
	}
	produced := 0
	for _, file := range res.Files {
		if file.Output != "" {
			produced++
			if !strings.HasSuffix(file.Output, "a_modified.csv") {
				t.Errorf("Output = %q, expected a_modified.csv", file.Output)
			}
		}
	}
	if produced != 1 {
		t.Errorf("produced = %d, expected 1", produced)
	}
	if res.Output != filepath.Join(dir, "bundle_modified.zip") {
		t.Errorf("Output = %q, expected bundle_modified.zip", res.Output)
	}
}

func TestRunMissingInput(t *testing.T) {
	res := New().Run(defaultConfig(t), filepath.Join(t.TempDir(), "missing.csv"), ports.Substitution{Old: "a", New: "b"})
	if res.Error == nil {
		t.Error("expected error for missing input")
	}
}

func TestRunEmptyOld(t *testing.T) {
	res := New().Run(defaultConfig(t), "in.csv", ports.Substitution{Old: "", New: "b"})
	if res.Error == nil {
		t.Error("expected error for empty old text")
	}
}
