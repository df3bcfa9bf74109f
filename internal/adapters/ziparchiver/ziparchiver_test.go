package ziparchiver

import (
	"archive/zip"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for name, content := range entries {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestExtractPreservesLayout(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "in.zip")
	writeZip(t, zipPath, map[string]string{
		"A.csv":        "a,b\n",
		"sub/B.xml":    "<a/>",
		"sub/deep/C.x": "c",
	})

	dest := filepath.Join(dir, "in_extracted")
	if err := New().Extract(zipPath, dest); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	for name, want := range map[string]string{"A.csv": "a,b\n", "sub/B.xml": "<a/>", "sub/deep/C.x": "c"} {
		data, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(name)))
		if err != nil {
			t.Errorf("missing %s: %v", name, err)
			continue
		}
		if string(data) != want {
			t.Errorf("%s = %q, expected %q", name, data, want)
		}
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "in.zip")
	writeZip(t, zipPath, map[string]string{"A.csv": "x"})
	dest := filepath.Join(dir, "out")

	for i := 0; i < 2; i++ {
		if err := New().Extract(zipPath, dest); err != nil {
			t.Fatalf("Extract #%d failed: %v", i+1, err)
		}
	}
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	writeZip(t, zipPath, map[string]string{"../escape.txt": "boom"})

	if err := New().Extract(zipPath, filepath.Join(dir, "dest")); err == nil {
		t.Error("Extract should reject entries outside the destination")
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); err == nil {
		t.Error("traversal entry was written")
	}
}

func TestExtractRejectsSymlinks(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "link.zip")

	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	header := &zip.FileHeader{Name: "link"}
	header.SetMode(os.ModeSymlink | 0777)
	fw, err := w.CreateHeader(header)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("/etc/passwd"))
	_ = w.Close()
	_ = f.Close()

	if err := New().Extract(zipPath, filepath.Join(dir, "dest")); err == nil {
		t.Error("Extract should reject symlinks")
	}
}

func TestCreateUsesRelativeSlashNames(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base")
	files := []string{
		filepath.Join(base, "A_modified.csv"),
		filepath.Join(base, "sub", "B_modified.pdf"),
	}
	for _, p := range files {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(filepath.Base(p)), 0644); err != nil {
			t.Fatal(err)
		}
	}

	zipPath := filepath.Join(dir, "out.zip")
	count, err := New().Create(zipPath, base, files)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, expected 2", count)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer r.Close()

	want := []string{"A_modified.csv", "sub/B_modified.pdf"}
	if len(r.File) != len(want) {
		t.Fatalf("archive has %d entries, expected %d", len(r.File), len(want))
	}
	for i, f := range r.File {
		if f.Name != want[i] {
			t.Errorf("entry %d = %q, expected %q", i, f.Name, want[i])
		}
	}
}

func TestCreateMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := New().Create(filepath.Join(dir, "out.zip"), dir, []string{filepath.Join(dir, "gone.csv")})
	if err == nil {
		t.Error("Create should fail for a missing file")
	}
}

func TestCreateRejectsFilesOutsideBase(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(dir, "outside.csv")
	if err := os.WriteFile(outside, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New().Create(filepath.Join(dir, "out.zip"), filepath.Join(dir, "base"), []string{outside})
	if err == nil {
		t.Error("Create should reject files outside the base directory")
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "in.zip")
	writeZip(t, zipPath, map[string]string{"sub/A.csv": "hello"})

	files, err := New().List(zipPath)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	info, ok := files["sub/A.csv"]
	if !ok {
		t.Fatalf("List = %v, expected sub/A.csv", files)
	}
	if info.Size != 5 {
		t.Errorf("size = %d, expected 5", info.Size)
	}
	if info.CRC32 != crc32.ChecksumIEEE([]byte("hello")) {
		t.Errorf("crc = %x", info.CRC32)
	}
}
