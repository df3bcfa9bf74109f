package batch

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mcdonaldj/docswap/internal/dispatch"
	"github.com/mcdonaldj/docswap/internal/mocks"
	"github.com/mcdonaldj/docswap/internal/ports"
)

type archiveRecord struct {
	success bool
	outputs int
}

type recordingRecorder struct {
	archives []archiveRecord
}

func (r *recordingRecorder) RecordFile(string, bool, time.Duration) {}

func (r *recordingRecorder) RecordArchive(success bool, outputs int, _ time.Duration) {
	r.archives = append(r.archives, archiveRecord{success, outputs})
}

type fixture struct {
	proc     *Processor
	fs       *mocks.MockFileSystem
	archiver *mocks.MockArchiver
	handler  *mocks.MockHandler
	logs     *observer.ObservedLogs
	recorder *recordingRecorder
}

func newFixture(opts Options) *fixture {
	if opts.ModifiedSuffix == "" {
		opts.ModifiedSuffix = "_modified"
	}
	if opts.ExtractSuffix == "" {
		opts.ExtractSuffix = "_extracted"
	}

	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		fs:       mocks.NewMockFileSystem(),
		archiver: mocks.NewMockArchiver(),
		handler:  mocks.NewMockHandler(),
		logs:     logs,
		recorder: &recordingRecorder{},
	}
	d := dispatch.New(map[string]ports.Handler{".csv": f.handler, ".pdf": f.handler}, nil)
	f.proc = NewProcessor(f.fs, f.archiver, d, zap.New(core), f.recorder, opts)
	return f
}

var testSub = ports.Substitution{Old: "CDISC", New: "CSIDC"}

func TestProcessArchiveCollectsOutputs(t *testing.T) {
	f := newFixture(Options{})
	f.fs.AddFile("/work/in_extracted/A.csv", 10)
	f.fs.AddFile("/work/in_extracted/B.pdf", 20)
	f.fs.AddFile("/work/in_extracted/C.txt", 30)

	res, err := f.proc.ProcessArchive("/work/in.zip", testSub)
	if err != nil {
		t.Fatalf("ProcessArchive failed: %v", err)
	}

	if res.ExtractDir != "/work/in_extracted" {
		t.Errorf("ExtractDir = %q", res.ExtractDir)
	}
	if res.Output != "/work/in_modified.zip" {
		t.Errorf("Output = %q", res.Output)
	}
	if !reflect.DeepEqual(f.fs.MkdirCalls, []string{"/work/in_extracted"}) {
		t.Errorf("MkdirCalls = %v", f.fs.MkdirCalls)
	}
	if len(f.archiver.ExtractCalls) != 1 || f.archiver.ExtractCalls[0].DestDir != "/work/in_extracted" {
		t.Errorf("ExtractCalls = %+v", f.archiver.ExtractCalls)
	}

	if len(res.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, expected 3", len(res.Outcomes))
	}
	if !res.Outcomes[2].Skipped() {
		t.Errorf("C.txt outcome = %+v, expected skipped", res.Outcomes[2])
	}

	if len(f.archiver.CreateCalls) != 1 {
		t.Fatalf("CreateCalls = %d, expected 1", len(f.archiver.CreateCalls))
	}
	call := f.archiver.CreateCalls[0]
	want := []string{"/work/in_extracted/A_modified.csv", "/work/in_extracted/B_modified.pdf"}
	if call.BaseDir != "/work/in_extracted" || !reflect.DeepEqual(call.Files, want) {
		t.Errorf("Create = %+v, expected files %v", call, want)
	}
	if !reflect.DeepEqual(f.recorder.archives, []archiveRecord{{true, 2}}) {
		t.Errorf("archive metrics = %v", f.recorder.archives)
	}
	if len(f.fs.RemoveAllCalls) != 0 {
		t.Error("extraction folder removed without cleanup")
	}
}

func TestProcessArchiveLogsAndExcludesFailures(t *testing.T) {
	f := newFixture(Options{})
	f.fs.AddFile("/work/in_extracted/A.csv", 10)
	f.fs.AddFile("/work/in_extracted/B.pdf", 20)
	f.handler.Errors["/work/in_extracted/B.pdf"] = errors.New("corrupt xref")

	res, err := f.proc.ProcessArchive("/work/in.zip", testSub)
	if err != nil {
		t.Fatalf("ProcessArchive failed: %v", err)
	}

	failures := res.Failures()
	if len(failures) != 1 || failures[0].Source != "/work/in_extracted/B.pdf" {
		t.Fatalf("failures = %+v", failures)
	}
	if got := f.archiver.CreateCalls[0].Files; !reflect.DeepEqual(got, []string{"/work/in_extracted/A_modified.csv"}) {
		t.Errorf("archived = %v", got)
	}

	entries := f.logs.FilterMessage("file failed").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d failures, expected 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["file"] != "/work/in_extracted/B.pdf" {
		t.Errorf("file field = %v", fields["file"])
	}
	if fields["error"] != "/work/in_extracted/B.pdf: corrupt xref" {
		t.Errorf("error field = %v", fields["error"])
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v, expected warn", entries[0].Level)
	}
}

func TestProcessArchiveWithoutOutputs(t *testing.T) {
	f := newFixture(Options{})
	f.fs.AddFile("/work/in_extracted/notes.txt", 1)

	res, err := f.proc.ProcessArchive("/work/in.zip", testSub)
	if err != nil {
		t.Fatalf("ProcessArchive failed: %v", err)
	}
	if res.Output != "" {
		t.Errorf("Output = %q, expected empty", res.Output)
	}
	if len(f.archiver.CreateCalls) != 0 {
		t.Error("Create called without outputs")
	}
}

func TestProcessArchiveCleanup(t *testing.T) {
	f := newFixture(Options{Cleanup: true})
	f.fs.AddFile("/work/in_extracted/A.csv", 1)

	if _, err := f.proc.ProcessArchive("/work/in.zip", testSub); err != nil {
		t.Fatalf("ProcessArchive failed: %v", err)
	}
	if !reflect.DeepEqual(f.fs.RemoveAllCalls, []string{"/work/in_extracted"}) {
		t.Errorf("RemoveAllCalls = %v", f.fs.RemoveAllCalls)
	}
}

func TestProcessArchiveErrors(t *testing.T) {
	failure := errors.New("boom")
	tests := []struct {
		name  string
		setup func(*fixture)
	}{
		{"mkdir", func(f *fixture) { f.fs.Errors["/work/in_extracted"] = failure }},
		{"extract", func(f *fixture) { f.archiver.Errors["Extract"] = failure }},
		{"walk", func(f *fixture) { f.fs.Errors["Walk:/work/in_extracted"] = failure }},
		{"create", func(f *fixture) {
			f.fs.AddFile("/work/in_extracted/A.csv", 1)
			f.archiver.Errors["Create"] = failure
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(Options{})
			tt.setup(f)

			_, err := f.proc.ProcessArchive("/work/in.zip", testSub)
			if !errors.Is(err, failure) {
				t.Errorf("error = %v, expected %v", err, failure)
			}
			if len(f.recorder.archives) != 1 || f.recorder.archives[0].success {
				t.Errorf("archive metrics = %v, expected one failure", f.recorder.archives)
			}
		})
	}
}

func TestProcessRejectsEmptyOld(t *testing.T) {
	f := newFixture(Options{})

	if _, err := f.proc.ProcessArchive("/work/in.zip", ports.Substitution{New: "x"}); !errors.Is(err, ports.ErrEmptyOld) {
		t.Errorf("ProcessArchive error = %v, expected ErrEmptyOld", err)
	}
	if _, err := f.proc.ProcessFile("/work/a.csv", ports.Substitution{New: "x"}); !errors.Is(err, ports.ErrEmptyOld) {
		t.Errorf("ProcessFile error = %v, expected ErrEmptyOld", err)
	}
	if len(f.fs.MkdirCalls) != 0 || len(f.handler.Calls) != 0 {
		t.Error("nothing should run for an invalid substitution")
	}
}

func TestProcessFile(t *testing.T) {
	f := newFixture(Options{})

	res, err := f.proc.ProcessFile("/work/a.csv", testSub)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if res.Output != "/work/a_modified.csv" || res.Archive {
		t.Errorf("result = %+v", res)
	}

	res, err = f.proc.ProcessFile("/work/report.docx", testSub)
	if err != nil {
		t.Fatalf("ProcessFile failed for unsupported file: %v", err)
	}
	if res.Output != "" || !res.Outcomes[0].Skipped() {
		t.Errorf("unsupported result = %+v", res)
	}

	f.handler.Errors["/work/bad.pdf"] = errors.New("corrupt")
	if _, err := f.proc.ProcessFile("/work/bad.pdf", testSub); err == nil {
		t.Error("ProcessFile should return handler errors")
	}
}

func TestRunChoosesModeByExtension(t *testing.T) {
	f := newFixture(Options{})
	f.fs.AddFile("/work/in.ZIP", 100)
	f.fs.AddFile("/work/a.csv", 10)

	res, err := f.proc.Run("/work/in.ZIP", testSub)
	if err != nil {
		t.Fatalf("Run(zip) failed: %v", err)
	}
	if !res.Archive || len(f.archiver.ExtractCalls) != 1 {
		t.Errorf("zip input not processed as archive: %+v", res)
	}

	res, err = f.proc.Run("/work/a.csv", testSub)
	if err != nil {
		t.Fatalf("Run(csv) failed: %v", err)
	}
	if res.Archive || res.Output != "/work/a_modified.csv" {
		t.Errorf("csv result = %+v", res)
	}

	if _, err := f.proc.Run("/work/missing.csv", testSub); err == nil {
		t.Error("Run should fail for a missing input")
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatSize(tt.bytes)
			if result != tt.expected {
				t.Errorf("FormatSize(%d) = %q, expected %q", tt.bytes, result, tt.expected)
			}
		})
	}
}
