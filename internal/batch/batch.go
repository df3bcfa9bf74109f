// Package batch runs a substitution over a single file or a zip archive of files.
package batch

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mcdonaldj/docswap/internal/adapters/osfs"
	"github.com/mcdonaldj/docswap/internal/adapters/ziparchiver"
	"github.com/mcdonaldj/docswap/internal/config"
	"github.com/mcdonaldj/docswap/internal/dispatch"
	"github.com/mcdonaldj/docswap/internal/manifest"
	"github.com/mcdonaldj/docswap/internal/metrics"
	"github.com/mcdonaldj/docswap/internal/naming"
	"github.com/mcdonaldj/docswap/internal/ports"
)

// Outcome is what happened to one file: produced (Output set),
// failed (Err set) or skipped (neither, unsupported format).
type Outcome struct {
	Source string
	Output string
	Err    error
}

func (o Outcome) Produced() bool { return o.Output != "" }
func (o Outcome) Failed() bool   { return o.Err != nil }
func (o Outcome) Skipped() bool  { return o.Output == "" && o.Err == nil }

type Result struct {
	Input      string
	ExtractDir string
	Output     string // produced file or archive; empty when nothing was produced
	Report     string // report path, when one was written
	Archive    bool
	Outcomes   []Outcome
}

// Failures returns the outcomes that failed, in processing order.
func (r *Result) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Dispatcher routes one file to the handler for its format.
type Dispatcher interface {
	Dispatch(path string, sub ports.Substitution) (output string, ok bool, err error)
}

type Options struct {
	ModifiedSuffix string
	ExtractSuffix  string
	Cleanup        bool // remove the extraction folder after an archive run
	Report         bool // write a JSON report beside the archive
}

// Processor coordinates extraction, dispatch and re-archiving.
type Processor struct {
	fs         ports.FileSystem
	archiver   ports.Archiver
	dispatcher Dispatcher
	logger     *zap.Logger
	recorder   metrics.Recorder
	opts       Options
	now        func() time.Time
}

// NewProcessor creates a processor. A nil logger or recorder discards output.
func NewProcessor(fs ports.FileSystem, archiver ports.Archiver, dispatcher Dispatcher, logger *zap.Logger, recorder metrics.Recorder, opts Options) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &Processor{
		fs:         fs,
		archiver:   archiver,
		dispatcher: dispatcher,
		logger:     logger,
		recorder:   recorder,
		opts:       opts,
		now:        time.Now,
	}
}

// NewDefault creates a processor over the real filesystem with all format handlers.
func NewDefault(cfg *config.Config, logger *zap.Logger, recorder metrics.Recorder) *Processor {
	return NewProcessor(
		osfs.New(),
		ziparchiver.New(),
		dispatch.NewDefault(cfg, recorder),
		logger,
		recorder,
		Options{
			ModifiedSuffix: cfg.ModifiedSuffix,
			ExtractSuffix:  cfg.ExtractSuffix,
			Cleanup:        cfg.Cleanup.ExtractionDir,
			Report:         cfg.Report,
		},
	)
}

// Run processes path as an archive when it has a .zip extension, otherwise as a single file.
func (p *Processor) Run(path string, sub ports.Substitution) (*Result, error) {
	if _, err := p.fs.Stat(path); err != nil {
		return nil, err
	}
	if naming.Ext(path) == ".zip" {
		return p.ProcessArchive(path, sub)
	}
	return p.ProcessFile(path, sub)
}

// ProcessFile applies sub to one file. An unsupported format yields a
// result without output and no error; handler errors are returned.
func (p *Processor) ProcessFile(path string, sub ports.Substitution) (*Result, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	out, ok, err := p.dispatcher.Dispatch(path, sub)
	res := &Result{
		Input:    path,
		Output:   out,
		Outcomes: []Outcome{{Source: path, Output: out, Err: err}},
	}
	if err != nil {
		return res, err
	}
	if !ok {
		p.logger.Info("unsupported format", zap.String("file", path))
	}
	return res, nil
}

// ProcessArchive extracts the archive at path, applies sub to every supported
// file and collects the outputs into a new archive. A file that fails is
// logged and left out; only archive-level failures are returned.
func (p *Processor) ProcessArchive(path string, sub ports.Substitution) (*Result, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	start := p.now()
	res := &Result{
		Input:      path,
		ExtractDir: naming.ExtractDir(path, p.opts.ExtractSuffix),
		Archive:    true,
	}
	log := p.logger.With(zap.String("archive", path))

	success := false
	defer func() {
		p.recorder.RecordArchive(success, len(p.outputs(res)), time.Since(start))
	}()

	if err := p.fs.MkdirAll(res.ExtractDir, 0755); err != nil {
		return nil, fmt.Errorf("creating extraction folder: %w", err)
	}
	if err := p.archiver.Extract(path, res.ExtractDir); err != nil {
		return nil, fmt.Errorf("extracting %s: %w", path, err)
	}

	files, err := p.collect(res.ExtractDir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", res.ExtractDir, err)
	}

	for _, file := range files {
		out, ok, err := p.dispatcher.Dispatch(file, sub)
		if !ok {
			log.Debug("skipping unsupported file", zap.String("file", file))
		}
		res.Outcomes = append(res.Outcomes, Outcome{Source: file, Output: out, Err: err})
	}

	outputs := p.outputs(res)
	for _, o := range res.Failures() {
		log.Warn("file failed", zap.String("file", o.Source), zap.Error(o.Err))
	}

	if len(outputs) > 0 {
		dst := naming.Modified(path, p.opts.ModifiedSuffix)
		count, err := p.archiver.Create(dst, res.ExtractDir, outputs)
		if err != nil {
			return res, fmt.Errorf("creating %s: %w", dst, err)
		}
		res.Output = dst
		log.Debug("archive written", zap.String("output", dst), zap.Int("entries", count))
	}

	if p.opts.Report {
		reportPath, err := p.writeReport(res, sub, start)
		if err != nil {
			return res, fmt.Errorf("writing report: %w", err)
		}
		res.Report = reportPath
	}

	if p.opts.Cleanup {
		if err := p.fs.RemoveAll(res.ExtractDir); err != nil {
			return res, fmt.Errorf("removing extraction folder: %w", err)
		}
	}

	log.Info("archive processed",
		zap.Int("files", len(res.Outcomes)),
		zap.Int("produced", len(outputs)),
		zap.Int("failed", len(res.Failures())),
	)
	success = true
	return res, nil
}

// collect lists the regular files under dir before any output is written,
// so outputs of this run are never picked up as inputs.
func (p *Processor) collect(dir string) ([]string, error) {
	var files []string
	err := p.fs.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && info.Mode().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// outputs returns the produced files in processing order.
func (p *Processor) outputs(res *Result) []string {
	var out []string
	for _, o := range res.Outcomes {
		if o.Produced() {
			out = append(out, o.Output)
		}
	}
	return out
}

func (p *Processor) writeReport(res *Result, sub ports.Substitution, start time.Time) (string, error) {
	r := manifest.New(res.Input, sub.Old, sub.New, start)
	r.ExtractDir = res.ExtractDir
	for _, o := range res.Outcomes {
		if o.Skipped() {
			continue
		}
		if err := r.AddFile(o.Source, o.Output, o.Err); err != nil {
			return "", err
		}
	}
	if err := r.Finish(res.Output, p.now()); err != nil {
		return "", err
	}

	path := naming.Report(res.Input)
	if err := r.Save(path); err != nil {
		return "", err
	}
	return path, nil
}

// FormatSize formats bytes as human-readable
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
