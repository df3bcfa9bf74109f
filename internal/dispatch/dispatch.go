// Package dispatch routes a file to the handler registered for its extension.
package dispatch

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mcdonaldj/docswap/internal/adapters/csvtable"
	"github.com/mcdonaldj/docswap/internal/adapters/pdfdoc"
	"github.com/mcdonaldj/docswap/internal/adapters/xmltree"
	"github.com/mcdonaldj/docswap/internal/adapters/xptfile"
	"github.com/mcdonaldj/docswap/internal/config"
	"github.com/mcdonaldj/docswap/internal/metrics"
	"github.com/mcdonaldj/docswap/internal/naming"
	"github.com/mcdonaldj/docswap/internal/ports"
	"github.com/mcdonaldj/docswap/internal/xport"
)

// Dispatcher maps lower-cased extensions to handlers.
type Dispatcher struct {
	handlers map[string]ports.Handler
	recorder metrics.Recorder
}

// New creates a dispatcher over handlers, keyed by extension with or without
// the leading dot. A nil recorder discards metrics.
func New(handlers map[string]ports.Handler, recorder metrics.Recorder) *Dispatcher {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	d := &Dispatcher{
		handlers: make(map[string]ports.Handler, len(handlers)),
		recorder: recorder,
	}
	for ext, h := range handlers {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		d.handlers[ext] = h
	}
	return d
}

// NewDefault creates a dispatcher with the PDF, CSV, XML and XPT handlers.
func NewDefault(cfg *config.Config, recorder metrics.Recorder) *Dispatcher {
	return New(map[string]ports.Handler{
		".pdf": pdfdoc.New(cfg.ModifiedSuffix, pdfdoc.Options{
			FontName:       cfg.PDF.FontName,
			FallbackSize:   cfg.PDF.FallbackFontSize,
			BaselineOffset: cfg.PDF.BaselineOffset,
		}),
		".csv": csvtable.New(cfg.ModifiedSuffix),
		".xml": xmltree.New(cfg.ModifiedSuffix),
		".xpt": xptfile.New(cfg.ModifiedSuffix, xport.Version(cfg.XPT.Version)),
	}, recorder)
}

// Extensions returns the registered extensions in sorted order.
func (d *Dispatcher) Extensions() []string {
	exts := make([]string, 0, len(d.handlers))
	for ext := range d.handlers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Dispatch hands path to its handler and returns the produced file.
// ok is false, with a nil error, when no handler matches the extension.
func (d *Dispatcher) Dispatch(path string, sub ports.Substitution) (output string, ok bool, err error) {
	ext := naming.Ext(path)
	h, ok := d.handlers[ext]
	if !ok {
		return "", false, nil
	}

	start := time.Now()
	output, err = h.Transform(path, sub)
	d.recorder.RecordFile(strings.TrimPrefix(ext, "."), err == nil, time.Since(start))
	if err != nil {
		return "", true, fmt.Errorf("%s: %w", path, err)
	}
	return output, true, nil
}
