// Package pdfdoc provides the PDF handler. Text is located with
// ledongthuc/pdf and rewritten by stamping with pdfcpu: each match is
// covered with an opaque white box and the replacement drawn on top.
//
// The cover is visual only. The original text operators stay in the page
// content, so the old text remains extractable and a second run over an
// output finds and stamps it again. Replacement text is drawn at the
// matched size rounded to a whole point.
package pdfdoc

import (
	"fmt"
	"io"
	"os"

	"github.com/mcdonaldj/docswap/internal/naming"
	"github.com/mcdonaldj/docswap/internal/ports"
)

// Compile-time interface check
var _ ports.Handler = (*Handler)(nil)

// Options control how replacement text is drawn.
type Options struct {
	FontName       string
	FallbackSize   float64
	BaselineOffset float64
}

// textReader extracts positioned text from every page of a document.
type textReader interface {
	Read(path string) ([]page, error)
}

// stamper writes src to dst with stamps applied, keyed by 1-based page number.
type stamper interface {
	Stamp(src, dst string, stamps map[int][]stamp) error
}

// stamp is a redaction box or a text insertion, positioned relative to the
// page's bottom-left corner.
type stamp struct {
	redact bool
	x, y   float64
	w, h   float64
	text   string
	font   string
	size   float64
}

// Handler replaces visible text in PDF documents.
type Handler struct {
	suffix  string
	opts    Options
	reader  textReader
	stamper stamper
}

// New creates a PDF handler writing outputs with the given modified suffix.
func New(suffix string, opts Options) *Handler {
	return &Handler{
		suffix:  suffix,
		opts:    opts,
		reader:  ledongthucReader{},
		stamper: pdfcpuStamper{},
	}
}

// Transform writes a copy of path in which every occurrence of sub.Old is
// redacted and overdrawn with sub.New. Without occurrences the copy is exact.
func (h *Handler) Transform(path string, sub ports.Substitution) (string, error) {
	pages, err := h.reader.Read(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	dst := naming.Modified(path, h.suffix)
	stamps := h.plan(pages, sub)
	if len(stamps) == 0 {
		if err := copyFile(path, dst); err != nil {
			_ = os.Remove(dst)
			return "", err
		}
		return dst, nil
	}

	if err := h.stamper.Stamp(path, dst, stamps); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("stamping %s: %w", path, err)
	}
	return dst, nil
}

// plan lays out the stamps for each page: all redactions, then all insertions.
func (h *Handler) plan(pages []page, sub ports.Substitution) map[int][]stamp {
	stamps := make(map[int][]stamp)
	for _, p := range pages {
		occs := p.find(sub.Old)
		if len(occs) == 0 {
			continue
		}

		var redactions, inserts []stamp
		for _, occ := range occs {
			b := occ.box
			redactions = append(redactions, stamp{
				redact: true,
				x:      b.x0 - p.originX,
				y:      b.y0 - p.originY,
				w:      b.x1 - b.x0,
				h:      b.y1 - b.y0,
			})
			if sub.New == "" {
				continue
			}
			inserts = append(inserts, stamp{
				x:    b.x0 - p.originX,
				y:    b.y0 + h.opts.BaselineOffset - p.originY,
				text: sub.New,
				font: h.opts.FontName,
				size: p.fontSize(occ, sub.Old, h.opts.FallbackSize),
			})
		}
		stamps[p.number] = append(redactions, inserts...)
	}
	return stamps
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
