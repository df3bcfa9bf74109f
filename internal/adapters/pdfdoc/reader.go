package pdfdoc

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ledongthucReader extracts text rows with github.com/ledongthuc/pdf.
type ledongthucReader struct{}

// Read returns the text of every page. The library panics on some malformed
// input; those panics are returned as errors.
func (ledongthucReader) Read(path string) (pages []page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		pg := page{number: i}
		if p.V.IsNull() {
			pages = append(pages, pg)
			continue
		}
		pg.originX, pg.originY = mediaOrigin(p.V)

		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			var l line
			for _, t := range row.Content {
				l.glyphs = append(l.glyphs, glyph{
					font: t.Font,
					size: t.FontSize,
					x:    t.X,
					y:    t.Y,
					w:    t.W,
					s:    t.S,
				})
			}
			if len(l.glyphs) > 0 {
				pg.lines = append(pg.lines, l)
			}
		}
		pages = append(pages, pg)
	}
	return pages, nil
}

// mediaOrigin returns the lower-left corner of the page's MediaBox,
// which may be inherited from the page tree.
func mediaOrigin(v pdf.Value) (float64, float64) {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		if box := v.Key("MediaBox"); box.Len() == 4 {
			return box.Index(0).Float64(), box.Index(1).Float64()
		}
		v = v.Key("Parent")
	}
	return 0, 0
}
