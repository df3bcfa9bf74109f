package pdfdoc

import "strings"

const (
	// gapFactor is the horizontal gap, as a fraction of font size, read as a word space.
	gapFactor = 0.2
	descent   = 0.25
	ascent    = 0.85
)

// glyph is one positioned piece of text as reported by the PDF reader.
// y is the baseline in user space.
type glyph struct {
	font string
	size float64
	x, y float64
	w    float64
	s    string
}

// line is a row of glyphs sharing a baseline, ordered left to right.
type line struct {
	glyphs []glyph
}

// page holds the text of one page and the origin of its MediaBox.
type page struct {
	number           int
	originX, originY float64
	lines            []line
}

// rect is an axis-aligned box in user space.
type rect struct {
	x0, y0, x1, y1 float64
}

// occurrence is one match of the search text on a page.
type occurrence struct {
	line        int
	first, last int // glyph indices, inclusive
	box         rect
}

// span is a run of consecutive glyphs in a line sharing font and size.
type span struct {
	line        int
	first, last int
	size        float64
	text        string
}

// text concatenates the glyphs of l, inserting a space where glyphs are
// visibly apart. owner maps each byte of the result to its glyph, or -1.
func (l line) text() (string, []int) {
	var b strings.Builder
	owner := make([]int, 0, len(l.glyphs))
	for i, g := range l.glyphs {
		if i > 0 && l.spaced(i) {
			b.WriteByte(' ')
			owner = append(owner, -1)
		}
		b.WriteString(g.s)
		for j := 0; j < len(g.s); j++ {
			owner = append(owner, i)
		}
	}
	return b.String(), owner
}

// spaced reports whether a word space separates glyph i from the one before it.
func (l line) spaced(i int) bool {
	prev, g := l.glyphs[i-1], l.glyphs[i]
	if strings.HasSuffix(prev.s, " ") || strings.HasPrefix(g.s, " ") {
		return false
	}
	gap := g.x - (prev.x + prev.w)
	return gap > gapFactor*max(g.size, prev.size)
}

func (l line) spans(index int) []span {
	var spans []span
	start := 0
	for i := 1; i <= len(l.glyphs); i++ {
		if i < len(l.glyphs) && l.glyphs[i].font == l.glyphs[start].font && l.glyphs[i].size == l.glyphs[start].size {
			continue
		}
		text, _ := line{glyphs: l.glyphs[start:i]}.text()
		spans = append(spans, span{
			line:  index,
			first: start,
			last:  i - 1,
			size:  l.glyphs[start].size,
			text:  text,
		})
		start = i
	}
	return spans
}

// find returns every non-overlapping occurrence of needle on the page.
func (p page) find(needle string) []occurrence {
	if needle == "" {
		return nil
	}
	var occs []occurrence
	for li, l := range p.lines {
		text, owner := l.text()
		for from := 0; ; {
			idx := strings.Index(text[from:], needle)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(needle)
			from = end

			first, last := -1, -1
			for _, g := range owner[start:end] {
				if g < 0 {
					continue
				}
				if first < 0 {
					first = g
				}
				last = g
			}
			if first < 0 {
				continue
			}
			occs = append(occs, occurrence{
				line:  li,
				first: first,
				last:  last,
				box:   l.box(first, last),
			})
		}
	}
	return occs
}

func (l line) box(first, last int) rect {
	size, base := 0.0, l.glyphs[first].y
	for _, g := range l.glyphs[first : last+1] {
		size = max(size, g.size)
	}
	end := l.glyphs[last]
	return rect{
		x0: l.glyphs[first].x,
		y0: base - descent*size,
		x1: end.x + end.w,
		y1: base + ascent*size,
	}
}

// fontSize picks the size to draw replacement text for occ: the span holding
// the whole occurrence, else the first span on the page containing needle,
// else fallback.
func (p page) fontSize(occ occurrence, needle string, fallback float64) float64 {
	for _, s := range p.lines[occ.line].spans(occ.line) {
		if s.first <= occ.first && occ.last <= s.last && strings.Contains(s.text, needle) {
			return s.size
		}
	}
	for li, l := range p.lines {
		for _, s := range l.spans(li) {
			if strings.Contains(s.text, needle) {
				return s.size
			}
		}
	}
	return fallback
}
