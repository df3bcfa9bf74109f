package pdfdoc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// pdfcpuStamper applies stamps with github.com/pdfcpu/pdfcpu in one pass.
type pdfcpuStamper struct{}

func (pdfcpuStamper) Stamp(src, dst string, stamps map[int][]stamp) error {
	wms := make(map[int][]*model.Watermark, len(stamps))
	for pageNr, list := range stamps {
		for _, s := range list {
			wm, err := s.watermark()
			if err != nil {
				return fmt.Errorf("page %d: %w", pageNr, err)
			}
			wms[pageNr] = append(wms[pageNr], wm)
		}
	}
	return api.AddWatermarksSliceMapFile(src, dst, wms, model.NewDefaultConfiguration())
}

func (s stamp) watermark() (*model.Watermark, error) {
	if s.redact {
		img, err := whiteBox(s.w, s.h)
		if err != nil {
			return nil, err
		}
		return api.ImageWatermarkForReader(bytes.NewReader(img), s.description(), true, false, types.POINTS)
	}
	return api.TextWatermark(s.text, s.description(), true, false, types.POINTS)
}

// description renders the pdfcpu stamp configuration string.
func (s stamp) description() string {
	placement := fmt.Sprintf("position:bl, offset:%.2f %.2f, rotation:0", s.x, s.y)
	if s.redact {
		return "scalefactor:1 abs, opacity:1, " + placement
	}
	// pdfcpu sizes text in whole points.
	points := max(1, int(math.Round(s.size)))
	return fmt.Sprintf("fontname:%s, points:%d, scalefactor:1 abs, fillcolor:#000000, opacity:1, %s",
		s.font, points, placement)
}

// whiteBox encodes an opaque white PNG covering w by h points.
func whiteBox(w, h float64) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, max(1, int(math.Ceil(w))), max(1, int(math.Ceil(h)))))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
