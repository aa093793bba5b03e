package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"

	domann "github.com/kailas-cloud/annotator/internal/domain/annotation"
)

// MaxPreviewWidth caps preview requests.
const MaxPreviewWidth = 4096

const (
	highlightAlpha = 0x59
	pendingAlpha   = 0x33
)

func encodePreview(src *previewSource, width int) ([]byte, error) {
	if src == nil || src.surface == nil {
		return nil, fmt.Errorf("preview: no raster")
	}
	bounds := src.surface.Bounds()

	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src.surface, bounds.Min, draw.Src)
	for _, s := range src.shapes {
		fill, err := highlightFill(s)
		if err != nil {
			continue
		}
		r := image.Rect(
			int(s.Rect.Left), int(s.Rect.Top),
			int(s.Rect.Right()+0.5), int(s.Rect.Bottom()+0.5),
		).Intersect(bounds)
		draw.Draw(canvas, r, image.NewUniform(fill), image.Point{}, draw.Over)
	}

	var out image.Image = canvas
	if width > MaxPreviewWidth {
		width = MaxPreviewWidth
	}
	if width > 0 && width != bounds.Dx() && bounds.Dx() > 0 {
		height := max(1, bounds.Dy()*width/bounds.Dx())
		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), canvas, bounds, draw.Src, nil)
		out = scaled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

func highlightFill(s DrawnShape) (color.NRGBA, error) {
	c, ok := domann.ResolveColor(s.Color)
	if !ok {
		return color.NRGBA{}, fmt.Errorf("unknown highlight color %q", s.Color)
	}
	r, g, b := c.RGB255()
	alpha := uint8(highlightAlpha)
	if s.Temp {
		alpha = pendingAlpha
	}
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}
