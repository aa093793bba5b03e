// Package page holds the value types exchanged with the PDF engine and the text-layer renderer.
package page

// Viewport is the size of a rendered page in pixels at a given scale.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

// TextRun is a positioned run of text in PDF user space
// (points, origin bottom-left, Y on the baseline).
type TextRun struct {
	Text     string
	X        float64
	Y        float64
	Width    float64
	FontSize float64
}

// State is the render state of one page.
type State int

// Page states in pipeline order.
const (
	Unrendered State = iota
	RasterDrawn
	TextLayerReady
	AnnotationsApplied
)

func (s State) String() string {
	switch s {
	case Unrendered:
		return "unrendered"
	case RasterDrawn:
		return "raster_drawn"
	case TextLayerReady:
		return "text_layer_ready"
	case AnnotationsApplied:
		return "annotations_applied"
	default:
		return "unknown"
	}
}

// CanTransition reports whether the pipeline may move from s to next.
// Repainting annotations re-enters AnnotationsApplied.
func (s State) CanTransition(next State) bool {
	switch next {
	case RasterDrawn:
		return s == Unrendered
	case TextLayerReady:
		return s == RasterDrawn
	case AnnotationsApplied:
		return s == TextLayerReady || s == AnnotationsApplied
	default:
		return false
	}
}
