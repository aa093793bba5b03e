package page

import "testing"

func TestState_CanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{Unrendered, RasterDrawn, true},
		{RasterDrawn, TextLayerReady, true},
		{TextLayerReady, AnnotationsApplied, true},
		{AnnotationsApplied, AnnotationsApplied, true},
		{Unrendered, TextLayerReady, false},
		{Unrendered, AnnotationsApplied, false},
		{RasterDrawn, AnnotationsApplied, false},
		{AnnotationsApplied, RasterDrawn, false},
		{TextLayerReady, Unrendered, false},
	}
	for _, tc := range tests {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestState_String(t *testing.T) {
	if AnnotationsApplied.String() != "annotations_applied" {
		t.Errorf("String() = %q", AnnotationsApplied.String())
	}
	if State(42).String() != "unknown" {
		t.Errorf("String() = %q", State(42).String())
	}
}
