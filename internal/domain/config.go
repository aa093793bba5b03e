package domain

// KeyPrefix namespaces every key the service writes to the shared database.
const KeyPrefix = "annotator:"

// EngineConfig holds engine tuning that is not part of the persisted document.
type EngineConfig struct {
	Scale         float64
	PageGap       float64
	ContainerLeft float64
	HitTolerance  float64
	LabelOffset   float64
	ChooserGap    float64
	ChooserWidth  float64
	ChooserHeight float64
	DefaultColor  string
}

// DefaultEngineConfig returns the defaults of the reference viewer.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Scale:         1.5,
		PageGap:       10,
		ContainerLeft: 0,
		HitTolerance:  1,
		LabelOffset:   25,
		ChooserGap:    5,
		ChooserWidth:  220,
		ChooserHeight: 36,
		DefaultColor:  "#ffff00",
	}
}
