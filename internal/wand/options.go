package wand

// Options configures the wand tool.
type Options struct {
	Threshold    int
	MinThreshold int
	MaxThreshold int
	// Gain is threshold units per screen pixel of pointer travel along the
	// down-right diagonal.
	Gain float64

	Contiguous bool
	Expand     bool
	Replace    bool

	// MinContourArea is in square buffer pixels.
	MinContourArea float64
	// Simplify is the contour simplification tolerance in buffer pixels.
	Simplify float64
	// CoverageFloor is the fraction of a pixel the geometry must cover for
	// the pixel to be re-sampled as selected.
	CoverageFloor float64

	Retries int
	Epsilon float64
}

// DefaultOptions returns the stock wand configuration.
func DefaultOptions() Options {
	return Options{
		Threshold:      10,
		MinThreshold:   1,
		MaxThreshold:   255,
		Gain:           0.5,
		Contiguous:     true,
		Expand:         true,
		MinContourArea: 4,
		Simplify:       0.5,
		CoverageFloor:  0.02,
		Retries:        8,
		Epsilon:        0.0125,
	}
}

func (o Options) clamp(t int) int {
	lo, hi := o.MinThreshold, o.MaxThreshold
	if lo <= 0 {
		lo = 1
	}
	if hi < lo {
		hi = 255
	}
	return min(max(t, lo), hi)
}
