package annotation

import (
	"fmt"

	"slide-annotator/internal/scene"
	"slide-annotator/pkg/colorutil"
)

// Style is the paint state of a feature. Rescale maps logical size keys
// (strokeWidth, radius, fontSize) to sizes that stay constant on screen.
type Style struct {
	FillColor     string
	StrokeColor   string
	StrokeWidth   float64
	FillOpacity   float64
	StrokeOpacity float64
	Rescale       map[string]float64
}

// DefaultStyle is the project-wide style used when nothing else is set.
func DefaultStyle() Style {
	return Style{
		FillColor:     "#0000ff",
		StrokeColor:   "#000000",
		StrokeWidth:   1,
		FillOpacity:   0.1,
		StrokeOpacity: 1,
		Rescale:       map[string]float64{"strokeWidth": 1},
	}
}

// Clone returns a deep copy.
func (s Style) Clone() Style {
	out := s
	if s.Rescale != nil {
		out.Rescale = make(map[string]float64, len(s.Rescale))
		for k, v := range s.Rescale {
			out.Rescale[k] = v
		}
	}
	return out
}

func (s Style) sceneStyle() scene.Style {
	return scene.Style{
		FillColor:     s.FillColor,
		StrokeColor:   s.StrokeColor,
		StrokeWidth:   s.StrokeWidth,
		FillOpacity:   s.FillOpacity,
		StrokeOpacity: s.StrokeOpacity,
	}
}

// applyStyle paints a node and sets its rescale descriptor.
func applyStyle(n scene.Node, s Style) {
	n.SetStyle(s.sceneStyle())
	n.SetRescale(s.Rescale)
}

// styleProps is the wire form of a style. Pointer fields distinguish absent
// keys from zero values so partial styles merge over a default.
type styleProps struct {
	FillColor     *string            `json:"fillColor,omitempty"`
	StrokeColor   *string            `json:"strokeColor,omitempty"`
	StrokeWidth   *float64           `json:"strokeWidth,omitempty"`
	FillOpacity   *float64           `json:"fillOpacity,omitempty"`
	StrokeOpacity *float64           `json:"strokeOpacity,omitempty"`
	Rescale       map[string]float64 `json:"rescale,omitempty"`
}

func propsFromStyle(s Style) styleProps {
	fill, stroke := s.FillColor, s.StrokeColor
	width, fo, so := s.StrokeWidth, s.FillOpacity, s.StrokeOpacity
	r := s.Clone().Rescale
	if r == nil {
		r = map[string]float64{}
	}
	return styleProps{
		FillColor:     &fill,
		StrokeColor:   &stroke,
		StrokeWidth:   &width,
		FillOpacity:   &fo,
		StrokeOpacity: &so,
		Rescale:       r,
	}
}

// merge overlays the present fields on base.
func (p styleProps) merge(base Style) (Style, error) {
	out := base.Clone()
	if p.FillColor != nil {
		c, err := colorutil.NormalizeHex(*p.FillColor)
		if err != nil {
			return base, fmt.Errorf("fillColor: %w", err)
		}
		out.FillColor = c
	}
	if p.StrokeColor != nil {
		c, err := colorutil.NormalizeHex(*p.StrokeColor)
		if err != nil {
			return base, fmt.Errorf("strokeColor: %w", err)
		}
		out.StrokeColor = c
	}
	if p.StrokeWidth != nil {
		out.StrokeWidth = *p.StrokeWidth
	}
	if p.FillOpacity != nil {
		out.FillOpacity = clamp01(*p.FillOpacity)
	}
	if p.StrokeOpacity != nil {
		out.StrokeOpacity = clamp01(*p.StrokeOpacity)
	}
	if p.Rescale != nil {
		out.Rescale = make(map[string]float64, len(p.Rescale))
		for k, v := range p.Rescale {
			out.Rescale[k] = v
		}
	}
	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
