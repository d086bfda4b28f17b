package annotation

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"slide-annotator/internal/scene"
	"slide-annotator/pkg/geometry"
)

// rasterProps is the wire form of a raster's pixel payload.
type rasterProps struct {
	Data   string     `json:"data"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Matrix [6]float64 `json:"matrix"`
}

// Raster is a placed pixel image, such as a rendered selection mask.
type Raster struct {
	node *scene.Raster
}

// NewRaster creates a raster placed by m.
func NewRaster(img *image.RGBA, m geometry.AffineTransform) *Raster {
	r := &Raster{node: scene.NewRaster(img)}
	r.node.SetMatrix(m)
	return r
}

func buildRaster(g *Geometry) (Item, error) {
	var props rasterProps
	if err := g.decodeProp("raster", &props); err != nil {
		return nil, fmt.Errorf("%w: raster: %v", ErrInvalidGeometry, err)
	}
	m := geometry.Identity()
	if props.Matrix != ([6]float64{}) {
		m = geometry.FromValues(props.Matrix)
	}
	if props.Data == "" {
		return NewRaster(nil, m), nil
	}
	img, err := decodePNG(props.Data)
	if err != nil {
		return nil, err
	}
	return NewRaster(img, m), nil
}

func decodePNG(data string) (*image.RGBA, error) {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: raster data: %v", ErrInvalidGeometry, err)
	}
	src, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: raster png: %v", ErrInvalidGeometry, err)
	}
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba, nil
	}
	bounds := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)
	return rgba, nil
}

func (r *Raster) Type() string     { return "GeometryCollection" }
func (r *Raster) Subtype() string  { return "Raster" }
func (r *Raster) Node() scene.Node { return r.node }
func (r *Raster) SetStyle(s Style) { applyStyle(r.node, s) }

// Image returns the pixels.
func (r *Raster) Image() *image.RGBA { return r.node.Image }

func (r *Raster) Geometry() *Geometry {
	w, h := r.node.Size()
	props := rasterProps{Width: w, Height: h, Matrix: r.node.Matrix().Values()}
	if r.node.Image != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, r.node.Image); err == nil {
			props.Data = base64.StdEncoding.EncodeToString(buf.Bytes())
		}
	}
	return newGeometry("GeometryCollection", "Raster", []any{}, map[string]any{"raster": props})
}

// Placeholder is the item of a feature not yet given geometry.
type Placeholder struct {
	group *scene.Group
}

func newPlaceholder() *Placeholder {
	return &Placeholder{group: scene.NewGroup()}
}

func (p *Placeholder) Type() string        { return "" }
func (p *Placeholder) Subtype() string     { return "" }
func (p *Placeholder) Node() scene.Node    { return p.group }
func (p *Placeholder) Geometry() *Geometry { return nil }
func (p *Placeholder) SetStyle(s Style)    { applyStyle(p.group, s) }
