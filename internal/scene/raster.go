package scene

import (
	"image"

	"slide-annotator/pkg/geometry"
)

// Raster is a pixel image placed by its matrix. Pixels are never resampled,
// so the matrix always accumulates and Bake is a no-op.
type Raster struct {
	nodeBase
	Image *image.RGBA
}

// NewRaster creates a raster node with its top-left pixel at the origin.
func NewRaster(img *image.RGBA) *Raster {
	r := &Raster{nodeBase: newBase(KindRaster), Image: img}
	r.applyMatrix = false
	return r
}

// Size returns the pixel dimensions.
func (r *Raster) Size() (int, int) {
	if r.Image == nil {
		return 0, 0
	}
	b := r.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Remove detaches the raster from its parent.
func (r *Raster) Remove() {
	if r.parent != nil {
		r.parent.removeChild(r)
	}
}

// Transform composes m after the raster's matrix.
func (r *Raster) Transform(m geometry.AffineTransform) {
	r.matrix = m.Compose(r.matrix)
}

// Bake is a no-op for rasters.
func (r *Raster) Bake() {}

// SetApplyMatrix is ignored; rasters always compose.
func (r *Raster) SetApplyMatrix(bool) {}

// Region returns the raster's placed outline.
func (r *Raster) Region() geometry.Region {
	w, h := r.Size()
	return geometry.Region{geometry.NewRect(0, 0, float64(w), float64(h)).Ring().Transform(r.matrix)}
}

// Bounds returns the placed outline's bounding box.
func (r *Raster) Bounds() geometry.Rect {
	return r.Region().Bounds()
}
