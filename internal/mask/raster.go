package mask

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"

	"slide-annotator/pkg/geometry"
)

// Rasterize samples a region given in item-local coordinates into a
// width x height mask through frame f. A pixel is selected when the region
// covers more than floor of its area.
func Rasterize(g geometry.Region, width, height int, f Frame, floor float64) *Mask {
	m := New(width, height, f)
	if width <= 0 || height <= 0 {
		return m
	}
	// Opposite windings cancel in the rasterizer's accumulation, which gives
	// even-odd results once holes run against their container.
	norm := g.Normalized()
	if len(norm) == 0 {
		return m
	}

	z := vector.NewRasterizer(width, height)
	z.DrawOp = draw.Src
	for _, ring := range norm {
		for i, p := range ring {
			x, y := f.ToPixel(p)
			if i == 0 {
				z.MoveTo(float32(x), float32(y))
			} else {
				z.LineTo(float32(x), float32(y))
			}
		}
		z.ClosePath()
	}

	cov := image.NewAlpha(image.Rect(0, 0, width, height))
	z.Draw(cov, cov.Bounds(), image.Opaque, image.Point{})

	limit := uint8(floor * 255)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if cov.Pix[y*cov.Stride+x] > limit {
				m.Set(x, y)
			}
		}
	}
	return m
}
