package mask

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"slide-annotator/pkg/geometry"
)

// TraceOptions controls contour extraction.
type TraceOptions struct {
	// MinArea drops contours enclosing less than this many square pixels.
	MinArea float64
	// Simplify is the Douglas-Peucker tolerance in pixels; 0 disables it.
	Simplify float64
}

// Contour is one traced boundary in item-local coordinates.
type Contour struct {
	Ring geometry.Ring
	Hole bool
}

// padded copies the mask into a Mat with a one pixel empty border, so
// dilation can grow past the buffer edge.
func padded(m *Mask) (gocv.Mat, error) {
	w, h := m.Width+2, m.Height+2
	data := make([]byte, w*h)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Data[y*m.Width+x] != 0 {
				data[(y+1)*w+x+1] = 255
			}
		}
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, data)
}

// lattice stamps every selected pixel as a 3x3 block onto a grid of twice
// the resolution plus one, with a one cell empty border. Cell i of the grid
// sits at pixel-space position (i-1)/2, so a contour through cell centers
// runs along pixel corners: a 1 pixel wide run becomes a 1 pixel wide ring.
func lattice(m *Mask) (gocv.Mat, error) {
	w, h := 2*m.Width+3, 2*m.Height+3
	data := make([]byte, w*h)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Data[y*m.Width+x] == 0 {
				continue
			}
			for dy := 1; dy <= 3; dy++ {
				row := (2*y + dy) * w
				for dx := 1; dx <= 3; dx++ {
					data[row+2*x+dx] = 255
				}
			}
		}
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, data)
}

// Dilate grows the mask by radius pixels with a square structuring element.
func Dilate(m *Mask, radius int) (*Mask, error) {
	if radius <= 0 || m.IsEmpty() {
		return m.Clone(), nil
	}
	src, err := padded(m)
	if err != nil {
		return nil, fmt.Errorf("dilate: %w", err)
	}
	defer src.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{2*radius + 1, 2*radius + 1})
	defer kernel.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Dilate(src, &dst, kernel)

	data := dst.ToBytes()
	w := m.Width + 2
	out := New(m.Width, m.Height, m.Frame)
	out.SeedColor = m.SeedColor
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if data[(y+1)*w+x+1] != 0 {
				out.Set(x, y)
			}
		}
	}
	return out, nil
}

// Trace extracts the mask's boundaries as rings along the outer pixel
// corners, mapped into item-local coordinates through the mask's frame, so
// a ring encloses exactly the selected pixels. MinArea and Simplify are in
// buffer pixels. Holes are labeled by nesting depth.
func Trace(m *Mask, opts TraceOptions) ([]Contour, error) {
	if m.IsEmpty() {
		return nil, nil
	}
	mat, err := lattice(m)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	var rings geometry.Region
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		// Lattice areas are four times pixel areas.
		if contour.Size() < 3 || gocv.ContourArea(contour)/4 < opts.MinArea {
			continue
		}

		pts := contour.ToPoints()
		if opts.Simplify > 0 {
			approx := gocv.ApproxPolyDP(contour, 2*opts.Simplify, true)
			pts = approx.ToPoints()
			approx.Close()
		}
		if len(pts) < 3 {
			continue
		}

		ring := make(geometry.Ring, len(pts))
		for j, p := range pts {
			ring[j] = m.Frame.ToLocal(float64(p.X-1)/2, float64(p.Y-1)/2)
		}
		rings = append(rings, ring)
	}

	depths := rings.Depths()
	out := make([]Contour, len(rings))
	for i, r := range rings {
		out[i] = Contour{Ring: r, Hole: depths[i]%2 == 1}
	}
	return out, nil
}

// ToRegion collects traced contours into an even-odd region.
func ToRegion(contours []Contour) geometry.Region {
	g := make(geometry.Region, 0, len(contours))
	for _, c := range contours {
		g = append(g, c.Ring)
	}
	return g
}

// Vectorize traces the mask and returns the result as a region.
func Vectorize(m *Mask, opts TraceOptions) (geometry.Region, error) {
	cs, err := Trace(m, opts)
	if err != nil {
		return nil, err
	}
	return ToRegion(cs), nil
}
