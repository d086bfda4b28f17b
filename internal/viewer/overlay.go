package viewer

import (
	"image"
	"image/color"
	"image/draw"
)

// BlendMode specifies how an overlay combines with the image underneath.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "normal"
	case BlendMultiply:
		return "multiply"
	case BlendScreen:
		return "screen"
	default:
		return "unknown"
	}
}

// OverlayLayer is one image stacked over the base, offset in base pixels.
type OverlayLayer struct {
	Image   image.Image
	Mode    BlendMode
	Opacity float64
	Offset  image.Point
}

// Composite renders annotation previews (selection masks, traced outlines)
// over a snapshot for debugging output.
type Composite struct {
	Base   image.Image
	Layers []OverlayLayer
}

// Add stacks an overlay on top of the existing ones.
func (c *Composite) Add(img image.Image, mode BlendMode, opacity float64, offset image.Point) {
	c.Layers = append(c.Layers, OverlayLayer{Image: img, Mode: mode, Opacity: opacity, Offset: offset})
}

// Render produces the blended image at the base's size.
func (c *Composite) Render() *image.RGBA {
	b := c.Base.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), c.Base, b.Min, draw.Src)

	for _, l := range c.Layers {
		if l.Image == nil || l.Opacity <= 0 {
			continue
		}
		lb := l.Image.Bounds()
		for y := lb.Min.Y; y < lb.Max.Y; y++ {
			dy := y - lb.Min.Y + l.Offset.Y
			if dy < 0 || dy >= out.Rect.Dy() {
				continue
			}
			for x := lb.Min.X; x < lb.Max.X; x++ {
				dx := x - lb.Min.X + l.Offset.X
				if dx < 0 || dx >= out.Rect.Dx() {
					continue
				}
				out.Set(dx, dy, blend(out.At(dx, dy), l.Image.At(x, y), l.Mode, l.Opacity))
			}
		}
	}
	return out
}

func blend(dst, src color.Color, mode BlendMode, opacity float64) color.Color {
	sr, sg, sb, sa := src.RGBA()
	if sa == 0 {
		return dst
	}
	dr, dg, db, da := dst.RGBA()

	// Un-premultiply the source so blend math works on straight color.
	sf := [3]float64{float64(sr) / float64(sa), float64(sg) / float64(sa), float64(sb) / float64(sa)}
	df := [4]float64{float64(dr) / 65535.0, float64(dg) / 65535.0, float64(db) / 65535.0, float64(da) / 65535.0}

	var rf [3]float64
	for i := 0; i < 3; i++ {
		switch mode {
		case BlendMultiply:
			rf[i] = sf[i] * df[i]
		case BlendScreen:
			rf[i] = 1 - (1-sf[i])*(1-df[i])
		default:
			rf[i] = sf[i]
		}
	}

	alpha := float64(sa) / 65535.0 * opacity
	return color.RGBA{
		R: to8(rf[0]*alpha + df[0]*(1-alpha)),
		G: to8(rf[1]*alpha + df[1]*(1-alpha)),
		B: to8(rf[2]*alpha + df[2]*(1-alpha)),
		A: to8(alpha + df[3]*(1-alpha)),
	}
}

func to8(v float64) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}
