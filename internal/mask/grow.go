package mask

import (
	"fmt"
	"image"

	"slide-annotator/pkg/colorutil"
)

// FloodFill selects the 4-connected region around seed whose pixels are
// within threshold of the seed color on every channel.
func FloodFill(buf *Buffer, seed image.Point, threshold int) (*Mask, error) {
	ref, err := seedPixel(buf, seed)
	if err != nil {
		return nil, err
	}
	m := New(buf.Width, buf.Height, buf.Frame)
	c := buf.colorAt(seed.X, seed.Y)
	m.SeedColor = &c

	match := func(x, y int) bool {
		return m.Data[y*buf.Width+x] == 0 && colorutil.ChannelDistance(ref, buf.pixel(x, y)) <= threshold
	}

	// Scanline fill: each stack entry is a pixel known to match.
	stack := []image.Point{seed}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !match(p.X, p.Y) {
			continue
		}
		left, right := p.X, p.X
		for left > 0 && match(left-1, p.Y) {
			left--
		}
		for right < buf.Width-1 && match(right+1, p.Y) {
			right++
		}
		for x := left; x <= right; x++ {
			m.Set(x, p.Y)
		}
		for _, ny := range [2]int{p.Y - 1, p.Y + 1} {
			if ny < 0 || ny >= buf.Height {
				continue
			}
			inRun := false
			for x := left; x <= right; x++ {
				if match(x, ny) {
					if !inRun {
						stack = append(stack, image.Point{X: x, Y: ny})
						inRun = true
					}
				} else {
					inRun = false
				}
			}
		}
	}
	return m, nil
}

// GlobalThreshold selects every pixel in the buffer within threshold of the
// seed color, regardless of connectivity.
func GlobalThreshold(buf *Buffer, seed image.Point, threshold int) (*Mask, error) {
	ref, err := seedPixel(buf, seed)
	if err != nil {
		return nil, err
	}
	m := New(buf.Width, buf.Height, buf.Frame)
	c := buf.colorAt(seed.X, seed.Y)
	m.SeedColor = &c
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			if colorutil.ChannelDistance(ref, buf.pixel(x, y)) <= threshold {
				m.Set(x, y)
			}
		}
	}
	return m, nil
}

func seedPixel(buf *Buffer, seed image.Point) ([]byte, error) {
	if err := buf.validate(); err != nil {
		return nil, err
	}
	if !seed.In(image.Rect(0, 0, buf.Width, buf.Height)) {
		return nil, fmt.Errorf("%w: %v not in %dx%d", ErrSeedOutOfBounds, seed, buf.Width, buf.Height)
	}
	return append([]byte(nil), buf.pixel(seed.X, seed.Y)...), nil
}
