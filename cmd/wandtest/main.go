// Command wandtest grows a wand selection from a seed on an image and
// prints the traced contours.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"

	"slide-annotator/internal/mask"
	"slide-annotator/internal/viewer"
	"slide-annotator/internal/wand"

	_ "golang.org/x/image/tiff"
)

func main() {
	imagePath := flag.String("image", "", "Path to image (TIFF, PNG, or JPEG)")
	x := flag.Int("x", -1, "Seed X in image pixels")
	y := flag.Int("y", -1, "Seed Y in image pixels")
	threshold := flag.Int("threshold", wand.DefaultOptions().Threshold, "Color distance threshold")
	global := flag.Bool("global", false, "Select all matching pixels instead of the connected region")
	overlay := flag.String("overlay", "", "Write the selection over the image to this PNG")
	flag.Parse()

	if *imagePath == "" || *x < 0 || *y < 0 {
		fmt.Println("Usage: wandtest -image <path> -x <px> -y <px> [-threshold 10] [-global] [-overlay out.png]")
		os.Exit(1)
	}

	f, err := os.Open(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open image: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode image: %v\n", err)
		os.Exit(1)
	}

	bounds := img.Bounds()
	fmt.Printf("Loaded %s image: %dx%d pixels\n", format, bounds.Dx(), bounds.Dy())

	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	buf := mask.BufferFromImage(rgba, mask.Frame{Scale: 1})

	grow := mask.FloodFill
	if *global {
		grow = mask.GlobalThreshold
	}
	seed := image.Pt(*x, *y)
	fmt.Printf("Seed: (%d, %d)  threshold %d  global %v\n", seed.X, seed.Y, *threshold, *global)

	m, err := grow(buf, seed, *threshold)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Region growing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Selected %d pixels\n", m.Count())

	opts := wand.DefaultOptions()
	contours, err := mask.Trace(m, mask.TraceOptions{MinArea: opts.MinContourArea, Simplify: opts.Simplify})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Tracing failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nTraced %d contours:\n", len(contours))
	fmt.Printf("%-6s %-6s %8s %12s\n", "#", "Kind", "Points", "Area")
	for i, c := range contours {
		kind := "outer"
		if c.Hole {
			kind = "hole"
		}
		fmt.Printf("%-6d %-6s %8d %12.1f\n", i, kind, len(c.Ring), c.Ring.Area())
	}
	fmt.Printf("\nTotal area: %.1f px²\n", mask.ToRegion(contours).Area())

	if *overlay == "" {
		return
	}
	comp := viewer.Composite{Base: rgba}
	comp.Add(m.Image(color.RGBA{R: 255, A: 255}), viewer.BlendScreen, 0.5, image.Point{})
	out, err := os.Create(*overlay)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create overlay: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := png.Encode(out, comp.Render()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write overlay: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Overlay written to %s\n", *overlay)
}
