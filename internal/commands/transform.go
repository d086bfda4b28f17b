package commands

import (
	"errors"
	"image"
	"math"

	"github.com/spf13/cobra"

	"slide-annotator/internal/app"
	"slide-annotator/internal/viewer"
)

func addTransform(topLevel *cobra.Command) {
	var doc, out string
	var index int
	var rotate, scale float64
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Rotate and scale a feature about its center.",
		Example: `
slide-annotator transform --doc slide.geojson --feature 0 --rotate 90
slide-annotator transform --doc slide.geojson --feature 3 --scale 1.5 --out scaled.geojson
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rotate == 0 && scale == 1 {
				return errors.New("nothing to do: pass --rotate and/or --scale")
			}
			if scale <= 0 {
				return errors.New("--scale must be positive")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Geometry-only edits need no slide.
			host := viewer.NewStaticHost(image.NewRGBA(image.Rect(0, 0, 1, 1)), 1, 1)
			s := app.NewState(cfg, host)
			warnings, err := s.LoadDocument(doc)
			printWarnings(cmd.OutOrStdout(), warnings)
			if err != nil {
				return err
			}
			f, err := feature(s.Doc, index)
			if err != nil {
				return err
			}
			s.Doc.DeselectAll()
			f.Select()
			s.Loop.RunUntilIdle(8)
			if err := s.Select(app.ToolTransform); err != nil {
				return err
			}

			if rotate != 0 {
				if err := s.Transform.RotateBy(rotate * math.Pi / 180); err != nil {
					return err
				}
			}
			if scale != 1 {
				if err := s.Transform.ScaleBy(scale, scale); err != nil {
					return err
				}
			}
			f.Deselect()

			if out == "" {
				out = doc
			}
			return s.SaveDocument(out)
		},
	}
	cmd.Flags().StringVar(&doc, "doc", "", "GeoJSON document")
	cmd.Flags().StringVar(&out, "out", "", "output document (default: --doc)")
	cmd.Flags().IntVar(&index, "feature", 0, "index of the feature to transform")
	cmd.Flags().Float64Var(&rotate, "rotate", 0, "rotation in degrees, clockwise on screen")
	cmd.Flags().Float64Var(&scale, "scale", 1, "uniform scale factor")
	_ = cmd.MarkFlagRequired("doc")
	topLevel.AddCommand(cmd)
}
