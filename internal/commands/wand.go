package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slide-annotator/internal/annotation"
	"slide-annotator/internal/app"
	"slide-annotator/internal/tool"
	"slide-annotator/internal/viewer"
	"slide-annotator/pkg/geometry"
)

type wandOptions struct {
	image      string
	doc        string
	out        string
	seeds      []string
	feature    int
	collection string
	threshold  int
	global     bool
	reduce     bool
	replace    bool
}

func addWand(topLevel *cobra.Command) {
	o := &wandOptions{}
	cmd := &cobra.Command{
		Use:   "wand",
		Short: "Grow a polygon from seed points with the magic wand.",
		Example: `
slide-annotator wand --image slide.tif --doc slide.geojson --seed 120,340
slide-annotator wand --image slide.tif --doc slide.geojson --feature 2 --reduce --seed 130,350
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWand(cmd, o)
		},
	}
	cmd.Flags().StringVar(&o.image, "image", "", "slide image (TIFF, PNG or JPEG)")
	cmd.Flags().StringVar(&o.doc, "doc", "", "GeoJSON document; created if missing")
	cmd.Flags().StringVar(&o.out, "out", "", "output document (default: --doc)")
	cmd.Flags().StringArrayVar(&o.seeds, "seed", nil, "seed point x,y in image pixels; repeatable")
	cmd.Flags().IntVar(&o.feature, "feature", -1, "index of the feature to edit; -1 creates one")
	cmd.Flags().StringVar(&o.collection, "collection", "wand", "collection for a created feature")
	cmd.Flags().IntVar(&o.threshold, "threshold", 0, "color distance threshold (default from config)")
	cmd.Flags().BoolVar(&o.global, "global", false, "select matching pixels anywhere in view")
	cmd.Flags().BoolVar(&o.reduce, "reduce", false, "remove the grown region instead of adding it")
	cmd.Flags().BoolVar(&o.replace, "replace", false, "start from an empty selection instead of the feature")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("doc")
	topLevel.AddCommand(cmd)
}

func runWand(cmd *cobra.Command, o *wandOptions) error {
	if len(o.seeds) == 0 {
		return errors.New("at least one --seed is required")
	}
	seeds := make([]geometry.Point2D, len(o.seeds))
	for i, s := range o.seeds {
		p, err := parsePoint(s)
		if err != nil {
			return err
		}
		seeds[i] = p
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if o.threshold > 0 {
		cfg.Wand.Threshold = o.threshold
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	host, err := viewer.Load(o.image)
	if err != nil {
		return err
	}
	s := app.NewState(cfg, host)
	host.Open()
	out := cmd.OutOrStdout()
	if _, statErr := os.Stat(o.doc); statErr == nil {
		warnings, err := s.LoadDocument(o.doc)
		printWarnings(out, warnings)
		if err != nil {
			return err
		}
	}

	f, err := wandTarget(s.Doc, o)
	if err != nil {
		return err
	}
	s.Doc.DeselectAll()
	f.Select()
	s.Loop.RunUntilIdle(8)
	if err := s.Select(app.ToolWand); err != nil {
		return err
	}

	var mods tool.Modifiers
	if o.global == cfg.Wand.Contiguous {
		mods |= tool.ModShift
	}
	if o.reduce == cfg.Wand.Expand {
		mods |= tool.ModAlt
	}
	if o.replace != cfg.Wand.Replace {
		mods |= tool.ModCtrl
	}
	for _, p := range seeds {
		s.PointerDown(tool.PointerEvent{Point: p, Modifiers: mods})
		if err := s.Wand.Err(); err != nil {
			return fmt.Errorf("seed %v: %w", p, err)
		}
		s.PointerUp(tool.PointerEvent{Point: p, Modifiers: mods})
		if err := s.Wand.Err(); err != nil {
			return fmt.Errorf("seed %v: %w", p, err)
		}
	}

	stats := s.Wand.Stats()
	if stats.Fallbacks > 0 {
		_, _ = warnColor.Fprintf(out, "warning: %d boolean operations failed verification; those edits were dropped\n", stats.Fallbacks)
	}
	area := 0.0
	if ed, ok := f.Item().(annotation.RegionEditor); ok {
		area = ed.Region().Area()
	}
	_, _ = okColor.Fprintf(out, "%s %s: area %.1f px², %d retries\n", annotation.ModeTag(f.Item()), f.ID, area, stats.Retries)

	f.Deselect()
	dest := o.out
	if dest == "" {
		dest = o.doc
	}
	return s.SaveDocument(dest)
}

func wandTarget(doc *annotation.Document, o *wandOptions) (*annotation.Feature, error) {
	if o.feature >= 0 {
		return feature(doc, o.feature)
	}
	for _, fc := range doc.Collections() {
		if fc.Label() == o.collection {
			return fc.CreateFeature(), nil
		}
	}
	return doc.AddCollection(o.collection).CreateFeature(), nil
}

// parsePoint parses "x,y".
func parsePoint(s string) (geometry.Point2D, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geometry.Point2D{}, fmt.Errorf("invalid point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return geometry.Pt(x, y), nil
}
