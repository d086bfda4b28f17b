package commands

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"slide-annotator/internal/config"
)

func addConfig(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the effective configuration.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), configTable(cfg))
			return nil
		},
	}
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write the effective configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.Save(cfg, args[0]); err != nil {
				return err
			}
			_, _ = okColor.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(showCmd, initCmd)
	topLevel.AddCommand(cmd)
}

func configTable(cfg config.Config) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(boldColor.Sprint("Key"), boldColor.Sprint("Value"))
	w := cfg.Wand
	tbl.AddRow("wand.threshold", w.Threshold)
	tbl.AddRow("wand.min_threshold", w.MinThreshold)
	tbl.AddRow("wand.max_threshold", w.MaxThreshold)
	tbl.AddRow("wand.gain", w.Gain)
	tbl.AddRow("wand.contiguous", w.Contiguous)
	tbl.AddRow("wand.expand", w.Expand)
	tbl.AddRow("wand.replace", w.Replace)
	tbl.AddRow("wand.min_contour_area", w.MinContourArea)
	tbl.AddRow("wand.simplify", w.Simplify)
	tbl.AddRow("wand.coverage_floor", w.CoverageFloor)
	tbl.AddRow("combine.retries", cfg.Combine.Retries)
	tbl.AddRow("combine.epsilon", cfg.Combine.Epsilon)
	tbl.AddRow("transform.handle_offset", cfg.Transform.HandleOffset)
	tbl.AddRow("transform.handle_size", cfg.Transform.HandleSize)
	tbl.AddRow("style.fill_color", cfg.Style.FillColor)
	tbl.AddRow("style.stroke_color", cfg.Style.StrokeColor)
	tbl.AddRow("style.stroke_width", cfg.Style.StrokeWidth)
	tbl.AddRow("style.fill_opacity", cfg.Style.FillOpacity)
	tbl.AddRow("style.stroke_opacity", cfg.Style.StrokeOpacity)
	tbl.AddRow("style.rescale_stroke_width", cfg.Style.RescaleStrokeWidth)
	return tbl
}
