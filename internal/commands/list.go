package commands

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"slide-annotator/internal/annotation"
)

func addList(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "list <document>",
		Short: "List the features of a GeoJSON document.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			doc, warnings, err := loadDocument(cfg, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printWarnings(out, warnings)
			_, _ = fmt.Fprintln(out, featureTable(doc))
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func featureTable(doc *annotation.Document) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(boldColor.Sprint("#"), boldColor.Sprint("Collection"), boldColor.Sprint("Kind"),
		boldColor.Sprint("Label"), boldColor.Sprint("Bounds"))
	i := 0
	for _, fc := range doc.Collections() {
		for _, f := range fc.Features() {
			b := f.Node().Bounds()
			kind := "placeholder"
			if !f.IsPlaceholder() {
				kind = annotation.ModeTag(f.Item())
			}
			tbl.AddRow(i, fc.Label(), kind, f.Label(),
				fmt.Sprintf("%.1f,%.1f %.1fx%.1f", b.X, b.Y, b.Width, b.Height))
			i++
		}
	}
	tbl.RightAlign(0)
	return tbl
}
