package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"slide-annotator/internal/app"
)

func addValidate(topLevel *cobra.Command) {
	var strict, watch bool
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Check that every feature of a GeoJSON document can be built.",
		Example: `
slide-annotator validate slide.geojson
slide-annotator validate --watch slide.geojson
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if err := validate(out, args[0], strict); err != nil && !watch {
				return err
			}
			if !watch {
				return nil
			}

			w := app.NewFileWatcher(args[0], time.Second)
			w.OnChange(func(path string) {
				if err := validate(out, path, strict); err != nil {
					_, _ = warnColor.Fprintf(out, "error: %v\n", err)
				}
			})
			w.Start()
			defer w.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt)
			<-stop
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat skipped features as an error")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-validate whenever the file changes")
	topLevel.AddCommand(cmd)
}

func validate(out io.Writer, path string, strict bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	doc, warnings, err := loadDocument(cfg, path)
	if err != nil {
		return err
	}
	printWarnings(out, warnings)
	if strict && len(warnings) > 0 {
		return fmt.Errorf("%s: %d features skipped", path, len(warnings))
	}
	_, _ = okColor.Fprintf(out, "%s: %d collections, %d features\n", path, len(doc.Collections()), len(doc.Features()))
	return nil
}
