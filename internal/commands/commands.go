// Package commands implements the slide-annotator command line.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"slide-annotator/internal/annotation"
	"slide-annotator/internal/config"
)

var configPath string

// New returns the root command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slide-annotator",
		Short: "Edit vector annotations of large slide images.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $ANNOTATOR_CONFIG or ~/.config/slide-annotator/config.yaml)")

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addValidate(topLevel)
	addList(topLevel)
	addWand(topLevel)
	addTransform(topLevel)
	addConfig(topLevel)
	addVersion(topLevel)
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

// loadDocument reads a GeoJSON document into a fresh document.
func loadDocument(cfg config.Config, path string) (*annotation.Document, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read document: %w", err)
	}
	reg := annotation.NewRegistry()
	annotation.RegisterDefaults(reg)
	doc := annotation.NewDocument(reg)
	doc.SetDefaultStyle(cfg.DefaultStyle())
	warnings, err := doc.LoadGeoJSON(data)
	if err != nil {
		return nil, warnings, err
	}
	return doc, warnings, nil
}

var (
	warnColor = color.New(color.FgYellow)
	okColor   = color.New(color.FgGreen)
	boldColor = color.New(color.Bold)
)

func printWarnings(w io.Writer, warnings []error) {
	for _, warn := range warnings {
		_, _ = warnColor.Fprintf(w, "warning: %v\n", warn)
	}
}

// feature returns the feature at a document-wide index.
func feature(doc *annotation.Document, index int) (*annotation.Feature, error) {
	features := doc.Features()
	if index < 0 || index >= len(features) {
		return nil, fmt.Errorf("feature %d out of range (document has %d)", index, len(features))
	}
	return features[index], nil
}
