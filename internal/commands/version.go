package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"slide-annotator/internal/version"
)

func addVersion(topLevel *cobra.Command) {
	shortened := false
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the slide-annotator version.",
		Example: `
slide-annotator version
slide-annotator version --short
`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if shortened {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Version)
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	cmd.Flags().BoolVarP(&shortened, "short", "s", false, "Print just the version number.")
	topLevel.AddCommand(cmd)
}
