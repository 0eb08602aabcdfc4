package cmd

import (
	"github.com/spf13/cobra"
)

func newBestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "best",
		Short: "Print the best five-star recipe",
		Long: `Reads the saved recipes, crawling the site when none can be read, and
prints the five-star recipe with the highest protein to net carb ratio.
This is also what running recipes without a subcommand does.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBest(cmd, opts)
		},
	}
}

func runBest(cmd *cobra.Command, opts *rootOptions) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	best, err := appInstance.FindBest(cmd.Context())
	if err != nil {
		return err
	}
	return printer(cmd, opts).Recipe(best)
}
