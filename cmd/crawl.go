package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newCrawlCmd always crawls, replacing any saved recipes.
func newCrawlCmd(_ *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the recipe site and save the results",
		Long: `Crawls every category of the recipe site, scrapes each recipe page with
bounded concurrency and retries, and saves the successful recipes to the
configured store.`,
		Args: cobra.NoArgs,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	recipes, err := appInstance.Crawl(cmd.Context())
	if err != nil {
		return err
	}
	appInstance.Logger().Info("crawl command finished", zap.Int("recipes", len(recipes)))
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %d recipes\n", len(recipes))
	return err
}
