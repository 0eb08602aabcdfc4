package cmd

import (
	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List five-star recipes ranked by protein to net carb ratio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			recipes, err := appInstance.FindRecipes(cmd.Context())
			if err != nil {
				return err
			}
			printer(cmd, opts).Table(recipes)
			return nil
		},
	}
}
