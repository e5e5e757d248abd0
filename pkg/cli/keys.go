package cli

import (
	"fmt"

	"github.com/platinummonkey/plugload/pkg/plugins"
	"github.com/spf13/cobra"
)

func newKeysCommand(opts *globalOptions, kinds *plugins.Kinds) *cobra.Command {
	var resolvable bool

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List plugin names",
		Long: `List the names of every unit found in the configured bases, sorted.

Listing does not load anything. Use --resolvable to load each unit and keep
only the names that yield a plugin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts, kinds)
			if err != nil {
				return err
			}
			l, err := e.newLoader()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !resolvable {
				for _, name := range l.Keys() {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			for name := range l.Items() {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&resolvable, "resolvable", false, "only list names that resolve to a plugin")
	return cmd
}
