package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/platinummonkey/plugload/pkg/namespace"
	"github.com/platinummonkey/plugload/pkg/plugins"
	"github.com/spf13/cobra"
)

func newResolveCommand(opts *globalOptions, kinds *plugins.Kinds) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve NAME...",
		Short: "Show where plugins resolve from",
		Long: `Resolve each NAME and print the base it was found in, the unit member
chosen as the plugin and the member's Go type.

Exits non-zero when any name does not resolve.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts, kinds)
			if err != nil {
				return err
			}
			l, err := e.newLoader()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBASE\tMEMBER\tTYPE")
			for _, name := range args {
				v, err := l.Get(name)
				if err != nil {
					w.Flush()
					return err
				}
				origin, _ := l.Origin(name)
				fmt.Fprintf(w, "%s\t%s\t%s\t%T\n", name, origin.Location, namespace.Qualify(origin.Scope, origin.Member), v)
			}
			return w.Flush()
		},
	}
}
