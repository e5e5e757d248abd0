package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/platinummonkey/plugload/pkg/namespace"
	"github.com/platinummonkey/plugload/pkg/plugins"
	"github.com/spf13/cobra"
)

// manifestSource is implemented by namespaces backed by manifests.
type manifestSource interface {
	Manifest(name string) (*plugins.Manifest, error)
}

func newInspectCommand(opts *globalOptions, kinds *plugins.Kinds) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect NAME",
		Short: "Show a unit's manifest in every base",
		Long: `Print the members of unit NAME as declared in each configured base, in
search order. The member a loader would pick is marked with '*'; members
imported from another scope are never picked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts, kinds)
			if err != nil {
				return err
			}
			l, err := e.newLoader()
			if err != nil {
				return err
			}

			name := args[0]
			out := cmd.OutOrStdout()

			_, found, lookupErr := l.Lookup(name)
			origin, _ := l.Origin(name)
			switch {
			case lookupErr != nil:
				fmt.Fprintf(out, "%s: %v\n", name, lookupErr)
			case !found:
				fmt.Fprintf(out, "%s: no plugin\n", name)
			}

			for _, base := range e.cfg.Bases {
				ns, err := e.resolver.Resolve(base)
				if errors.Is(err, namespace.ErrNotFound) {
					fmt.Fprintf(out, "%s: not found\n", base)
					continue
				}
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "%s (%s)\n", base, ns.Path())
				winner := ""
				if found && origin.Location == base {
					winner = origin.Member
				}
				if err := printUnit(out, ns, name, winner); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func printUnit(out io.Writer, ns namespace.Namespace, name, winner string) error {
	src, ok := ns.(manifestSource)
	if !ok {
		fmt.Fprintln(out, "  no manifests")
		return nil
	}

	m, err := src.Manifest(name)
	if errors.Is(err, namespace.ErrNotFound) {
		fmt.Fprintln(out, "  no unit")
		return nil
	}
	if err != nil {
		fmt.Fprintf(out, "  broken: %v\n", err)
		return nil
	}

	scope := namespace.Qualify(ns.ID(), name)
	if m.Version != "" {
		fmt.Fprintf(out, "  version %s\n", m.Version)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, spec := range m.Members {
		mark := " "
		if spec.Name == winner {
			mark = "*"
		}
		origin := "declared"
		if spec.From != "" && spec.From != scope {
			origin = "imported from " + spec.From
		}
		fmt.Fprintf(w, "  %s %s\t%s\t%s\n", mark, spec.Name, source(spec), origin)
	}
	return w.Flush()
}

func source(spec plugins.MemberSpec) string {
	switch {
	case spec.Kind != "":
		return "kind " + spec.Kind
	case spec.Type != "":
		return "type " + spec.Type
	case spec.Object != "":
		return "object " + spec.Object
	}
	return "-"
}
