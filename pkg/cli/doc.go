// Package cli implements the plugload command line tool.
//
// # Commands
//
//	plugload keys      list unit names in the configured bases
//	plugload resolve   show which base and member each name resolves to
//	plugload inspect   show a unit's manifest in every base
//	plugload serve     preload and serve /metrics and health probes
//
// Global flags (--root, --base, --exclude, --strict, --fail-on-broken,
// --log-level) override the config file (--config) and PLUGLOAD_*
// environment variables.
//
// # Embedding
//
// Binaries that register their own plugin kinds build the same command tree
// so manifests resolve to real values instead of placeholders:
//
//	kinds := plugins.NewKinds()
//	plugins.RegisterKind(kinds, "reducer", newReducer)
//	if err := cli.NewRootCommand(kinds).ExecuteContext(ctx); err != nil {
//		os.Exit(1)
//	}
package cli
