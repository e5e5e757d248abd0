package cli

import (
	"context"
	"fmt"

	"github.com/platinummonkey/plugload/pkg/config"
	"github.com/platinummonkey/plugload/pkg/loader"
	"github.com/platinummonkey/plugload/pkg/namespace"
	"github.com/platinummonkey/plugload/pkg/observability"
	"github.com/platinummonkey/plugload/pkg/plugins"
	"github.com/platinummonkey/plugload/pkg/plugins/objectstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is reported by --version and the health endpoints.
var Version = "dev"

type globalOptions struct {
	configFile   string
	roots        []string
	bases        []string
	exclude      []string
	strict       bool
	failOnBroken bool
	placeholders bool
	logLevel     string
}

// env is everything a command needs, built from config file, environment
// and flags.
type env struct {
	cfg      *config.Config
	log      *logrus.Logger
	registry *prometheus.Registry
	metrics  *observability.LoaderMetrics
	resolver namespace.Chain
	store    *objectstore.Resolver
}

// NewRootCommand creates the plugload command tree. Manifests are built with
// kinds; members of kinds it lacks show up as placeholders unless
// --placeholders=false.
func NewRootCommand(kinds *plugins.Kinds) *cobra.Command {
	if kinds == nil {
		kinds = plugins.NewKinds()
	}
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "plugload",
		Short: "Inspect lazily loaded plugin packages",
		Long: `plugload lists and resolves plugins the way a loader sees them.

Plugin packages are directories (or S3 prefixes) of YAML manifests, one per
unit. Settings come from --config, then PLUGLOAD_* environment variables,
then flags.

Examples:
  plugload keys --root ./plugins --base myapp.plugins
  plugload resolve sum --base myapp.plugins --base contrib.plugins
  plugload inspect sum -c plugload.yaml
  plugload serve --addr :9090`,
		Version:      Version,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (YAML)")
	flags.StringArrayVarP(&opts.roots, "root", "r", nil, "plugin root directory (repeatable)")
	flags.StringArrayVarP(&opts.bases, "base", "b", nil, "plugin package to search, in order (repeatable)")
	flags.StringSliceVarP(&opts.exclude, "exclude", "x", nil, "plugin names to exclude")
	flags.BoolVar(&opts.strict, "strict", false, "fail when a base cannot be resolved")
	flags.BoolVar(&opts.failOnBroken, "fail-on-broken", false, "fail lookups on broken units instead of skipping them")
	flags.BoolVar(&opts.placeholders, "placeholders", true, "build members of unknown kinds as placeholders")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newKeysCommand(opts, kinds),
		newResolveCommand(opts, kinds),
		newInspectCommand(opts, kinds),
		newServeCommand(opts, kinds),
	)
	return root
}

func setup(cmd *cobra.Command, opts *globalOptions, kinds *plugins.Kinds) (*env, error) {
	cfg, err := config.Read(opts.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Roots = opts.roots
	}
	if flags.Changed("base") {
		cfg.Bases = opts.bases
	}
	if flags.Changed("exclude") {
		cfg.Exclude = opts.exclude
	}
	if flags.Changed("strict") {
		cfg.Strict = opts.strict
	}
	if flags.Changed("fail-on-broken") {
		cfg.FailOnBrokenUnits = opts.failOnBroken
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := observability.NewLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:      cfg,
		log:      log,
		registry: prometheus.NewRegistry(),
	}
	e.metrics = observability.NewLoaderMetrics(e.registry)

	cache := plugins.NewManifestCache(cfg.CacheSize, cfg.CacheTTL)
	dirOpts := []plugins.Option{plugins.WithLogger(log), plugins.WithCache(cache)}
	if opts.placeholders {
		dirOpts = append(dirOpts, plugins.WithPlaceholders())
	}
	if len(cfg.Roots) > 0 {
		e.resolver = append(e.resolver, plugins.NewDirectoryResolver(cfg.Roots, kinds, dirOpts...))
	}

	if s := cfg.ObjectStore; s != nil {
		client, err := objectstore.NewClient(contextOf(cmd), *s)
		if err != nil {
			return nil, err
		}
		storeOpts := []objectstore.Option{objectstore.WithLogger(log), objectstore.WithCache(cache)}
		if opts.placeholders {
			storeOpts = append(storeOpts, objectstore.WithPlaceholders())
		}
		e.store = objectstore.NewResolver(client, s.Bucket, s.Prefix, kinds, storeOpts...)
		e.resolver = append(e.resolver, e.store)
	}

	return e, nil
}

func (e *env) newLoader() (*loader.Loader[any], error) {
	opts := append(e.cfg.Options(),
		loader.WithResolver(e.resolver),
		loader.WithLogger(e.log),
		loader.WithMetrics(e.metrics),
		loader.WithName("plugload"),
	)
	return loader.New[any](opts...)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
