package loader

import (
	"github.com/platinummonkey/plugload/pkg/catalog"
	"github.com/platinummonkey/plugload/pkg/namespace"
	"github.com/platinummonkey/plugload/pkg/observability"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Loader.
type Option func(*options)

type options struct {
	base     string
	hasBase  bool
	bases    []string
	hasBases bool

	strict            bool
	exclude           []string
	failOnBrokenUnits bool

	resolver namespace.Resolver
	log      *logrus.Logger
	metrics  *observability.LoaderMetrics
	tracer   trace.Tracer
	name     string
}

// WithBase sets a single plugin package location. Mutually exclusive with
// WithBases.
func WithBase(id string) Option {
	return func(o *options) {
		o.base = id
		o.hasBase = true
	}
}

// WithBases sets plugin package locations searched in order; the first
// location providing a name wins. Mutually exclusive with WithBase.
func WithBases(ids ...string) Option {
	return func(o *options) {
		o.bases = append([]string(nil), ids...)
		o.hasBases = true
	}
}

// WithStrict makes New fail when a base does not exist instead of skipping it.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithExclude hides names from lookups and enumeration. Repeated calls add up.
func WithExclude(names ...string) Option {
	return func(o *options) {
		o.exclude = append(o.exclude, names...)
	}
}

// WithFailOnBrokenUnits makes lookups return a *UnitError for units that exist
// but fail to open. By default such units are logged and skipped.
func WithFailOnBrokenUnits() Option {
	return func(o *options) {
		o.failOnBrokenUnits = true
	}
}

// WithResolver sets where base identifiers are resolved. Defaults to
// catalog.Default.
func WithResolver(r namespace.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithLogger sets the logger.
func WithLogger(log *logrus.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *observability.LoaderMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer sets the tracer used for resolution spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithName sets the loader name used in logs and metric labels. Defaults to
// the comma-joined bases.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.resolver == nil {
		o.resolver = catalog.Default
	}
	if o.log == nil {
		o.log = logrus.New()
	}
	if o.tracer == nil {
		o.tracer = observability.Tracer(nil)
	}
	return o
}

// baseList applies the exactly-one-of rule for WithBase and WithBases.
func (o *options) baseList() ([]string, error) {
	switch {
	case o.hasBase && o.hasBases:
		return nil, &ConfigError{Reason: "WithBase and WithBases are mutually exclusive"}
	case o.hasBase:
		return []string{o.base}, nil
	case o.hasBases:
		return o.bases, nil
	default:
		return nil, &ConfigError{Reason: "either WithBase or WithBases is required"}
	}
}
