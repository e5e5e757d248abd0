package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/platinummonkey/plugload/pkg/namespace"
	"github.com/platinummonkey/plugload/pkg/observability"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Loader discovers and lazily loads plugins of contract T from one or more
// plugin package locations. Plugins never register themselves: a plugin named
// "sum" is whatever the unit "sum" of the first location providing it
// declares that satisfies T.
//
// A Loader is safe for concurrent use. Once found, a plugin is cached and
// every later lookup returns the same handle.
type Loader[T any] struct {
	name              string
	bases             []string
	spaces            []namespace.Namespace
	exclude           map[string]struct{}
	failOnBrokenUnits bool

	log     *logrus.Logger
	metrics *observability.LoaderMetrics
	tracer  trace.Tracer

	// mu guards items, origins and validate, and serializes resolution.
	mu       sync.Mutex
	items    map[string]T
	origins  map[string]Origin
	validate func(any) (T, bool)
}

// Origin records where a cached plugin came from.
type Origin struct {
	// Location is the base identifier that provided the plugin.
	Location string
	// Scope is the qualified unit name.
	Scope string
	// Member is the name of the chosen unit member.
	Member string
}

// New creates a loader. Exactly one of WithBase or WithBases is required.
// Base locations are resolved once, here; the returned error matches
// ErrConfiguration.
func New[T any](opts ...Option) (*Loader[T], error) {
	o := newOptions(opts)

	bases, err := o.baseList()
	if err != nil {
		return nil, err
	}

	spaces, err := resolveBases(o.resolver, bases, o.strict, o.log)
	if err != nil {
		return nil, err
	}

	exclude := make(map[string]struct{}, len(o.exclude))
	for _, name := range o.exclude {
		exclude[name] = struct{}{}
	}

	name := o.name
	if name == "" {
		name = strings.Join(bases, ",")
	}

	l := &Loader[T]{
		name:              name,
		bases:             bases,
		spaces:            spaces,
		exclude:           exclude,
		failOnBrokenUnits: o.failOnBrokenUnits,
		log:               o.log,
		metrics:           o.metrics,
		tracer:            o.tracer,
		items:             make(map[string]T),
		origins:           make(map[string]Origin),
	}

	l.log.Debugf("Plugin loader %s created with %d location(s)", name, len(spaces))
	return l, nil
}

// Lookup returns the plugin registered under name. The boolean is false when
// no location provides it. Looking up an excluded name is an error.
func (l *Loader[T]) Lookup(name string) (T, bool, error) {
	var zero T

	if l.isExcluded(name) {
		l.metrics.ObserveLookup(l.name, observability.ResultExcluded)
		return zero, false, &ExcludedNameError{Name: name}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if item, ok := l.items[name]; ok {
		l.metrics.ObserveLookup(l.name, observability.ResultHit)
		return item, true, nil
	}

	start := time.Now()
	item, origin, found, err := l.find(name)
	l.metrics.ObserveLoad(l.name, time.Since(start))

	switch {
	case err != nil:
		l.metrics.ObserveLookup(l.name, observability.ResultError)
		return zero, false, err
	case !found:
		l.metrics.ObserveLookup(l.name, observability.ResultMiss)
		return zero, false, nil
	}

	l.items[name] = item
	l.origins[name] = origin
	l.metrics.ObserveLookup(l.name, observability.ResultLoaded)
	return item, true, nil
}

// GetOrDefault returns the plugin registered under name, or def when no
// location provides it.
func (l *Loader[T]) GetOrDefault(name string, def T) (T, error) {
	item, found, err := l.Lookup(name)
	if err != nil {
		return item, err
	}
	if !found {
		return def, nil
	}
	return item, nil
}

// Get returns the plugin registered under name, or a *NotFoundError.
func (l *Loader[T]) Get(name string) (T, error) {
	item, found, err := l.Lookup(name)
	if err != nil {
		return item, err
	}
	if !found {
		return item, &NotFoundError{Name: name, Bases: l.bases}
	}
	return item, nil
}

// MustGet is like Get but panics on error. It suits package-level loaders
// whose plugins are known to exist.
func (l *Loader[T]) MustGet(name string) T {
	item, err := l.Get(name)
	if err != nil {
		panic(err)
	}
	return item
}

// Name returns the loader name used in logs and metrics.
func (l *Loader[T]) Name() string {
	return l.name
}

// Bases returns the configured base identifiers, including ones that did not
// resolve.
func (l *Loader[T]) Bases() []string {
	return append([]string(nil), l.bases...)
}

// Paths returns the physical paths of the resolved locations, in search
// order.
func (l *Loader[T]) Paths() []string {
	paths := make([]string, len(l.spaces))
	for i, ns := range l.spaces {
		paths[i] = ns.Path()
	}
	return paths
}

// Mode reports how members are checked against T.
func (l *Loader[T]) Mode() Mode {
	return contractMode[T]()
}

func (l *Loader[T]) isExcluded(name string) bool {
	_, excluded := l.exclude[name]
	return excluded
}

// Origin reports where the plugin cached under name was found. It does not
// trigger a lookup.
func (l *Loader[T]) Origin(name string) (Origin, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	origin, ok := l.origins[name]
	return origin, ok
}

// find scans the locations in order. Callers hold l.mu.
func (l *Loader[T]) find(name string) (T, Origin, bool, error) {
	var zero T

	ctx, span := l.tracer.Start(context.Background(), "loader.resolve",
		trace.WithAttributes(
			observability.AttrLoader.String(l.name),
			observability.AttrPlugin.String(name),
		),
	)
	defer span.End()

	if !namespace.IsUnitName(name) {
		span.SetAttributes(observability.AttrFound.Bool(false))
		return zero, Origin{}, false, nil
	}

	if l.validate == nil {
		l.validate = newValidator[T]()
	}

	log := observability.WithTraceContext(ctx, l.log.WithFields(logrus.Fields{
		"loader": l.name,
		"plugin": name,
	}))

	for _, ns := range l.spaces {
		unit, err := ns.Open(name)
		if errors.Is(err, namespace.ErrNotFound) {
			continue
		}
		if err != nil {
			l.metrics.UnitSkipped(l.name, observability.ReasonBroken)
			if l.failOnBrokenUnits {
				span.RecordError(err)
				span.SetStatus(codes.Error, "broken unit")
				return zero, Origin{}, false, &UnitError{Location: ns.ID(), Name: name, Err: err}
			}
			log.WithError(err).Warnf("Skipping broken plugin unit in %s", ns.ID())
			continue
		}

		if item, member, ok := l.pick(unit); ok {
			span.SetAttributes(
				observability.AttrFound.Bool(true),
				observability.AttrLocation.String(ns.ID()),
			)
			log.Debugf("Resolved plugin from %s (member %s)", unit.Scope, member)
			return item, Origin{Location: ns.ID(), Scope: unit.Scope, Member: member}, true, nil
		}

		l.metrics.UnitSkipped(l.name, observability.ReasonInvalid)
		log.Debugf("Unit %s has no valid plugin member", unit.Scope)
	}

	span.SetAttributes(observability.AttrFound.Bool(false))
	return zero, Origin{}, false, nil
}

// pick returns the first member of unit, in name order, that the unit
// declares itself and that satisfies T.
func (l *Loader[T]) pick(unit *namespace.Unit) (T, string, bool) {
	for _, m := range unit.Sorted() {
		if !unit.DeclaredHere(m) {
			continue
		}
		if item, ok := l.validate(m.Value); ok {
			return item, m.Name, true
		}
	}
	var zero T
	return zero, "", false
}

func (l *Loader[T]) String() string {
	return fmt.Sprintf("Loader[%s](%s)", l.Mode(), strings.Join(l.bases, ", "))
}
