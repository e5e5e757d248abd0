package loader

import (
	"context"
	"iter"
	"sort"

	"github.com/platinummonkey/plugload/pkg/observability"
)

// Keys returns the sorted names of all units found in any location, minus
// excluded names. Listing loads nothing, so a key may still fail to resolve
// to a plugin.
func (l *Loader[T]) Keys() []string {
	seen := make(map[string]struct{})

	for _, ns := range l.spaces {
		units, err := ns.Units()
		if err != nil {
			l.metrics.UnitSkipped(l.name, observability.ReasonListing)
			l.log.WithError(err).Warnf("Failed to list plugin units in %s", ns.ID())
			continue
		}
		for _, name := range units {
			if l.isExcluded(name) {
				continue
			}
			seen[name] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for name := range seen {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

// Values yields the plugins for Keys in order, loading each as it goes.
// Names that do not resolve are skipped.
func (l *Loader[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range l.Items() {
			if !yield(item) {
				return
			}
		}
	}
}

// Items yields name and plugin pairs for Keys in order, loading each as it
// goes. Names that do not resolve are skipped.
func (l *Loader[T]) Items() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for _, name := range l.Keys() {
			item, found, err := l.Lookup(name)
			if err != nil {
				l.log.WithError(err).Debugf("Skipping plugin %s", name)
				continue
			}
			if !found {
				continue
			}
			if !yield(name, item) {
				return
			}
		}
	}
}

// Preload resolves every key up front and returns how many plugins were
// found. It stops at the first lookup error or when ctx is done.
func (l *Loader[T]) Preload(ctx context.Context) (int, error) {
	loaded := 0
	for _, name := range l.Keys() {
		if err := ctx.Err(); err != nil {
			return loaded, err
		}
		_, found, err := l.Lookup(name)
		if err != nil {
			return loaded, err
		}
		if found {
			loaded++
		}
	}

	l.log.Debugf("Preloaded %d plugin(s) for %s", loaded, l.name)
	return loaded, nil
}
