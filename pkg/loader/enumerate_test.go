package loader

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/platinummonkey/plugload/pkg/catalog"
	"github.com/platinummonkey/plugload/pkg/namespace"
	"github.com/platinummonkey/plugload/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLoader_Keys(t *testing.T) {
	l := newTestLoader[Type[Named]](t, WithExclude("d"))

	assert.Equal(t, []string{"a", "b", "c"}, l.Keys())
}

func TestLoader_KeysLoadNothing(t *testing.T) {
	var calls atomic.Int32
	c := catalog.New()
	p := c.Package("lazy")
	countingUnit(p, "a", &calls)
	countingUnit(p, "b", &calls)

	l, err := New[*Service](WithBase("lazy"), WithResolver(c), WithLogger(observability.Discard()))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, l.Keys())
	assert.Equal(t, int32(0), calls.Load())
}

func TestLoader_KeysListingFailure(t *testing.T) {
	failing := newFakeNamespace("failing")
	failing.listErr = errBoom
	ok := newFakeNamespace("ok").with("x", namespace.Member{Name: "Instance", Value: &Service{name: "x"}})

	l, err := New[*Service](
		WithBases("failing", "ok"),
		WithResolver(resolverOf(failing, ok)),
		WithLogger(observability.Discard()),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"x"}, l.Keys())
}

func TestLoader_Values(t *testing.T) {
	l := newTestLoader[Type[Named]](t, WithExclude("d"))

	var names []string
	for kind := range l.Values() {
		names = append(names, kind.New().GetName())
	}

	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestLoader_Items(t *testing.T) {
	l := newTestLoader[Type[Named]](t, WithExclude("d"))

	var got [][2]string
	for name, kind := range l.Items() {
		got = append(got, [2]string{name, kind.New().GetName()})
	}

	assert.Equal(t, [][2]string{{"a", "a"}, {"b", "b"}, {"c", "c"}}, got)
}

func TestLoader_ItemsSkipMisses(t *testing.T) {
	ns := newFakeNamespace("fake").
		with("a", namespace.Member{Name: "Instance", Value: &Service{name: "a"}}).
		with("empty", namespace.Member{Name: "Config", Value: 42}).
		with("z", namespace.Member{Name: "Instance", Value: &Service{name: "z"}})
	ns.broken["broken"] = errBoom

	l, err := New[*Service](
		WithBase("fake"),
		WithResolver(resolverOf(ns)),
		WithLogger(observability.Discard()),
		WithFailOnBrokenUnits(),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "broken", "empty", "z"}, l.Keys())

	var names []string
	for name := range l.Items() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"a", "z"}, names)
}

func TestLoader_ValuesStopEarly(t *testing.T) {
	var calls atomic.Int32
	c := catalog.New()
	p := c.Package("early")
	for _, name := range []string{"a", "b", "c"} {
		countingUnit(p, name, &calls)
	}

	l, err := New[*Service](WithBase("early"), WithResolver(c), WithLogger(observability.Discard()))
	require.NoError(t, err)

	for svc := range l.Values() {
		assert.Equal(t, "a", svc.GetName())
		break
	}

	assert.Equal(t, int32(1), calls.Load(), "later units stay unloaded")
}

func TestLoader_ValuesRestartable(t *testing.T) {
	l := newTestLoader[*Service](t)
	values := l.Values()

	first := slices.Collect(values)
	second := slices.Collect(values)

	require.Len(t, first, 4)
	assert.Equal(t, first, second)
}

func TestLoader_Preload(t *testing.T) {
	t.Run("loads everything", func(t *testing.T) {
		l := newTestLoader[Named](t, WithExclude("a"))

		n, err := l.Preload(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("stops on cancel", func(t *testing.T) {
		l := newTestLoader[Named](t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		n, err := l.Preload(ctx)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, n)
	})

	t.Run("stops on broken unit", func(t *testing.T) {
		ns := newFakeNamespace("fake").
			with("a", namespace.Member{Name: "Instance", Value: &Service{name: "a"}})
		ns.broken["b"] = errBoom

		l, err := New[*Service](
			WithBase("fake"),
			WithResolver(resolverOf(ns)),
			WithLogger(observability.Discard()),
			WithFailOnBrokenUnits(),
		)
		require.NoError(t, err)

		n, err := l.Preload(context.Background())

		assert.ErrorIs(t, err, ErrBrokenUnit)
		assert.Equal(t, 1, n)
	})
}

// Keys is the sorted, duplicate-free union of every location's units minus
// the excluded names, for any layout of locations.
func TestLoader_KeysProperties(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		unitName := rapid.StringMatching(`[a-e][a-c0-9]{0,2}`)
		numSpaces := rapid.IntRange(1, 4).Draw(r, "numSpaces")

		spaces := make([]namespace.Namespace, numSpaces)
		bases := make([]string, numSpaces)
		want := make(map[string]struct{})
		for i := range spaces {
			ns := newFakeNamespace(fmt.Sprintf("space%d", i))
			for _, name := range rapid.SliceOf(unitName).Draw(r, "units") {
				ns.with(name, namespace.Member{Name: "Instance", Value: &Service{name: name}})
				want[name] = struct{}{}
			}
			spaces[i] = ns
			bases[i] = ns.ID()
		}
		exclude := rapid.SliceOf(unitName).Draw(r, "exclude")
		for _, name := range exclude {
			delete(want, name)
		}

		l, err := New[*Service](
			WithBases(bases...),
			WithResolver(resolverOf(spaces...)),
			WithExclude(exclude...),
			WithLogger(observability.Discard()),
		)
		require.NoError(r, err)

		keys := l.Keys()
		require.True(r, sort.StringsAreSorted(keys), "keys not sorted: %v", keys)
		require.Len(r, keys, len(want))
		for _, k := range keys {
			_, ok := want[k]
			require.True(r, ok, "unexpected key %q", k)
		}
		for _, name := range exclude {
			_, _, err := l.Lookup(name)
			require.ErrorIs(r, err, ErrExcludedName)
		}
	})
}
