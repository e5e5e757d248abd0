package plugins

import (
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/platinummonkey/plugload/pkg/namespace"
	"github.com/platinummonkey/plugload/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, roots []string, opts ...Option) *DirectoryResolver {
	t.Helper()
	opts = append([]Option{WithLogger(observability.Discard())}, opts...)
	return NewDirectoryResolver(roots, newTestKinds(t, nil), opts...)
}

func TestNewDirectoryResolver_Defaults(t *testing.T) {
	r := NewDirectoryResolver([]string{"/a"}, nil)

	assert.NotNil(t, r.kinds)
	assert.NotNil(t, r.cache)
	assert.NotNil(t, r.log)
	assert.Equal(t, []string{"/a"}, r.Roots())
}

func TestDirectoryResolver_Resolve(t *testing.T) {
	primary, secondary := newTestTree(t)
	missing := filepath.Join(t.TempDir(), "missing")
	r := newTestResolver(t, []string{missing, primary, secondary})

	tests := []struct {
		name     string
		id       string
		wantPath string
		notFound bool
	}{
		{name: "first root wins", id: "myapp.plugins", wantPath: filepath.Join(primary, "myapp", "plugins")},
		{name: "later root", id: "contrib", wantPath: filepath.Join(secondary, "contrib")},
		{name: "single unit is not a package", id: "myapp.base", wantPath: ""},
		{name: "unit directory is a package", id: "myapp.plugins.loud", wantPath: filepath.Join(primary, "myapp", "plugins", "loud")},
		{name: "missing", id: "myapp.nothing", notFound: true},
		{name: "empty", id: "", notFound: true},
		{name: "invalid segment", id: "myapp.._x", notFound: true},
		{name: "dot dot segment", id: "myapp/../etc", notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, err := r.Resolve(tt.id)
			if tt.notFound {
				assert.ErrorIs(t, err, namespace.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, ns.ID())
			assert.Equal(t, tt.wantPath, ns.Path())
		})
	}
}

func TestDirectory_Units(t *testing.T) {
	primary, secondary := newTestTree(t)
	r := newTestResolver(t, []string{primary, secondary})

	ns, err := r.Resolve("myapp.plugins")
	require.NoError(t, err)

	units, err := ns.Units()
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "loud"}, units)

	mod, err := r.Resolve("myapp.base")
	require.NoError(t, err)
	units, err = mod.Units()
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestDirectory_UnitsMergesExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg", "a.yaml"), "members: []\n")
	writeFile(t, filepath.Join(root, "pkg", "a.yml"), "members: []\n")
	writeFile(t, filepath.Join(root, "pkg", "b.yml"), "members: []\n")
	writeFile(t, filepath.Join(root, "pkg", "1bad.yaml"), "members: []\n")
	writeFile(t, filepath.Join(root, "pkg", ".hidden.yaml"), "members: []\n")

	ns, err := newTestResolver(t, []string{root}).Resolve("pkg")
	require.NoError(t, err)

	units, err := ns.Units()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, units)
}

func TestDirectory_UnitsListingFailure(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0755))
	ns, err := newTestResolver(t, []string{root}).Resolve("pkg")
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(filepath.Join(root, "pkg")))

	_, err = ns.Units()
	assert.Error(t, err)
}

func TestDirectory_Open(t *testing.T) {
	primary, secondary := newTestTree(t)
	r := newTestResolver(t, []string{primary, secondary})
	ns, err := r.Resolve("myapp.plugins")
	require.NoError(t, err)

	t.Run("file unit", func(t *testing.T) {
		u, err := ns.Open("hello")
		require.NoError(t, err)

		assert.Equal(t, "myapp.plugins.hello", u.Scope)
		require.Len(t, u.Members, 2)
		assert.Equal(t, "Hello", u.Members[0].Name)
		assert.True(t, u.DeclaredHere(u.Members[0]))
		assert.Equal(t, "hello, world", u.Members[0].Value.(Greeter).Greet())
		assert.False(t, u.DeclaredHere(u.Members[1]))
		assert.Equal(t, "myapp.base", u.Members[1].Scope)
	})

	t.Run("directory unit", func(t *testing.T) {
		u, err := ns.Open("loud")
		require.NoError(t, err)

		require.Len(t, u.Members, 1)
		assert.Equal(t, reflect.TypeFor[loudGreeter](), u.Members[0].Value)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := ns.Open("absent")
		assert.ErrorIs(t, err, namespace.ErrNotFound)
	})

	t.Run("directory without manifest", func(t *testing.T) {
		_, err := ns.Open("empty")
		assert.ErrorIs(t, err, namespace.ErrNotFound)
	})

	t.Run("private", func(t *testing.T) {
		_, err := ns.Open("_private")
		assert.ErrorIs(t, err, namespace.ErrNotFound)
	})

	t.Run("same unit on reopen", func(t *testing.T) {
		u1, err := ns.Open("hello")
		require.NoError(t, err)
		u2, err := ns.Open("hello")
		require.NoError(t, err)
		assert.Same(t, u1, u2)
	})
}

func TestDirectory_OpenBroken(t *testing.T) {
	primary, secondary := newTestTree(t)
	writeFile(t, filepath.Join(primary, "myapp", "plugins", "invalid.yaml"), "id: other\nmembers: []\n")
	writeFile(t, filepath.Join(primary, "myapp", "plugins", "garbled.yaml"), "members: [")
	r := newTestResolver(t, []string{primary, secondary})

	contrib, err := r.Resolve("contrib")
	require.NoError(t, err)
	_, err = contrib.Open("broken")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.NotErrorIs(t, err, namespace.ErrNotFound)

	plugins, err := r.Resolve("myapp.plugins")
	require.NoError(t, err)
	_, err = plugins.Open("invalid")
	assert.ErrorIs(t, err, ErrInvalidManifest)

	_, err = plugins.Open("garbled")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse manifest")
}

func TestDirectory_OpenPlaceholders(t *testing.T) {
	_, secondary := newTestTree(t)
	r := newTestResolver(t, []string{secondary}, WithPlaceholders())

	ns, err := r.Resolve("contrib")
	require.NoError(t, err)

	u, err := ns.Open("broken")
	require.NoError(t, err)
	require.Len(t, u.Members, 1)
	assert.Equal(t, &Placeholder{Kind: "nonexistent"}, u.Members[0].Value)
}

func TestDirectory_ReloadsChangedManifest(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "pkg", "x.yaml")
	writeFile(t, path, "members:\n  - name: X\n    kind: greeter\n    config: {greeting: one}\n")
	r := newTestResolver(t, []string{root})
	ns, err := r.Resolve("pkg")
	require.NoError(t, err)

	u1, err := ns.Open("x")
	require.NoError(t, err)

	writeFile(t, path, "members:\n  - name: X\n    kind: greeter\n    config: {greeting: two, target: you}\n")
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	u2, err := ns.Open("x")
	require.NoError(t, err)

	assert.NotSame(t, u1, u2)
	assert.Equal(t, "two, you", u2.Members[0].Value.(Greeter).Greet())
}

func TestDirectoryResolver_SharedCacheSharesSingletons(t *testing.T) {
	primary, _ := newTestTree(t)
	var builds atomic.Int32
	kinds := newTestKinds(t, &builds)
	cache := NewManifestCache(16, 0)

	r1 := NewDirectoryResolver([]string{primary}, kinds, WithCache(cache), WithLogger(observability.Discard()))
	r2 := NewDirectoryResolver([]string{primary}, kinds, WithCache(cache), WithLogger(observability.Discard()))

	ns1, err := r1.Resolve("myapp.plugins")
	require.NoError(t, err)
	ns2, err := r2.Resolve("myapp.plugins")
	require.NoError(t, err)

	u1, err := ns1.Open("hello")
	require.NoError(t, err)
	u2, err := ns2.Open("hello")
	require.NoError(t, err)

	assert.Same(t, u1.Members[0].Value, u2.Members[0].Value)
	assert.Equal(t, int32(2), builds.Load(), "one per member, once")
}

func TestDirectory_Manifest(t *testing.T) {
	primary, _ := newTestTree(t)
	r := newTestResolver(t, []string{primary})
	ns, err := r.Resolve("myapp.plugins")
	require.NoError(t, err)
	dir := ns.(*Directory)

	m, err := dir.Manifest("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", m.ID)

	_, err = dir.Manifest("absent")
	assert.ErrorIs(t, err, namespace.ErrNotFound)
}

func TestDefaultRoots(t *testing.T) {
	roots := DefaultRoots()

	require.Len(t, roots, 3)
	assert.Contains(t, roots[0], filepath.Join(".plugload", "plugins"))
}
