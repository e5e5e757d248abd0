package plugins

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitBuilder_Unit(t *testing.T) {
	m, err := ParseManifest([]byte(helloManifest))
	require.NoError(t, err)

	b := UnitBuilder{Kinds: newTestKinds(t, nil)}
	u, err := b.Unit("myapp.plugins.hello", m)
	require.NoError(t, err)

	assert.Equal(t, "myapp.plugins.hello", u.Scope)
	require.Len(t, u.Members, 2)
	assert.Equal(t, "myapp.plugins.hello", u.Members[0].Scope)
	assert.Equal(t, "hello, world", u.Members[0].Value.(Greeter).Greet())
	assert.Equal(t, "myapp.base", u.Members[1].Scope)
	assert.Equal(t, ", world", u.Members[1].Value.(Greeter).Greet())
}

func TestUnitBuilder_Member(t *testing.T) {
	kinds := newTestKinds(t, nil)

	tests := []struct {
		name         string
		spec         MemberSpec
		placeholders bool
		want         any
		wantErr      error
		errContains  string
	}{
		{
			name: "registered type",
			spec: MemberSpec{Name: "L", Type: "loud"},
			want: reflect.TypeFor[loudGreeter](),
		},
		{
			name:    "unknown kind",
			spec:    MemberSpec{Name: "X", Kind: "missing"},
			wantErr: ErrUnknownKind,
		},
		{
			name:         "unknown kind placeholder",
			spec:         MemberSpec{Name: "X", Kind: "missing"},
			placeholders: true,
			want:         &Placeholder{Kind: "missing"},
		},
		{
			name:    "unknown type",
			spec:    MemberSpec{Name: "X", Type: "missing"},
			wantErr: ErrUnknownKind,
		},
		{
			name:         "unknown type placeholder",
			spec:         MemberSpec{Name: "X", Type: "missing"},
			placeholders: true,
			want:         reflect.TypeFor[Placeholder](),
		},
		{
			name:    "object without directory",
			spec:    MemberSpec{Name: "X", Object: "x.so"},
			wantErr: ErrObjectsUnsupported,
		},
		{
			name:    "no source",
			spec:    MemberSpec{Name: "X"},
			wantErr: ErrInvalidManifest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := UnitBuilder{Kinds: kinds, Placeholders: tt.placeholders}
			m, err := b.member("pkg.unit", tt.spec)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.spec.Name, m.Name)
			assert.Equal(t, "pkg.unit", m.Scope)
			assert.Equal(t, tt.want, m.Value)
		})
	}
}

func TestUnitBuilder_PlaceholderConfig(t *testing.T) {
	m, err := ParseManifest([]byte(`
members:
  - name: Cache
    kind: redis
    config:
      addr: localhost:6379
      db: 2
`))
	require.NoError(t, err)

	b := UnitBuilder{Kinds: NewKinds(), Placeholders: true}
	u, err := b.Unit("infra.cache", m)
	require.NoError(t, err)

	ph, ok := u.Members[0].Value.(*Placeholder)
	require.True(t, ok)
	assert.Equal(t, "redis", ph.Kind)
	assert.Equal(t, map[string]any{"addr": "localhost:6379", "db": 2}, ph.Config)
}

func TestUnitBuilder_ObjectMissing(t *testing.T) {
	dir := t.TempDir()
	b := UnitBuilder{Kinds: NewKinds(), ObjectDir: dir}

	_, err := b.object(MemberSpec{Name: "X", Object: "missing.so"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(dir, "missing.so"))
}

func TestUnitBuilder_FactoryError(t *testing.T) {
	m, err := ParseManifest([]byte(`
members:
  - name: Hello
    kind: greeter
    config: [not, a, mapping]
`))
	require.NoError(t, err)

	b := UnitBuilder{Kinds: newTestKinds(t, nil)}
	_, err = b.Unit("myapp.plugins.hello", m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "member Hello of myapp.plugins.hello")
	assert.Contains(t, err.Error(), "failed to decode config for kind greeter")
}
