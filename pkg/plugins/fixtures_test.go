package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type Greeter interface {
	Greet() string
}

type greeterConfig struct {
	Greeting string `yaml:"greeting"`
	Target   string `yaml:"target"`
}

type greeter struct {
	greeting string
	target   string
}

func (g *greeter) Greet() string {
	return fmt.Sprintf("%s, %s", g.greeting, g.target)
}

type loudGreeter struct{}

func (loudGreeter) Greet() string { return "HELLO" }

// newTestKinds registers the greeter kind and the loud type. builds counts
// factory runs.
func newTestKinds(t *testing.T, builds *atomic.Int32) *Kinds {
	t.Helper()
	k := NewKinds()
	require.NoError(t, RegisterKind(k, "greeter", func(cfg greeterConfig) (*greeter, error) {
		if builds != nil {
			builds.Add(1)
		}
		if cfg.Target == "" {
			cfg.Target = "world"
		}
		return &greeter{greeting: cfg.Greeting, target: cfg.Target}, nil
	}))
	require.NoError(t, RegisterType[loudGreeter](k, "loud"))
	return k
}

// writeFile creates path and its parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const helloManifest = `
id: hello
version: 1.0.0
members:
  - name: Hello
    kind: greeter
    config:
      greeting: hello
  - name: AAImported
    kind: greeter
    from: myapp.base
`

// newTestTree lays out two roots:
//
//	primary/myapp/plugins/hello.yaml
//	primary/myapp/plugins/loud/plugin.yaml
//	primary/myapp/plugins/_private.yaml
//	primary/myapp/plugins/notes.txt
//	primary/myapp/plugins/empty/        (no manifest)
//	primary/myapp/base.yaml             (single unit, not a package)
//	secondary/myapp/plugins/hello.yml   (shadowed)
//	secondary/myapp/plugins/bye.yml
//	secondary/contrib/broken.yaml
func newTestTree(t *testing.T) (primary, secondary string) {
	t.Helper()
	primary = filepath.Join(t.TempDir(), "primary")
	secondary = filepath.Join(t.TempDir(), "secondary")

	writeFile(t, filepath.Join(primary, "myapp", "plugins", "hello.yaml"), helloManifest)
	writeFile(t, filepath.Join(primary, "myapp", "plugins", "loud", "plugin.yaml"), `
members:
  - name: Loud
    type: loud
`)
	writeFile(t, filepath.Join(primary, "myapp", "plugins", "_private.yaml"), "members: []\n")
	writeFile(t, filepath.Join(primary, "myapp", "plugins", "notes.txt"), "not a manifest")
	require.NoError(t, os.MkdirAll(filepath.Join(primary, "myapp", "plugins", "empty"), 0755))
	writeFile(t, filepath.Join(primary, "myapp", "base.yaml"), "members: []\n")

	writeFile(t, filepath.Join(secondary, "myapp", "plugins", "hello.yml"), `
members:
  - name: Hello
    kind: greeter
    config:
      greeting: shadowed
`)
	writeFile(t, filepath.Join(secondary, "myapp", "plugins", "bye.yml"), `
members:
  - name: Bye
    kind: greeter
    config:
      greeting: bye
      target: moon
`)
	writeFile(t, filepath.Join(secondary, "contrib", "broken.yaml"), `
members:
  - name: Broken
    kind: nonexistent
`)
	return primary, secondary
}
