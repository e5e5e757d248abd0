package plugins

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/platinummonkey/plugload/pkg/namespace"
	"github.com/sirupsen/logrus"
)

var manifestExts = []string{".yaml", ".yml"}

// DirectoryResolver resolves namespace identifiers to directories of plugin
// manifests. Identifier "a.b" maps to <root>/a/b, tried for each root in
// order.
type DirectoryResolver struct {
	roots        []string
	kinds        *Kinds
	cache        *ManifestCache
	placeholders bool
	log          *logrus.Logger
}

// Option configures a DirectoryResolver.
type Option func(*DirectoryResolver)

// WithLogger sets the logger.
func WithLogger(log *logrus.Logger) Option {
	return func(r *DirectoryResolver) {
		r.log = log
	}
}

// WithCache shares a manifest cache, and therefore built members, between
// resolvers.
func WithCache(c *ManifestCache) Option {
	return func(r *DirectoryResolver) {
		r.cache = c
	}
}

// WithPlaceholders builds members of unknown kinds as *Placeholder values.
func WithPlaceholders() Option {
	return func(r *DirectoryResolver) {
		r.placeholders = true
	}
}

// NewDirectoryResolver creates a resolver over roots. Members are built with
// kinds; nil means no kinds are known.
func NewDirectoryResolver(roots []string, kinds *Kinds, opts ...Option) *DirectoryResolver {
	if kinds == nil {
		kinds = NewKinds()
	}

	r := &DirectoryResolver{
		roots: append([]string(nil), roots...),
		kinds: kinds,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logrus.New()
	}
	if r.cache == nil {
		r.cache = NewManifestCache(DefaultCacheSize, 0)
	}
	return r
}

// Roots returns the search roots.
func (r *DirectoryResolver) Roots() []string {
	return append([]string(nil), r.roots...)
}

// Resolve implements namespace.Resolver. The first root holding a directory
// for id wins; a manifest file standing where the directory would be
// resolves to a namespace that is not package-like.
func (r *DirectoryResolver) Resolve(id string) (namespace.Namespace, error) {
	parts := namespace.Split(id)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %q", namespace.ErrNotFound, id)
	}
	for _, p := range parts {
		if !namespace.IsUnitName(p) {
			return nil, fmt.Errorf("%w: %q", namespace.ErrNotFound, id)
		}
	}

	for _, root := range r.roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			r.log.Debugf("Plugin root does not exist: %s", root)
			continue
		}

		dir := filepath.Join(append([]string{root}, parts...)...)
		info, err := os.Stat(dir)
		switch {
		case err == nil && info.IsDir():
			return &Directory{id: id, dir: dir, resolver: r}, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
		}

		if file, ok := findManifestFile(dir); ok {
			r.log.Debugf("Plugin base %s is a single unit at %s", id, file)
			return &Directory{id: id, resolver: r}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", namespace.ErrNotFound, id)
}

// Directory is a plugin package backed by a directory. Each unit is a
// <name>.yaml or <name>.yml manifest, or a <name>/plugin.yaml directory.
type Directory struct {
	id       string
	dir      string // empty for module-like namespaces
	resolver *DirectoryResolver
}

// ID implements namespace.Namespace.
func (d *Directory) ID() string {
	return d.id
}

// Path implements namespace.Namespace.
func (d *Directory) Path() string {
	return d.dir
}

// Units implements namespace.Namespace. Names starting with '_' or '.' are
// never units.
func (d *Directory) Units() ([]string, error) {
	if d.dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin directory %s: %w", d.dir, err)
	}

	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		name := entry.Name()

		if entry.IsDir() {
			if _, err := os.Stat(filepath.Join(d.dir, name, UnitManifest)); err != nil {
				continue
			}
		} else {
			ext := filepath.Ext(name)
			if !isManifestExt(ext) {
				continue
			}
			name = strings.TrimSuffix(name, ext)
		}

		if namespace.IsUnitName(name) {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Open implements namespace.Namespace.
func (d *Directory) Open(name string) (*namespace.Unit, error) {
	scope := namespace.Qualify(d.id, name)
	if d.dir == "" || !namespace.IsUnitName(name) {
		return nil, fmt.Errorf("%w: %s", namespace.ErrNotFound, scope)
	}

	path, unitDir, ok := d.locate(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", namespace.ErrNotFound, scope)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat manifest %s: %w", path, err)
	}
	stamp := Stamp{Size: info.Size(), ModTime: info.ModTime().UnixNano()}

	r := d.resolver
	return r.cache.Unit(path, stamp,
		func() ([]byte, error) { return os.ReadFile(path) },
		func(m *Manifest) (*namespace.Unit, error) {
			if err := CheckManifest(m, name); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			b := UnitBuilder{Kinds: r.kinds, Placeholders: r.placeholders, ObjectDir: unitDir}
			u, err := b.Unit(scope, m)
			if err != nil {
				return nil, err
			}
			r.log.Debugf("Loaded plugin unit %s from %s", scope, path)
			return u, nil
		},
	)
}

// Manifest returns the parsed manifest of a unit without building it.
func (d *Directory) Manifest(name string) (*Manifest, error) {
	notFound := fmt.Errorf("%w: %s", namespace.ErrNotFound, namespace.Qualify(d.id, name))
	if d.dir == "" || !namespace.IsUnitName(name) {
		return nil, notFound
	}
	path, _, ok := d.locate(name)
	if !ok {
		return nil, notFound
	}
	return LoadManifest(path)
}

// locate finds the manifest of unit name and the directory its relative
// paths are resolved against.
func (d *Directory) locate(name string) (path, unitDir string, ok bool) {
	if file, found := findManifestFile(filepath.Join(d.dir, name)); found {
		return file, d.dir, true
	}
	unitDir = filepath.Join(d.dir, name)
	path = filepath.Join(unitDir, UnitManifest)
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return path, unitDir, true
	}
	return "", "", false
}

// findManifestFile looks for base.yaml, then base.yml.
func findManifestFile(base string) (string, bool) {
	for _, ext := range manifestExts {
		path := base + ext
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

func isManifestExt(ext string) bool {
	for _, e := range manifestExts {
		if ext == e {
			return true
		}
	}
	return false
}

// DefaultRoots returns the default plugin search roots
func DefaultRoots() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "/tmp"
	}

	return []string{
		filepath.Join(homeDir, ".plugload", "plugins"),
		"/etc/plugload/plugins",
		"./plugins", // Current directory
	}
}
