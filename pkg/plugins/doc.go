// Package plugins stores plugin packages on disk as YAML manifests and exposes
// them to loaders through namespace.Resolver.
//
// # Layout
//
// A namespace identifier "myapp.plugins" maps to the directory
// <root>/myapp/plugins under the first root that has it. Each unit in that
// directory is either a manifest file or a directory holding plugin.yaml:
//
//	myapp/plugins/
//	├── sum.yaml
//	└── product/
//	    ├── plugin.yaml
//	    └── product.so
//
// # Manifests
//
// A manifest lists the unit's members. Members are built from kinds and types
// registered on a Kinds registry, or opened from Go shared objects:
//
//	id: sum
//	version: 1.2.0
//	members:
//	  - name: Sum
//	    kind: reducer
//	    config:
//	      initial: 0
//	  - name: Base
//	    kind: reducer
//	    from: myapp.base
//
// Members with a "from" scope are imported and never chosen as the unit's
// plugin.
//
// # Usage
//
//	kinds := plugins.NewKinds()
//	plugins.RegisterKind(kinds, "reducer", newReducer)
//
//	r := plugins.NewDirectoryResolver(plugins.DefaultRoots(), kinds)
//	l, err := loader.New[Reducer](
//		loader.WithBase("myapp.plugins"),
//		loader.WithResolver(r),
//	)
//
// Built units live in a ManifestCache. Resolvers sharing a cache share the
// values their factories built, and a changed manifest is rebuilt on the next
// lookup.
package plugins
