// Package namespace defines how plugin packages are found and read.
//
// A Resolver maps a dotted identifier such as "myapp.plugins" to a Namespace.
// A Namespace lists the units it contains without loading them, and opens a
// unit on request. An opened Unit exposes its top-level members together with
// the scope that declared each one, so a caller can tell members defined by
// the unit from members it merely imports.
//
// Implementations live in other packages:
//
//   - catalog: plugin packages compiled into the binary
//   - plugins: directories of YAML manifests
//   - plugins/objectstore: manifests stored in S3
//
// Resolvers compose with Chain:
//
//	r := namespace.Chain{catalog.Default, plugins.NewDirectoryResolver(roots)}
package namespace
