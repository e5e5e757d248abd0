// Package catalog provides plugin packages compiled into the binary.
//
// Go has no runtime import of source packages, so a catalog stands in for the
// package tree: a plugin package declares itself once, and each unit in it
// carries an init function holding the unit's top-level code. Nothing is
// registered with any loader; loaders discover units by listing the package,
// and a unit's init function runs only when a loader first asks for it.
//
//	var plugins = catalog.Declare("myapp.plugins")
//
//	func init() {
//		plugins.Unit("sum", func(b *catalog.Builder) error {
//			b.Export("Sum", &SumPlugin{})
//			return nil
//		})
//	}
//
// Init functions run at most once per process, so singleton instances built
// there are shared by every loader reading the catalog.
package catalog
