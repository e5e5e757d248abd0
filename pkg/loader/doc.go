// Package loader is a lazy, thread-safe plugin registry.
//
// A Loader is pointed at one or more plugin package locations and given a
// contract as its type argument. It finds a plugin by name by opening the
// unit of that name in each location, in order, and picking the first member
// the unit declares itself that satisfies the contract. Plugins do not
// register themselves anywhere. Found plugins are cached for the life of the
// loader.
//
// # Contracts
//
// The type argument selects how members are checked:
//
//	// Instances implementing an interface (ModeProtocol).
//	greeters, err := loader.New[Greeter](loader.WithBase("myapp.greeters"))
//
//	// Instances of a concrete type, or of types embedding it (ModeInstance).
//	singletons, err := loader.New[*Service](loader.WithBase("myapp.services"))
//
//	// Types to construct later (ModeSubtype).
//	kinds, err := loader.New[loader.Type[Handler]](loader.WithBase("myapp.handlers"))
//	h := kinds.MustGet("json").New()
//
// # Locations
//
// Base identifiers are resolved through a namespace.Resolver, by default the
// compiled-in catalog.Default. pkg/plugins resolves directories of YAML
// manifests and pkg/plugins/objectstore resolves S3 prefixes; a
// namespace.Chain combines several.
//
//	l, err := loader.New[Greeter](
//		loader.WithBases("myapp.plugins", "contrib.plugins"),
//		loader.WithResolver(plugins.NewDirectoryResolver(roots, kinds)),
//		loader.WithExclude("legacy"),
//	)
//
// # Enumeration
//
// Keys lists unit names without loading anything. Values and Items are
// iterators that load as they go and skip names that do not resolve.
//
//	for name, g := range l.Items() {
//		fmt.Println(name, g.Greet())
//	}
package loader
