package loader

import (
	"errors"

	"github.com/platinummonkey/plugload/pkg/namespace"
	"github.com/sirupsen/logrus"
)

// resolveBases turns base identifiers into the namespaces that will be
// searched, in order. Missing bases, and bases whose resolver fails, are
// skipped unless strict; bases that resolve to something that is not
// package-like are always skipped.
func resolveBases(r namespace.Resolver, bases []string, strict bool, log *logrus.Logger) ([]namespace.Namespace, error) {
	spaces := make([]namespace.Namespace, 0, len(bases))

	for _, id := range bases {
		ns, err := r.Resolve(id)
		if err != nil {
			if !errors.Is(err, namespace.ErrNotFound) {
				if strict {
					return nil, &ConfigError{Base: id, Reason: "cannot resolve base", Err: err}
				}
				log.WithError(err).Warnf("Skipping plugin base %s: cannot resolve", id)
				continue
			}
			if strict {
				return nil, &ConfigError{Base: id, Reason: "base not found", Err: err}
			}
			log.Debugf("Skipping missing plugin base: %s", id)
			continue
		}

		if ns.Path() == "" {
			log.Debugf("Skipping plugin base %s: not a package", id)
			continue
		}
		spaces = append(spaces, ns)
	}

	if len(spaces) == 0 {
		return nil, &ConfigError{Reason: "no valid bases"}
	}
	return spaces, nil
}
