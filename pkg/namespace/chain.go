package namespace

import (
	"errors"
	"fmt"
)

// Chain is a Resolver that asks each of its resolvers in turn and returns the
// first namespace found. A resolver error other than ErrNotFound stops the
// chain.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(id string) (Namespace, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		ns, err := r.Resolve(id)
		if err == nil {
			return ns, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}
