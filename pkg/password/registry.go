package password

import (
	"fmt"
	"sort"
)

// Registry resolves password factories by algorithm name.
//
// Names are matched case-insensitively. A Registry is populated at
// construction time and only read afterwards, so lookups need no locking.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a Registry holding the given factories.
// Later factories replace earlier ones with the same algorithm.
func NewRegistry(factories ...Factory) *Registry {
	r := &Registry{factories: make(map[string]Factory, len(factories))}
	for _, f := range factories {
		r.factories[NormalizeAlgorithm(f.Algorithm())] = f
	}
	return r
}

// DefaultRegistry returns a new Registry with every built-in algorithm.
func DefaultRegistry() *Registry {
	return NewRegistry(
		ClearFactory{},
		NewBCryptFactory(DefaultBCryptCost),
		NewArgon2Factory(DefaultArgon2Params()),
		NewSHA256Factory(),
		NewSHA512Factory(),
		NewPBKDF2Factory(DefaultPBKDF2Iterations),
	)
}

// ForAlgorithm returns the factory registered for name.
// Returns an error wrapping ErrUnknownAlgorithm if there is none.
func (r *Registry) ForAlgorithm(name string) (Factory, error) {
	if r != nil {
		if f, ok := r.factories[NormalizeAlgorithm(name)]; ok {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Algorithms returns the registered algorithm names in sorted order.
func (r *Registry) Algorithms() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = DefaultRegistry()

// ForAlgorithm resolves name against the built-in algorithms.
func ForAlgorithm(name string) (Factory, error) {
	return defaultRegistry.ForAlgorithm(name)
}

// Generate produces a stored representation of plaintext with a built-in algorithm.
func Generate(algorithm string, plaintext []byte) (*Password, error) {
	f, err := ForAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	return f.Generate(plaintext)
}
