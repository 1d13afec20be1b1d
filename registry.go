package xembed

import (
	"fmt"
	"sync"
)

// Identify assigns the next free discriminator for a key against a
// caller-owned set of already-assigned identifiers. The set is mutated so
// subsequent calls see the assignment. Assignment is first-come-first-served:
// the first experience for a key gets discriminator 0, the next 1, and so on.
//
// The taken set is supplied by the page-level coordinator rather than owned
// here, so independent coordinators (and tests) never share state.
func Identify(key Key, taken map[string]struct{}) (identifier string, discriminator int) {
	base := key.Identifier()
	identifier = base
	for {
		if _, exists := taken[identifier]; !exists {
			taken[identifier] = struct{}{}
			return identifier, discriminator
		}
		discriminator++
		identifier = fmt.Sprintf("%s-%d", base, discriminator)
	}
}

// Release frees an assigned identifier so its discriminator can be handed
// out again. Used when experience construction fails after identification.
func Release(identifier string, taken map[string]struct{}) {
	delete(taken, identifier)
}

// ExperienceRegistry wraps Identify with an internally-owned identifier set,
// the common case for a single page coordinator.
type ExperienceRegistry struct {
	mu    sync.Mutex
	taken map[string]struct{}
}

// NewExperienceRegistry returns an empty registry.
func NewExperienceRegistry() *ExperienceRegistry {
	return &ExperienceRegistry{taken: make(map[string]struct{})}
}

// Identify assigns the next free discriminator for the key.
func (r *ExperienceRegistry) Identify(key Key) (identifier string, discriminator int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Identify(key, r.taken)
}

// Release frees an assigned identifier.
func (r *ExperienceRegistry) Release(identifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	Release(identifier, r.taken)
}

// Len reports how many identifiers have been assigned.
func (r *ExperienceRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.taken)
}
