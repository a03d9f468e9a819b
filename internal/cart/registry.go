package cart

import "sync"

// Registry keeps one open cart per operator and document kind.
type Registry struct {
	mu    sync.Mutex
	carts map[registryKey]*Cart
}

type registryKey struct {
	operatorID string
	kind       string
}

func NewRegistry() *Registry {
	return &Registry{carts: make(map[registryKey]*Cart)}
}

// With runs fn against the cart of (operatorID, kind), creating it on first
// use. The registry lock is held for the duration of fn.
func (r *Registry) With(operatorID string, kind string, fn func(*Cart) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey{operatorID: operatorID, kind: kind}
	c, ok := r.carts[key]
	if !ok {
		c = New()
		r.carts[key] = c
	}
	return fn(c)
}
