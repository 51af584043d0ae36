// Package special serves the site-level documents that do not come from a
// stored page, such as sitemap.xml and robots.txt.
package special

import (
	"net/http"
	"sort"
	"sync"
)

// Handler defines the interface for special page handlers.
type Handler interface {
	Handle(rw http.ResponseWriter, req *http.Request)
}

// Registry maps root-level file names to their handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates a new special page registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for name, e.g. "sitemap.xml". Registering a name
// twice replaces the first handler.
func (r *Registry) Register(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Get retrieves a special page handler by name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[name]
	return handler, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
