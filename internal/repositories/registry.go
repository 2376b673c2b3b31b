package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"apiscaffold/internal/domain"
)

// Registry resolves managers by name. Names are case-insensitive and the first
// registration for a name wins.
type Registry struct {
	mu       sync.RWMutex
	managers map[string]*Manager
}

func NewRegistry() *Registry {
	return &Registry{managers: map[string]*Manager{}}
}

// Register adds m under name and wires m back to the registry for nested saves.
// It reports false when name was already taken.
func (r *Registry) Register(name string, m *Manager) bool {
	key := strings.ToUpper(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.managers[key]; exists {
		return false
	}
	r.managers[key] = m
	if m.Registry == nil {
		m.Registry = r
	}
	return true
}

func (r *Registry) Get(name string) (*Manager, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.managers[key]
	if !ok {
		return nil, domain.ConfigurationError{Msg: fmt.Sprintf("no manager registered as %q", key)}
	}
	return m, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.managers))
	for k := range r.managers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// All returns every registered manager in name order.
func (r *Registry) All() []*Manager {
	names := r.Names()
	out := make([]*Manager, 0, len(names))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range names {
		out = append(out, r.managers[n])
	}
	return out
}
