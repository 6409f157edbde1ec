package worker

import (
	"fmt"
	"sort"
	"sync"

	"github.com/calder/delegator/internal/models"
)

// Registry maps task categories to the workers able to handle them. A
// category may carry several independent workers (e.g. two security
// scanners). Registration happens once at process start; the registry is
// effectively immutable afterwards, so Resolve is safe from any goroutine.
type Registry struct {
	mu      sync.RWMutex
	workers map[models.Category][]Worker
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		workers: make(map[models.Category][]Worker),
	}
}

// Register adds a worker under its declared category. Registering two
// workers with the same name in one category is a wiring mistake and fails.
func (r *Registry) Register(w Worker) error {
	if w == nil {
		return fmt.Errorf("cannot register a nil worker")
	}
	if w.Name() == "" {
		return fmt.Errorf("cannot register a worker without a name")
	}
	if !models.ValidCategory(w.Category()) {
		return fmt.Errorf("cannot register worker %q under unknown category %q", w.Name(), w.Category())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.workers[w.Category()] {
		if existing.Name() == w.Name() {
			return fmt.Errorf("worker %q already registered for category %q", w.Name(), w.Category())
		}
	}
	r.workers[w.Category()] = append(r.workers[w.Category()], w)
	return nil
}

// Resolve returns the workers registered for a category, ordered by name so
// dispatch is deterministic. An empty category yields UnroutableTaskError.
func (r *Registry) Resolve(category models.Category) ([]Worker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	registered := r.workers[category]
	if len(registered) == 0 {
		return nil, &UnroutableTaskError{Category: category, Available: r.namesLocked()}
	}

	out := make([]Worker, len(registered))
	copy(out, registered)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// Categories returns the categories with at least one registered worker.
func (r *Registry) Categories() []models.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cats := make([]models.Category, 0, len(r.workers))
	for cat, ws := range r.workers {
		if len(ws) > 0 {
			cats = append(cats, cat)
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// Names returns every registered worker name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	var names []string
	for _, ws := range r.workers {
		for _, w := range ws {
			names = append(names, w.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the total number of registered workers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, ws := range r.workers {
		n += len(ws)
	}
	return n
}
