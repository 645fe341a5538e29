package schema

import "sync"

// Registry holds the models declared at startup, keyed by name
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
	order  []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

// Register adds m after checking that it compiles. Models are looked up by
// name and by index name, so both must be unique.
func (r *Registry) Register(m *Model) error {
	if m == nil || m.Name == "" {
		return schemaErr("", "", "model must have a name")
	}
	s, err := CompileSchema(m)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[m.Name]; exists {
		return schemaErr(m.Name, "", "model already registered")
	}
	for _, name := range r.order {
		if idx, _ := IndexNameOf(r.models[name]); idx == s.IndexName {
			return schemaErr(m.Name, "", "index %s already claimed by %s", s.IndexName, name)
		}
	}
	r.models[m.Name] = m
	r.order = append(r.order, m.Name)
	return nil
}

// Lookup returns the model registered under name
func (r *Registry) Lookup(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}

// Names returns model names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Models returns models in registration order
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Model, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.models[name])
	}
	return out
}
