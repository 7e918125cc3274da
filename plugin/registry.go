package plugin

import "sync"

// Record is a transformed stylesheet.
type Record struct {
	ID   string
	Text string
}

// Registry owns transformed stylesheets of a single build session. Writes are
// keyed by id so concurrent transforms never conflict, re-transforming id
// replaces its text but keeps original position.
type Registry struct {
	mu      sync.Mutex
	index   map[string]int
	records []Record
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Put stores (or replaces) text for id.
func (r *Registry) Put(id, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.index[id]; ok {
		r.records[i].Text = text
		return
	}
	r.index[id] = len(r.records)
	r.records = append(r.records, Record{ID: id, Text: text})
}

// Get returns text stored for id.
func (r *Registry) Get(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return "", false
	}
	return r.records[i].Text, true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Snapshot returns copy of all records in insertion order.
func (r *Registry) Snapshot() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Reset forgets everything, used when a new build starts.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index = make(map[string]int)
	r.records = nil
}
