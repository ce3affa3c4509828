package entity

import "sort"

// Registry holds every tracked entity keyed by (kind, id). It is owned by the
// client loop goroutine and is not safe for concurrent use.
type Registry struct {
	byKey map[Key]*Entity
}

func NewRegistry() *Registry {
	return &Registry{byKey: map[Key]*Entity{}}
}

func (r *Registry) Get(kind Kind, id string) (*Entity, bool) {
	e, ok := r.byKey[Key{Kind: kind, ID: id}]
	return e, ok
}

func (r *Registry) Len() int { return len(r.byKey) }

func (r *Registry) Count(kind Kind) int {
	n := 0
	for k := range r.byKey {
		if k.Kind == kind {
			n++
		}
	}
	return n
}

// Sorted returns the entities of one kind ordered by id.
func (r *Registry) Sorted(kind Kind) []*Entity {
	out := make([]*Entity, 0, len(r.byKey))
	for k, e := range r.byKey {
		if k.Kind == kind {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.ID < out[j].Key.ID })
	return out
}

func (r *Registry) insert(e *Entity) { r.byKey[e.Key] = e }

func (r *Registry) remove(k Key) { delete(r.byKey, k) }

func (r *Registry) each(kind Kind, fn func(*Entity)) {
	for k, e := range r.byKey {
		if k.Kind == kind {
			fn(e)
		}
	}
}
