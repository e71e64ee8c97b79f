package model

import "slices"

// Snapshot is an immutable copy of a registry's elements.
type Snapshot struct {
	elements []*Element

	// origin holds the element objects that were live when the snapshot
	// was taken, keyed by id.
	origin map[string]*Element
}

// Snapshot copies the current registry contents.
func (r *Registry) Snapshot() *Snapshot {
	s := &Snapshot{
		elements: make([]*Element, 0, len(r.order)),
		origin:   make(map[string]*Element, len(r.order)),
	}
	for el := range r.All() {
		s.elements = append(s.elements, el.Clone())
		s.origin[el.ID] = el
	}
	return s
}

// ReplaceWith swaps the registry contents for a copy of s in one step.
// Removal policies are kept.
func (r *Registry) ReplaceWith(s *Snapshot) {
	r.reset()
	for _, el := range s.elements {
		c := el.Clone()
		r.elements[c.ID] = c
		r.order = append(r.order, c.ID)
		if c.Kind == KindConnection {
			r.outgoing[c.Source] = append(r.outgoing[c.Source], c.ID)
			r.incoming[c.Target] = append(r.incoming[c.Target], c.ID)
		}
	}
}

// RollbackTo rolls the registry back to s. Unlike [Registry.ReplaceWith] it
// keeps element identity: the values of s are copied into the element
// objects that are registered now or were registered when s was taken, so
// pointers held elsewhere (command contexts, undo history) stay valid.
// Elements without such an object are installed as copies; elements not in
// s are dropped.
func (r *Registry) RollbackTo(s *Snapshot) {
	live := r.elements
	r.reset()
	for _, el := range s.elements {
		c := el.Clone()
		obj, ok := live[c.ID]
		if !ok {
			obj, ok = s.origin[c.ID]
		}
		if ok {
			*obj = *c
			c = obj
		}
		r.elements[c.ID] = c
		r.order = append(r.order, c.ID)
		if c.Kind == KindConnection {
			r.outgoing[c.Source] = append(r.outgoing[c.Source], c.ID)
			r.incoming[c.Target] = append(r.incoming[c.Target], c.ID)
		}
	}
}

// Elements returns copies of the snapshot's elements in registration order.
func (s *Snapshot) Elements() []*Element {
	out := make([]*Element, len(s.elements))
	for i, el := range s.elements {
		out[i] = el.Clone()
	}
	return out
}

// Len returns the number of elements in the snapshot.
func (s *Snapshot) Len() int { return len(s.elements) }

// Equal reports whether both snapshots hold structurally equal elements,
// regardless of registration order.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if len(s.elements) != len(o.elements) {
		return false
	}
	byID := make(map[string]*Element, len(o.elements))
	for _, el := range o.elements {
		byID[el.ID] = el
	}
	for _, el := range s.elements {
		other, ok := byID[el.ID]
		if !ok || !el.StructurallyEqual(other) {
			return false
		}
	}
	return true
}

// IDs returns the sorted element ids.
func (s *Snapshot) IDs() []string {
	ids := make([]string, len(s.elements))
	for i, el := range s.elements {
		ids[i] = el.ID
	}
	slices.Sort(ids)
	return ids
}
