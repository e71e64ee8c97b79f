package model

import (
	"iter"
	"slices"

	"github.com/matzehuels/flowmodel/pkg/errors"
)

// Policy controls what happens to dependents when an element is removed.
type Policy int

const (
	// PolicyCascade removes children, attached connections and labels
	// together with the element.
	PolicyCascade Policy = iota
	// PolicyRestrict refuses the removal while dependents exist.
	PolicyRestrict
)

// String returns the policy name used in configuration files.
func (p Policy) String() string {
	if p == PolicyRestrict {
		return "restrict"
	}
	return "cascade"
}

// ParsePolicy converts "cascade" or "restrict".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "cascade":
		return PolicyCascade, nil
	case "restrict":
		return PolicyRestrict, nil
	}
	return PolicyCascade, errors.New(errors.ErrCodeInvalidInput, "unknown removal policy %q", s)
}

// Removal records one element taken out of the registry and where it was,
// so that [Registry.Restore] can put it back.
type Removal struct {
	Element    *Element
	Parent     string
	Index      int
	LabelIndex int

	order int
}

// View is the read-only query surface of the registry.
type View interface {
	Get(id string) (*Element, bool)
	All() iter.Seq[*Element]
	ByType(typ string) []*Element
	InBounds(r Rect) []*Element
	Incoming(id string) []*Element
	Outgoing(id string) []*Element
	IsAncestor(ancestor, id string) bool
	Len() int
}

// Registry is the authoritative store of a diagram's elements.
//
// It enforces unique ids, single parentage, registered connection endpoints
// and acyclic containment. It is not safe for concurrent use.
type Registry struct {
	elements map[string]*Element
	order    []string
	incoming map[string][]string
	outgoing map[string][]string
	policies map[string]Policy
}

var _ View = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{policies: make(map[string]Policy)}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.elements = make(map[string]*Element)
	r.order = nil
	r.incoming = make(map[string][]string)
	r.outgoing = make(map[string][]string)
}

// SetPolicy sets the removal policy for an element type.
func (r *Registry) SetPolicy(typ string, p Policy) {
	r.policies[typ] = p
}

// PolicyFor returns the removal policy for an element type.
func (r *Registry) PolicyFor(typ string) Policy {
	return r.policies[typ]
}

// Add registers el and links it under parent at index. A negative or
// out-of-range index appends. Any Children or Labels set on el are
// discarded; they are populated as dependents are added.
//
// On failure the registry is unchanged.
func (r *Registry) Add(el *Element, parent string, index int) error {
	if el == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil element")
	}
	if err := errors.ValidateElementID(el.ID); err != nil {
		return err
	}
	if _, ok := r.elements[el.ID]; ok {
		return errors.New(errors.ErrCodeDuplicateID, "element %q already registered", el.ID).WithElement(el.ID)
	}
	if err := r.checkLinks(el, parent); err != nil {
		return err
	}

	el.Children = nil
	el.Labels = nil
	r.insert(el, parent, index, len(r.order), -1)
	return nil
}

func (r *Registry) checkLinks(el *Element, parent string) error {
	if el.Kind == KindRoot {
		if parent != "" {
			return errors.New(errors.ErrCodeInvalidParent, "root %q cannot have a parent", el.ID).WithElement(el.ID)
		}
	} else {
		p, ok := r.elements[parent]
		if !ok {
			return errors.New(errors.ErrCodeInvalidParent, "parent %q of %q is not registered", parent, el.ID).WithElement(el.ID)
		}
		if !p.CanContain() {
			return errors.New(errors.ErrCodeInvalidParent, "%s %q cannot contain elements", p.Kind, parent).WithElement(el.ID)
		}
	}

	switch el.Kind {
	case KindConnection:
		for _, end := range []string{el.Source, el.Target} {
			if _, ok := r.elements[end]; !ok {
				return errors.New(errors.ErrCodeNotFound, "connection endpoint %q is not registered", end).WithElement(el.ID)
			}
		}
	case KindLabel:
		if _, ok := r.elements[el.LabelTarget]; !ok {
			return errors.New(errors.ErrCodeNotFound, "label target %q is not registered", el.LabelTarget).WithElement(el.ID)
		}
	}
	return nil
}

func (r *Registry) insert(el *Element, parent string, index, order, labelIndex int) {
	el.Parent = parent
	if p := r.elements[parent]; p != nil {
		p.Children = insertAt(p.Children, index, el.ID)
	}
	r.elements[el.ID] = el
	r.order = insertAt(r.order, order, el.ID)

	switch el.Kind {
	case KindConnection:
		r.outgoing[el.Source] = append(r.outgoing[el.Source], el.ID)
		r.incoming[el.Target] = append(r.incoming[el.Target], el.ID)
	case KindLabel:
		t := r.elements[el.LabelTarget]
		t.Labels = insertAt(t.Labels, labelIndex, el.ID)
	}
}

// Remove deregisters the element with the given id along with its
// dependents: children, connections attached to any removed element and
// labels annotating any removed element. Removals are returned in the order
// they happened, dependents before the element they depend on.
//
// Removing an element whose type has [PolicyRestrict] fails with
// DEPENDENTS_EXIST if the removal would cascade to its dependents.
func (r *Registry) Remove(id string) ([]Removal, error) {
	if _, ok := r.elements[id]; !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "element %q not found", id).WithElement(id)
	}

	ids := r.collect(id)
	for _, cid := range ids {
		el := r.elements[cid]
		if r.policies[el.Type] == PolicyRestrict && r.hasDependents(el) {
			return nil, errors.New(errors.ErrCodeDependentsExist,
				"%s %q still has dependents", el.Type, cid).WithElement(cid)
		}
	}

	removals := make([]Removal, 0, len(ids))
	for _, cid := range ids {
		removals = append(removals, r.unlink(cid))
	}
	return removals, nil
}

// collect returns id and everything depending on it, dependents first.
func (r *Registry) collect(id string) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	var visit func(id string)
	visit = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		el := r.elements[id]
		for _, c := range slices.Clone(el.Children) {
			visit(c)
		}
		for _, c := range slices.Concat(r.incoming[id], r.outgoing[id]) {
			visit(c)
		}
		for _, l := range slices.Clone(el.Labels) {
			visit(l)
		}
		out = append(out, id)
	}
	visit(id)
	return out
}

// HasDependents reports whether children, connections or labels depend on id.
func (r *Registry) HasDependents(id string) bool {
	el, ok := r.elements[id]
	return ok && r.hasDependents(el)
}

func (r *Registry) hasDependents(el *Element) bool {
	return len(el.Children) > 0 || len(el.Labels) > 0 ||
		len(r.incoming[el.ID]) > 0 || len(r.outgoing[el.ID]) > 0
}

func (r *Registry) unlink(id string) Removal {
	el := r.elements[id]
	rm := Removal{Element: el, Parent: el.Parent, Index: -1, LabelIndex: -1}

	if p := r.elements[el.Parent]; p != nil {
		rm.Index = slices.Index(p.Children, id)
		p.Children = slices.Delete(p.Children, rm.Index, rm.Index+1)
	}
	switch el.Kind {
	case KindConnection:
		r.outgoing[el.Source] = without(r.outgoing[el.Source], id)
		r.incoming[el.Target] = without(r.incoming[el.Target], id)
	case KindLabel:
		if t := r.elements[el.LabelTarget]; t != nil {
			rm.LabelIndex = slices.Index(t.Labels, id)
			t.Labels = without(t.Labels, id)
		}
	}

	rm.order = slices.Index(r.order, id)
	r.order = slices.Delete(r.order, rm.order, rm.order+1)
	delete(r.elements, id)
	delete(r.incoming, id)
	delete(r.outgoing, id)
	return rm
}

// Restore re-adds removals in reverse order at their original positions.
// It is the inverse of [Registry.Remove].
func (r *Registry) Restore(removals []Removal) error {
	for i := len(removals) - 1; i >= 0; i-- {
		rm := removals[i]
		if _, ok := r.elements[rm.Element.ID]; ok {
			return errors.New(errors.ErrCodeDuplicateID, "element %q already registered", rm.Element.ID).WithElement(rm.Element.ID)
		}
		if err := r.checkLinks(rm.Element, rm.Parent); err != nil {
			return err
		}
		r.insert(rm.Element, rm.Parent, rm.Index, rm.order, rm.LabelIndex)
	}
	return nil
}

// Get returns the element with the given id.
func (r *Registry) Get(id string) (*Element, bool) {
	el, ok := r.elements[id]
	return el, ok
}

// MustGet returns the element or a NOT_FOUND error.
func (r *Registry) MustGet(id string) (*Element, error) {
	el, ok := r.elements[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "element %q not found", id).WithElement(id)
	}
	return el, nil
}

// All returns a lazy, restartable sequence over the registered elements in
// registration order.
func (r *Registry) All() iter.Seq[*Element] {
	return func(yield func(*Element) bool) {
		for _, id := range slices.Clone(r.order) {
			el, ok := r.elements[id]
			if !ok {
				continue
			}
			if !yield(el) {
				return
			}
		}
	}
}

// Len returns the number of registered elements.
func (r *Registry) Len() int { return len(r.elements) }

// Filter returns the elements matching fn in registration order.
func (r *Registry) Filter(fn func(*Element) bool) []*Element {
	var out []*Element
	for el := range r.All() {
		if fn(el) {
			out = append(out, el)
		}
	}
	return out
}

// ByType returns the elements of the given type.
func (r *Registry) ByType(typ string) []*Element {
	return r.Filter(func(el *Element) bool { return el.Type == typ })
}

// InBounds returns the non-root elements whose bounds intersect rect.
func (r *Registry) InBounds(rect Rect) []*Element {
	return r.Filter(func(el *Element) bool {
		return el.Kind != KindRoot && el.Bounds().Intersects(rect)
	})
}

// Incoming returns the connections targeting id.
func (r *Registry) Incoming(id string) []*Element {
	return r.resolve(r.incoming[id])
}

// Outgoing returns the connections starting at id.
func (r *Registry) Outgoing(id string) []*Element {
	return r.resolve(r.outgoing[id])
}

func (r *Registry) resolve(ids []string) []*Element {
	out := make([]*Element, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.elements[id])
	}
	return out
}

// IsAncestor reports whether ancestor is on the parent chain of id.
func (r *Registry) IsAncestor(ancestor, id string) bool {
	el, ok := r.elements[id]
	for ok && el.Parent != "" {
		if el.Parent == ancestor {
			return true
		}
		el, ok = r.elements[el.Parent]
	}
	return false
}

// Root returns the root element, if any.
func (r *Registry) Root() (*Element, bool) {
	for el := range r.All() {
		if el.Kind == KindRoot {
			return el, true
		}
	}
	return nil, false
}

// Reparent moves id under parent at index and returns the previous parent
// and index. Moving an element into itself or one of its descendants fails
// with INVALID_PARENT.
func (r *Registry) Reparent(id, parent string, index int) (string, int, error) {
	el, err := r.MustGet(id)
	if err != nil {
		return "", -1, err
	}
	if el.Kind == KindRoot {
		return "", -1, errors.New(errors.ErrCodeInvalidParent, "root %q cannot be moved", id).WithElement(id)
	}
	p, ok := r.elements[parent]
	if !ok {
		return "", -1, errors.New(errors.ErrCodeInvalidParent, "parent %q is not registered", parent).WithElement(id)
	}
	if !p.CanContain() {
		return "", -1, errors.New(errors.ErrCodeInvalidParent, "%s %q cannot contain elements", p.Kind, parent).WithElement(id)
	}
	if parent == id || r.IsAncestor(id, parent) {
		return "", -1, errors.New(errors.ErrCodeInvalidParent, "moving %q into %q would create a containment cycle", id, parent).WithElement(id)
	}

	oldParent := el.Parent
	old := r.elements[oldParent]
	oldIndex := slices.Index(old.Children, id)
	old.Children = slices.Delete(old.Children, oldIndex, oldIndex+1)
	p.Children = insertAt(p.Children, index, id)
	el.Parent = parent
	return oldParent, oldIndex, nil
}

// UpdateID renames an element and rewrites every reference to it.
func (r *Registry) UpdateID(oldID, newID string) error {
	el, err := r.MustGet(oldID)
	if err != nil {
		return err
	}
	if oldID == newID {
		return nil
	}
	if err := errors.ValidateElementID(newID); err != nil {
		return err
	}
	if _, ok := r.elements[newID]; ok {
		return errors.New(errors.ErrCodeDuplicateID, "element %q already registered", newID).WithElement(newID)
	}

	delete(r.elements, oldID)
	r.elements[newID] = el
	el.ID = newID
	replace(r.order, oldID, newID)

	if p := r.elements[el.Parent]; p != nil {
		replace(p.Children, oldID, newID)
	}
	for _, c := range el.Children {
		r.elements[c].Parent = newID
	}
	for _, l := range el.Labels {
		r.elements[l].LabelTarget = newID
	}
	if el.Kind == KindLabel {
		replace(r.elements[el.LabelTarget].Labels, oldID, newID)
	}

	for _, c := range r.outgoing[oldID] {
		r.elements[c].Source = newID
	}
	for _, c := range r.incoming[oldID] {
		r.elements[c].Target = newID
	}
	if out, ok := r.outgoing[oldID]; ok {
		delete(r.outgoing, oldID)
		r.outgoing[newID] = out
	}
	if in, ok := r.incoming[oldID]; ok {
		delete(r.incoming, oldID)
		r.incoming[newID] = in
	}
	if el.Kind == KindConnection {
		replace(r.outgoing[el.Source], oldID, newID)
		replace(r.incoming[el.Target], oldID, newID)
	}
	return nil
}

// Clear removes every element. Removal policies are kept.
func (r *Registry) Clear() {
	r.reset()
}

func insertAt(s []string, i int, v string) []string {
	if i < 0 || i > len(s) {
		return append(s, v)
	}
	return slices.Insert(s, i, v)
}

func without(s []string, v string) []string {
	return slices.DeleteFunc(s, func(x string) bool { return x == v })
}

func replace(s []string, from, to string) {
	if i := slices.Index(s, from); i >= 0 {
		s[i] = to
	}
}
