// Package model defines the diagram element graph and the registry that
// owns it.
//
// # Elements
//
// A diagram has one root element. Shapes and labels carry geometry,
// connections link two registered elements through ordered waypoints, and
// labels annotate a target element. Parents, children, endpoints and label
// targets are stored as ids and resolved through the [Registry], so there is
// a single source of truth for linkage.
//
// # Registry
//
// The [Registry] enforces the structural invariants of the graph:
//
//   - ids are unique
//   - every non-root element has exactly one registered parent and appears
//     once in that parent's children
//   - connection endpoints and label targets are registered
//   - containment is acyclic
//
// Removing an element cascades to its children, to connections attached to
// anything removed, and to labels of anything removed. [Registry.Remove]
// returns the removals so they can be restored by [Registry.Restore].
// Element types can opt out of cascading with [PolicyRestrict].
//
// # Queries
//
// [View] is the read-only surface handed to rules and other consumers that
// must not mutate the graph: lookup by id and type, bounding-box queries,
// and connection adjacency.
package model
