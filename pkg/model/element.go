package model

import (
	"maps"
	"math"
	"reflect"
	"slices"
)

// Kind discriminates the element variants.
type Kind int

const (
	KindRoot Kind = iota
	KindShape
	KindConnection
	KindLabel
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindShape:
		return "shape"
	case KindConnection:
		return "connection"
	case KindLabel:
		return "label"
	default:
		return "unknown"
	}
}

// ParseKind converts a kind name produced by [Kind.String].
func ParseKind(s string) (Kind, bool) {
	for _, k := range []Kind{KindRoot, KindShape, KindConnection, KindLabel} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Point is a position in diagram space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point { return Point{X: p.X + d.X, Y: p.Y + d.Y} }

// Rect is an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Intersects reports whether r and o overlap or touch.
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.X+o.Width && o.X <= r.X+r.Width &&
		r.Y <= o.Y+o.Height && o.Y <= r.Y+r.Height
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y &&
		o.X+o.Width <= r.X+r.Width && o.Y+o.Height <= r.Y+r.Height
}

// Union returns the smallest rectangle enclosing r and o.
func (r Rect) Union(o Rect) Rect {
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1 := max(r.X+r.Width, o.X+o.Width)
	y1 := max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// BoundsOf returns the bounding box enclosing all points.
func BoundsOf(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Color holds the fill and stroke colors set by the color command.
// Empty values mean the renderer default.
type Color struct {
	Fill   string `json:"fill,omitempty" yaml:"fill,omitempty"`
	Stroke string `json:"stroke,omitempty" yaml:"stroke,omitempty"`
}

// Element is a node of the diagram graph.
//
// All references to other elements are ids resolved through the [Registry].
// Geometry fields apply to shapes and labels, endpoint fields to
// connections. Elements are owned by the registry; mutate them only from
// command handlers.
type Element struct {
	ID             string
	Type           string
	Kind           Kind
	BusinessObject any

	Parent   string
	Children []string

	X, Y, Width, Height float64

	Source, Target string
	Waypoints      []Point

	LabelTarget string
	Labels      []string

	Props map[string]any
	Color Color
}

// Bounds returns the element's bounding box. For connections it encloses
// the waypoints.
func (e *Element) Bounds() Rect {
	if e.Kind == KindConnection {
		return BoundsOf(e.Waypoints)
	}
	return Rect{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
}

// Center returns the midpoint of the element's bounds.
func (e *Element) Center() Point {
	return e.Bounds().Center()
}

// CanContain reports whether other elements may be nested under e.
func (e *Element) CanContain() bool {
	return e.Kind == KindRoot || e.Kind == KindShape
}

// Prop returns a property value.
func (e *Element) Prop(key string) (any, bool) {
	v, ok := e.Props[key]
	return v, ok
}

// Name returns the "name" property as a string.
func (e *Element) Name() string {
	s, _ := e.Props["name"].(string)
	return s
}

// Clone returns a deep copy of the element's structure. The business
// object reference is shared.
func (e *Element) Clone() *Element {
	c := *e
	c.Children = slices.Clone(e.Children)
	c.Waypoints = slices.Clone(e.Waypoints)
	c.Labels = slices.Clone(e.Labels)
	c.Props = maps.Clone(e.Props)
	return &c
}

// StructurallyEqual compares ids, kind, linkage, geometry, properties and
// colors. Nil and empty collections are equal.
func (e *Element) StructurallyEqual(o *Element) bool {
	if e.ID != o.ID || e.Type != o.Type || e.Kind != o.Kind {
		return false
	}
	if e.Parent != o.Parent || !slices.Equal(e.Children, o.Children) {
		return false
	}
	if e.X != o.X || e.Y != o.Y || e.Width != o.Width || e.Height != o.Height {
		return false
	}
	if e.Source != o.Source || e.Target != o.Target || !slices.Equal(e.Waypoints, o.Waypoints) {
		return false
	}
	if e.LabelTarget != o.LabelTarget || !slices.Equal(e.Labels, o.Labels) {
		return false
	}
	if e.Color != o.Color {
		return false
	}
	if len(e.Props) != len(o.Props) {
		return false
	}
	for k, v := range e.Props {
		ov, ok := o.Props[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}
