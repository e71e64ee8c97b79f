package io

import (
	"maps"

	"github.com/matzehuels/flowmodel/pkg/model"
)

// Document is a persisted set of diagrams.
type Document struct {
	Name     string    `json:"name,omitempty" yaml:"name,omitempty"`
	Diagrams []Diagram `json:"diagrams" yaml:"diagrams"`
}

// Diagram is one diagram of a document as a flat element list. Parents,
// endpoints and label targets are referenced by id.
type Diagram struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name,omitempty" yaml:"name,omitempty"`
	Elements []Element `json:"elements" yaml:"elements"`
}

// Element is the serialized form of a [model.Element].
type Element struct {
	ID          string         `json:"id" yaml:"id"`
	Type        string         `json:"type" yaml:"type"`
	Kind        string         `json:"kind" yaml:"kind"`
	Parent      string         `json:"parent,omitempty" yaml:"parent,omitempty"`
	X           float64        `json:"x,omitempty" yaml:"x,omitempty"`
	Y           float64        `json:"y,omitempty" yaml:"y,omitempty"`
	Width       float64        `json:"width,omitempty" yaml:"width,omitempty"`
	Height      float64        `json:"height,omitempty" yaml:"height,omitempty"`
	Source      string         `json:"source,omitempty" yaml:"source,omitempty"`
	Target      string         `json:"target,omitempty" yaml:"target,omitempty"`
	Waypoints   []Point        `json:"waypoints,omitempty" yaml:"waypoints,omitempty"`
	LabelTarget string         `json:"labelTarget,omitempty" yaml:"labelTarget,omitempty"`
	Fill        string         `json:"fill,omitempty" yaml:"fill,omitempty"`
	Stroke      string         `json:"stroke,omitempty" yaml:"stroke,omitempty"`
	Props       map[string]any `json:"props,omitempty" yaml:"props,omitempty"`
}

// Point is a serialized waypoint.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Diagram returns the diagram with the given id, or the first diagram when
// id is empty.
func (d *Document) Diagram(id string) (*Diagram, bool) {
	for i := range d.Diagrams {
		if id == "" || d.Diagrams[i].ID == id {
			return &d.Diagrams[i], true
		}
	}
	return nil, false
}

// SetDiagram replaces the diagram with the same id, or appends it.
func (d *Document) SetDiagram(dg Diagram) {
	for i := range d.Diagrams {
		if d.Diagrams[i].ID == dg.ID {
			d.Diagrams[i] = dg
			return
		}
	}
	d.Diagrams = append(d.Diagrams, dg)
}

// FromElement serializes el.
func FromElement(el *model.Element) Element {
	out := Element{
		ID:          el.ID,
		Type:        el.Type,
		Kind:        el.Kind.String(),
		Parent:      el.Parent,
		X:           el.X,
		Y:           el.Y,
		Width:       el.Width,
		Height:      el.Height,
		Source:      el.Source,
		Target:      el.Target,
		LabelTarget: el.LabelTarget,
		Fill:        el.Color.Fill,
		Stroke:      el.Color.Stroke,
		Props:       maps.Clone(el.Props),
	}
	for _, p := range el.Waypoints {
		out.Waypoints = append(out.Waypoints, Point{X: p.X, Y: p.Y})
	}
	return out
}

// ToElement deserializes e. It reports false when the kind is unknown.
func (e Element) ToElement() (*model.Element, bool) {
	kind, ok := model.ParseKind(e.Kind)
	if !ok {
		return nil, false
	}
	el := &model.Element{
		ID:          e.ID,
		Type:        e.Type,
		Kind:        kind,
		Parent:      e.Parent,
		X:           e.X,
		Y:           e.Y,
		Width:       e.Width,
		Height:      e.Height,
		Source:      e.Source,
		Target:      e.Target,
		LabelTarget: e.LabelTarget,
		Color:       model.Color{Fill: e.Fill, Stroke: e.Stroke},
		Props:       maps.Clone(e.Props),
	}
	for _, p := range e.Waypoints {
		el.Waypoints = append(el.Waypoints, model.Point{X: p.X, Y: p.Y})
	}
	return el, true
}

// FromElements serializes elements into a diagram.
func FromElements(id, name string, els []*model.Element) Diagram {
	d := Diagram{ID: id, Name: name, Elements: make([]Element, len(els))}
	for i, el := range els {
		d.Elements[i] = FromElement(el)
	}
	return d
}
