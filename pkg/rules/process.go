package rules

import (
	"slices"

	"github.com/matzehuels/flowmodel/pkg/eventbus"
	"github.com/matzehuels/flowmodel/pkg/model"
)

// Actions consulted by the modeling verbs.
const (
	ActionShapeCreate    = "shape.create"
	ActionConnect        = "connection.create"
	ActionLabelCreate    = "label.create"
	ActionElementsMove   = "elements.move"
	ActionShapeResize    = "shape.resize"
	ActionElementsDelete = "elements.delete"
	ActionUpdate         = "element.updateProperties"
	ActionSetColor       = "element.setColor"
	ActionWaypoints      = "connection.updateWaypoints"
	ActionAlign          = "elements.align"
	ActionDistribute     = "elements.distribute"
	ActionPaste          = "elements.create"
)

// CreateQuery asks whether a shape of Type may be created under Parent.
type CreateQuery struct {
	Type   string
	Parent string
	Bounds model.Rect
}

// ConnectQuery asks whether Source may be connected to Target.
type ConnectQuery struct {
	Source, Target string
	Type           string
}

// LabelQuery asks whether Target may receive a label.
type LabelQuery struct {
	Target string
}

// MoveQuery asks whether Elements may be moved by Delta, optionally into
// a new parent.
type MoveQuery struct {
	Elements []string
	Delta    model.Point
	Parent   string
}

// ResizeQuery asks whether Element may take Bounds.
type ResizeQuery struct {
	Element string
	Bounds  model.Rect
}

// ElementsQuery asks about an action on a set of elements (delete, update,
// color, waypoints, align, distribute, paste).
type ElementsQuery struct {
	Elements []string
	Parent   string
}

// ProcessOptions tunes the process diagram rules.
type ProcessOptions struct {
	AllowSelfLoops bool
	MinWidth       float64
	MinHeight      float64
	// Connections restricts the target types allowed per source type. A
	// source type without an entry may connect to any type.
	Connections map[string][]string
}

// DefaultProcessOptions returns the options used when nothing is configured.
func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{MinWidth: 20, MinHeight: 20}
}

// RegisterProcessRules installs the structural rules of process diagrams.
func RegisterProcessRules(e *Engine, opts ProcessOptions) {
	e.Add(ActionShapeCreate, eventbus.DefaultPriority, func(v model.View, ctx any) Verdict {
		q, ok := ctx.(*CreateQuery)
		if !ok {
			return Abstain
		}
		if !canContain(v, q.Parent) {
			return Deny
		}
		return Abstain
	})

	e.Add(ActionConnect, eventbus.DefaultPriority, func(v model.View, ctx any) Verdict {
		q, ok := ctx.(*ConnectQuery)
		if !ok {
			return Abstain
		}
		return canConnect(v, q, opts)
	})

	e.Add(ActionLabelCreate, eventbus.DefaultPriority, func(v model.View, ctx any) Verdict {
		q, ok := ctx.(*LabelQuery)
		if !ok {
			return Abstain
		}
		t, ok := v.Get(q.Target)
		if !ok || t.Kind == model.KindRoot || t.Kind == model.KindLabel {
			return Deny
		}
		return Abstain
	})

	e.Add(ActionElementsMove, eventbus.DefaultPriority, func(v model.View, ctx any) Verdict {
		q, ok := ctx.(*MoveQuery)
		if !ok {
			return Abstain
		}
		return canMove(v, q)
	})

	e.Add(ActionShapeResize, eventbus.DefaultPriority, func(v model.View, ctx any) Verdict {
		q, ok := ctx.(*ResizeQuery)
		if !ok {
			return Abstain
		}
		el, ok := v.Get(q.Element)
		if !ok || el.Kind != model.KindShape {
			return Deny
		}
		if q.Bounds.Width < opts.MinWidth || q.Bounds.Height < opts.MinHeight {
			return Deny
		}
		return Abstain
	})

	e.Add(ActionElementsDelete, eventbus.DefaultPriority, func(v model.View, ctx any) Verdict {
		q, ok := ctx.(*ElementsQuery)
		if !ok {
			return Abstain
		}
		for _, id := range q.Elements {
			if el, ok := v.Get(id); ok && el.Kind == model.KindRoot {
				return Deny
			}
		}
		return Abstain
	})

	e.Add(ActionPaste, eventbus.DefaultPriority, func(v model.View, ctx any) Verdict {
		q, ok := ctx.(*ElementsQuery)
		if !ok {
			return Abstain
		}
		if !canContain(v, q.Parent) {
			return Deny
		}
		return Abstain
	})
}

func canContain(v model.View, parent string) bool {
	p, ok := v.Get(parent)
	return ok && p.CanContain()
}

func canConnect(v model.View, q *ConnectQuery, opts ProcessOptions) Verdict {
	src, ok := v.Get(q.Source)
	if !ok {
		return Deny
	}
	dst, ok := v.Get(q.Target)
	if !ok {
		return Deny
	}
	for _, el := range []*model.Element{src, dst} {
		if el.Kind == model.KindRoot || el.Kind == model.KindLabel {
			return Deny
		}
	}
	if src.ID == dst.ID && !opts.AllowSelfLoops {
		return Deny
	}
	if src.Type == model.TypeEndEvent || dst.Type == model.TypeStartEvent {
		return Deny
	}
	if allowed, ok := opts.Connections[src.Type]; ok && !slices.Contains(allowed, dst.Type) {
		return Deny
	}
	return Allow
}

func canMove(v model.View, q *MoveQuery) Verdict {
	for _, id := range q.Elements {
		el, ok := v.Get(id)
		if !ok || el.Kind == model.KindRoot {
			return Deny
		}
	}
	if q.Parent == "" {
		return Abstain
	}
	if !canContain(v, q.Parent) {
		return Deny
	}
	for _, id := range q.Elements {
		if id == q.Parent || v.IsAncestor(id, q.Parent) {
			return Deny
		}
	}
	return Abstain
}
