package modeling

import (
	"cmp"
	"slices"

	"github.com/matzehuels/flowmodel/pkg/model"
)

type moveElementsHandler struct{ *env }

// PreExecute moves the selection with one nested command per element:
// shapes and labels are translated, connections between two moved
// elements are translated as a whole and connections with a single moved
// end are re-docked.
func (h moveElementsHandler) PreExecute(ctx any) error {
	c := ctx.(*MoveElementsContext)
	ids := closure(h.reg, c.IDs)
	moved := make(map[string]bool, len(ids))
	for _, id := range ids {
		moved[id] = true
	}
	for _, id := range ids {
		el, _ := h.reg.Get(id)
		for _, l := range el.Labels {
			if !moved[l] {
				moved[l] = true
				ids = append(ids, l)
			}
		}
	}

	var conns []*model.Element
	for _, id := range ids {
		el, ok := h.reg.Get(id)
		if !ok {
			continue
		}
		if el.Kind == model.KindConnection {
			conns = append(conns, el)
			continue
		}
		mc := &MoveShapeContext{ID: id, Delta: c.Delta, NewIndex: -1}
		if c.NewParent != "" && el.Kind == model.KindShape && !moved[el.Parent] {
			mc.NewParent = c.NewParent
		}
		if err := h.stack.Execute(CmdShapeMove, mc); err != nil {
			return err
		}
	}

	for _, conn := range conns {
		if err := h.stack.Execute(CmdConnectionMove, &MoveConnectionContext{ID: conn.ID, Delta: c.Delta}); err != nil {
			return err
		}
	}

	seen := make(map[string]bool)
	for _, id := range ids {
		for _, conn := range append(h.reg.Incoming(id), h.reg.Outgoing(id)...) {
			if seen[conn.ID] || moved[conn.ID] {
				continue
			}
			seen[conn.ID] = true
			var err error
			if moved[conn.Source] && moved[conn.Target] {
				err = h.stack.Execute(CmdConnectionMove, &MoveConnectionContext{ID: conn.ID, Delta: c.Delta})
			} else {
				err = h.stack.Execute(CmdUpdateWaypoints, &UpdateWaypointsContext{ID: conn.ID, Waypoints: dock(h.reg, conn)})
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

type deleteElementsHandler struct{ *env }

func (h deleteElementsHandler) PreExecute(ctx any) error {
	c := ctx.(*DeleteElementsContext)
	return deleteAll(h.env, c.IDs)
}

type createElementsHandler struct{ *env }

// PreExecute creates shapes parent-first, then connections, then labels.
func (h createElementsHandler) PreExecute(ctx any) error {
	c := ctx.(*CreateElementsContext)
	inTree := make(map[string]bool, len(c.Elements))
	for _, el := range c.Elements {
		inTree[el.ID] = true
	}
	parentOf := func(el *model.Element) string {
		if inTree[el.Parent] {
			return el.Parent
		}
		return c.Parent
	}

	for _, el := range shapesParentFirst(c.Elements, inTree) {
		err := h.stack.Execute(CmdShapeCreate, &CreateShapeContext{
			Shape:    el,
			Position: el.Center(),
			Parent:   parentOf(el),
			Index:    -1,
		})
		if err != nil {
			return err
		}
	}
	for _, el := range c.Elements {
		if el.Kind != model.KindConnection {
			continue
		}
		err := h.stack.Execute(CmdConnectionCreate, &CreateConnectionContext{
			Source:     el.Source,
			Target:     el.Target,
			Connection: el,
			Parent:     parentOf(el),
			Index:      -1,
		})
		if err != nil {
			return err
		}
	}
	for _, el := range c.Elements {
		if el.Kind != model.KindLabel {
			continue
		}
		if err := h.stack.Execute(CmdLabelCreate, &CreateLabelContext{Label: el, Parent: parentOf(el)}); err != nil {
			return err
		}
	}
	return nil
}

// shapesParentFirst orders the shapes of els so that every shape follows
// its parent when the parent is part of els.
func shapesParentFirst(els []*model.Element, inTree map[string]bool) []*model.Element {
	byID := make(map[string]*model.Element, len(els))
	for _, el := range els {
		byID[el.ID] = el
	}
	var (
		out  []*model.Element
		done = make(map[string]bool)
	)
	var visit func(el *model.Element)
	visit = func(el *model.Element) {
		if done[el.ID] {
			return
		}
		done[el.ID] = true
		if p, ok := byID[el.Parent]; ok && inTree[el.Parent] && p.Kind == model.KindShape {
			visit(p)
		}
		out = append(out, el)
	}
	for _, el := range els {
		if el.Kind == model.KindShape {
			visit(el)
		}
	}
	return out
}

type alignElementsHandler struct{ *env }

func (h alignElementsHandler) PreExecute(ctx any) error {
	c := ctx.(*AlignElementsContext)
	shapes := h.shapes(c.IDs)
	if len(shapes) < 2 {
		return nil
	}
	bounds := shapes[0].Bounds()
	for _, s := range shapes[1:] {
		bounds = bounds.Union(s.Bounds())
	}
	for _, s := range shapes {
		var d model.Point
		switch c.Alignment {
		case AlignLeft:
			d.X = bounds.X - s.X
		case AlignRight:
			d.X = bounds.X + bounds.Width - (s.X + s.Width)
		case AlignCenter:
			d.X = bounds.Center().X - s.Center().X
		case AlignTop:
			d.Y = bounds.Y - s.Y
		case AlignBottom:
			d.Y = bounds.Y + bounds.Height - (s.Y + s.Height)
		case AlignMiddle:
			d.Y = bounds.Center().Y - s.Center().Y
		}
		if d == (model.Point{}) {
			continue
		}
		if err := h.stack.Execute(CmdShapeMove, &MoveShapeContext{ID: s.ID, Delta: d, NewIndex: -1, Layout: true}); err != nil {
			return err
		}
	}
	return nil
}

type distributeElementsHandler struct{ *env }

// PreExecute keeps the outermost shapes in place and spaces the others so
// that the gaps between neighbours are equal.
func (h distributeElementsHandler) PreExecute(ctx any) error {
	c := ctx.(*DistributeElementsContext)
	shapes := h.shapes(c.IDs)
	if len(shapes) < 3 {
		return nil
	}
	pos := func(el *model.Element) (float64, float64) {
		if c.Axis == AxisVertical {
			return el.Y, el.Height
		}
		return el.X, el.Width
	}
	slices.SortStableFunc(shapes, func(a, b *model.Element) int {
		pa, _ := pos(a)
		pb, _ := pos(b)
		return cmp.Compare(pa, pb)
	})

	first, _ := pos(shapes[0])
	lastPos, lastSize := pos(shapes[len(shapes)-1])
	var total float64
	for _, s := range shapes {
		_, size := pos(s)
		total += size
	}
	gap := (lastPos + lastSize - first - total) / float64(len(shapes)-1)

	next := first
	for _, s := range shapes {
		p, size := pos(s)
		var d model.Point
		if c.Axis == AxisVertical {
			d.Y = next - p
		} else {
			d.X = next - p
		}
		next += size + gap
		if d == (model.Point{}) {
			continue
		}
		if err := h.stack.Execute(CmdShapeMove, &MoveShapeContext{ID: s.ID, Delta: d, NewIndex: -1, Layout: true}); err != nil {
			return err
		}
	}
	return nil
}

func (e *env) shapes(ids []string) []*model.Element {
	var out []*model.Element
	for _, id := range ids {
		if el, ok := e.reg.Get(id); ok && el.Kind == model.KindShape {
			out = append(out, el)
		}
	}
	return out
}
