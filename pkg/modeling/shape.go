package modeling

import (
	"github.com/matzehuels/flowmodel/pkg/command"
	"github.com/matzehuels/flowmodel/pkg/errors"
	"github.com/matzehuels/flowmodel/pkg/eventbus"
	"github.com/matzehuels/flowmodel/pkg/model"
)

// env is shared by all handlers of one editor.
type env struct {
	reg   *model.Registry
	stack *command.Stack
	bus   *eventbus.Bus
}

// addElement registers el and announces it. If a listener fails the
// registration is undone so the handler leaves no partial state.
func (e *env) addElement(el *model.Element, parent string, index int) error {
	if err := e.reg.Add(el, parent, index); err != nil {
		return err
	}
	if err := e.added(el); err != nil {
		_, _ = e.reg.Remove(el.ID)
		return err
	}
	return nil
}

// removeElement deregisters id and announces every removal.
func (e *env) removeElement(id string) ([]model.Removal, error) {
	removals, err := e.reg.Remove(id)
	if err != nil {
		return nil, err
	}
	if err := e.removed(removals); err != nil {
		_ = e.reg.Restore(removals)
		return nil, err
	}
	return removals, nil
}

func (e *env) restore(removals []model.Removal) ([]string, error) {
	if err := e.reg.Restore(removals); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(removals))
	for i := len(removals) - 1; i >= 0; i-- {
		el := removals[i].Element
		ids = append(ids, el.ID)
		if err := e.added(el); err != nil {
			return ids, err
		}
	}
	return ids, nil
}

func removedIDs(removals []model.Removal) []string {
	ids := make([]string, len(removals))
	for i, rm := range removals {
		ids[i] = rm.Element.ID
	}
	return ids
}

type createShapeHandler struct{ *env }

func (h createShapeHandler) Execute(ctx any) ([]string, error) {
	c := ctx.(*CreateShapeContext)
	s := c.Shape
	s.X = c.Position.X - s.Width/2
	s.Y = c.Position.Y - s.Height/2
	if err := h.addElement(s, c.Parent, c.Index); err != nil {
		return nil, err
	}
	return []string{s.ID}, nil
}

func (h createShapeHandler) Revert(ctx any) ([]string, error) {
	c := ctx.(*CreateShapeContext)
	removals, err := h.removeElement(c.Shape.ID)
	return removedIDs(removals), err
}

type deleteShapeHandler struct{ *env }

// PreExecute deletes dependents through their own commands so each of
// them is reverted individually.
func (h deleteShapeHandler) PreExecute(ctx any) error {
	c := ctx.(*DeleteShapeContext)
	el, err := h.reg.MustGet(c.ID)
	if err != nil {
		return err
	}
	if h.reg.PolicyFor(el.Type) == model.PolicyRestrict && h.reg.HasDependents(c.ID) {
		return errors.New(errors.ErrCodeDependentsExist, "%s %q still has dependents", el.Type, c.ID).WithElement(c.ID)
	}
	for _, l := range append([]string(nil), el.Labels...) {
		if err := h.stack.Execute(CmdShapeDelete, &DeleteShapeContext{ID: l}); err != nil {
			return err
		}
	}
	for _, conn := range append(h.reg.Incoming(c.ID), h.reg.Outgoing(c.ID)...) {
		if _, ok := h.reg.Get(conn.ID); !ok {
			continue
		}
		if err := h.stack.Execute(CmdConnectionDelete, &DeleteConnectionContext{ID: conn.ID}); err != nil {
			return err
		}
	}
	return deleteAll(h.env, append([]string(nil), el.Children...))
}

func (h deleteShapeHandler) Execute(ctx any) ([]string, error) {
	c := ctx.(*DeleteShapeContext)
	removals, err := h.removeElement(c.ID)
	if err != nil {
		return nil, err
	}
	c.removals = removals
	return removedIDs(removals), nil
}

func (h deleteShapeHandler) Revert(ctx any) ([]string, error) {
	c := ctx.(*DeleteShapeContext)
	return h.restore(c.removals)
}

// deleteAll deletes each still registered element with the command
// matching its kind.
func deleteAll(e *env, ids []string) error {
	for _, id := range ids {
		el, ok := e.reg.Get(id)
		if !ok {
			continue
		}
		var err error
		if el.Kind == model.KindConnection {
			err = e.stack.Execute(CmdConnectionDelete, &DeleteConnectionContext{ID: id})
		} else {
			err = e.stack.Execute(CmdShapeDelete, &DeleteShapeContext{ID: id})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type moveShapeHandler struct{ *env }

func (h moveShapeHandler) Execute(ctx any) ([]string, error) {
	c := ctx.(*MoveShapeContext)
	el, err := h.reg.MustGet(c.ID)
	if err != nil {
		return nil, err
	}
	c.reparent = c.NewParent != "" && c.NewParent != el.Parent
	if c.reparent {
		oldParent, oldIndex, err := h.reg.Reparent(c.ID, c.NewParent, c.NewIndex)
		if err != nil {
			return nil, err
		}
		c.oldParent, c.oldIndex = oldParent, oldIndex
	}
	el.X += c.Delta.X
	el.Y += c.Delta.Y
	return []string{c.ID}, nil
}

// PostExecute lets labels follow and re-docks attached connections.
func (h moveShapeHandler) PostExecute(ctx any) error {
	c := ctx.(*MoveShapeContext)
	if !c.Layout {
		return nil
	}
	el, err := h.reg.MustGet(c.ID)
	if err != nil {
		return err
	}
	for _, l := range el.Labels {
		if err := h.stack.Execute(CmdShapeMove, &MoveShapeContext{ID: l, Delta: c.Delta}); err != nil {
			return err
		}
	}
	return redock(h.env, c.ID)
}

func (h moveShapeHandler) Revert(ctx any) ([]string, error) {
	c := ctx.(*MoveShapeContext)
	el, err := h.reg.MustGet(c.ID)
	if err != nil {
		return nil, err
	}
	if c.reparent {
		if _, _, err := h.reg.Reparent(c.ID, c.oldParent, c.oldIndex); err != nil {
			return nil, err
		}
	}
	el.X -= c.Delta.X
	el.Y -= c.Delta.Y
	return []string{c.ID}, nil
}

// redock updates the end waypoints of every connection attached to id.
func redock(e *env, id string) error {
	for _, conn := range append(e.reg.Incoming(id), e.reg.Outgoing(id)...) {
		ctx := &UpdateWaypointsContext{ID: conn.ID, Waypoints: dock(e.reg, conn)}
		if err := e.stack.Execute(CmdUpdateWaypoints, ctx); err != nil {
			return err
		}
	}
	return nil
}

type resizeShapeHandler struct{ *env }

func (h resizeShapeHandler) Execute(ctx any) ([]string, error) {
	c := ctx.(*ResizeShapeContext)
	el, err := h.reg.MustGet(c.ID)
	if err != nil {
		return nil, err
	}
	c.old = el.Bounds()
	el.X, el.Y, el.Width, el.Height = c.Bounds.X, c.Bounds.Y, c.Bounds.Width, c.Bounds.Height
	return []string{c.ID}, nil
}

func (h resizeShapeHandler) PostExecute(ctx any) error {
	return redock(h.env, ctx.(*ResizeShapeContext).ID)
}

func (h resizeShapeHandler) Revert(ctx any) ([]string, error) {
	c := ctx.(*ResizeShapeContext)
	el, err := h.reg.MustGet(c.ID)
	if err != nil {
		return nil, err
	}
	el.X, el.Y, el.Width, el.Height = c.old.X, c.old.Y, c.old.Width, c.old.Height
	return []string{c.ID}, nil
}

type createLabelHandler struct{ *env }

func (h createLabelHandler) Execute(ctx any) ([]string, error) {
	c := ctx.(*CreateLabelContext)
	if err := h.addElement(c.Label, c.Parent, -1); err != nil {
		return nil, err
	}
	return []string{c.Label.ID, c.Label.LabelTarget}, nil
}

func (h createLabelHandler) Revert(ctx any) ([]string, error) {
	c := ctx.(*CreateLabelContext)
	removals, err := h.removeElement(c.Label.ID)
	return append(removedIDs(removals), c.Label.LabelTarget), err
}
