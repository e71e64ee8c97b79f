package modeling

import (
	"slices"

	"github.com/matzehuels/flowmodel/pkg/model"
)

type createConnectionHandler struct{ *env }

func (h createConnectionHandler) Execute(ctx any) ([]string, error) {
	c := ctx.(*CreateConnectionContext)
	conn := c.Connection
	conn.Source, conn.Target = c.Source, c.Target
	if len(conn.Waypoints) == 0 {
		src, err := h.reg.MustGet(c.Source)
		if err != nil {
			return nil, err
		}
		dst, err := h.reg.MustGet(c.Target)
		if err != nil {
			return nil, err
		}
		conn.Waypoints = connectionPoints(src, dst)
	}
	if err := h.addElement(conn, c.Parent, c.Index); err != nil {
		return nil, err
	}
	return []string{conn.ID, c.Source, c.Target}, nil
}

func (h createConnectionHandler) Revert(ctx any) ([]string, error) {
	c := ctx.(*CreateConnectionContext)
	removals, err := h.removeElement(c.Connection.ID)
	return append(removedIDs(removals), c.Source, c.Target), err
}

type deleteConnectionHandler struct{ *env }

func (h deleteConnectionHandler) PreExecute(ctx any) error {
	c := ctx.(*DeleteConnectionContext)
	el, err := h.reg.MustGet(c.ID)
	if err != nil {
		return err
	}
	return deleteAll(h.env, slices.Clone(el.Labels))
}

func (h deleteConnectionHandler) Execute(ctx any) ([]string, error) {
	c := ctx.(*DeleteConnectionContext)
	el, err := h.reg.MustGet(c.ID)
	if err != nil {
		return nil, err
	}
	source, target := el.Source, el.Target
	removals, err := h.removeElement(c.ID)
	if err != nil {
		return nil, err
	}
	c.removals = removals
	return append(removedIDs(removals), source, target), nil
}

func (h deleteConnectionHandler) Revert(ctx any) ([]string, error) {
	c := ctx.(*DeleteConnectionContext)
	return h.restore(c.removals)
}

type moveConnectionHandler struct{ *env }

func (h moveConnectionHandler) Execute(ctx any) ([]string, error) {
	c := ctx.(*MoveConnectionContext)
	return h.shift(c.ID, c.Delta)
}

func (h moveConnectionHandler) Revert(ctx any) ([]string, error) {
	c := ctx.(*MoveConnectionContext)
	return h.shift(c.ID, model.Point{X: -c.Delta.X, Y: -c.Delta.Y})
}

func (h moveConnectionHandler) shift(id string, d model.Point) ([]string, error) {
	el, err := h.reg.MustGet(id)
	if err != nil {
		return nil, err
	}
	el.Waypoints = translate(el.Waypoints, d)
	return []string{id}, nil
}

type updateWaypointsHandler struct{ *env }

func (h updateWaypointsHandler) Execute(ctx any) ([]string, error) {
	c := ctx.(*UpdateWaypointsContext)
	el, err := h.reg.MustGet(c.ID)
	if err != nil {
		return nil, err
	}
	c.old = el.Waypoints
	el.Waypoints = slices.Clone(c.Waypoints)
	return []string{c.ID}, nil
}

func (h updateWaypointsHandler) Revert(ctx any) ([]string, error) {
	c := ctx.(*UpdateWaypointsContext)
	el, err := h.reg.MustGet(c.ID)
	if err != nil {
		return nil, err
	}
	el.Waypoints = c.old
	return []string{c.ID}, nil
}
