package modeling

import (
	"slices"

	"github.com/matzehuels/flowmodel/pkg/model"
)

// connectionPoints returns straight waypoints between the centers of the
// two endpoints.
func connectionPoints(src, dst *model.Element) []model.Point {
	return []model.Point{src.Center(), dst.Center()}
}

// dock returns waypoints whose first and last points sit on the current
// centers of the connection's endpoints. Bendpoints are kept.
func dock(reg *model.Registry, conn *model.Element) []model.Point {
	src, okS := reg.Get(conn.Source)
	dst, okT := reg.Get(conn.Target)
	if !okS || !okT {
		return slices.Clone(conn.Waypoints)
	}
	if len(conn.Waypoints) < 2 {
		return connectionPoints(src, dst)
	}
	wps := slices.Clone(conn.Waypoints)
	wps[0] = src.Center()
	wps[len(wps)-1] = dst.Center()
	return wps
}

func translate(points []model.Point, d model.Point) []model.Point {
	out := make([]model.Point, len(points))
	for i, p := range points {
		out[i] = p.Add(d)
	}
	return out
}

// commonParent returns the closest element containing both a and b.
func commonParent(reg *model.Registry, a, b *model.Element) string {
	ancestors := make(map[string]bool)
	for id := a.Parent; id != ""; {
		ancestors[id] = true
		p, ok := reg.Get(id)
		if !ok {
			break
		}
		id = p.Parent
	}
	for id := b.Parent; id != ""; {
		if ancestors[id] {
			return id
		}
		p, ok := reg.Get(id)
		if !ok {
			break
		}
		id = p.Parent
	}
	return a.Parent
}

// closure returns ids plus all their descendants, in parent-first order.
func closure(reg *model.Registry, ids []string) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	var visit func(id string)
	visit = func(id string) {
		if seen[id] {
			return
		}
		el, ok := reg.Get(id)
		if !ok {
			return
		}
		seen[id] = true
		out = append(out, id)
		for _, c := range el.Children {
			visit(c)
		}
	}
	for _, id := range ids {
		visit(id)
	}
	return out
}
