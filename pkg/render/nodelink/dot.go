package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowmodel/pkg/model"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes geometry and properties in node labels.
	// When false, only the name (or the id) is shown.
	Detailed bool

	// Positioned pins every shape at its diagram coordinates and lets
	// Graphviz route the edges. When false, dot computes a left-to-right
	// layout.
	Positioned bool
}

// pointsPerInch converts diagram units to Graphviz positions.
const pointsPerInch = 72.0

// ToDOT converts a diagram to Graphviz DOT format.
// [RenderSVG] lays the result out.
//
// Shapes with children become clusters, labels are attached to their
// targets as external labels, and associations are drawn dotted.
func ToDOT(v model.View, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.Positioned {
		buf.WriteString("  layout=neato;\n")
		buf.WriteString("  splines=true;\n")
	} else {
		buf.WriteString("  rankdir=LR;\n")
		buf.WriteString("  ranksep=0.5;\n")
		buf.WriteString("  nodesep=0.3;\n")
	}
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	labels := labelTexts(v)
	var root *model.Element
	for el := range v.All() {
		if el.Kind == model.KindRoot {
			root = el
			break
		}
	}
	if root != nil {
		writeChildren(&buf, v, root, labels, opts, "  ")
	}

	buf.WriteString("\n")
	for el := range v.All() {
		if el.Kind != model.KindConnection {
			continue
		}
		attrs := edgeAttrs(el, labels[el.ID])
		fmt.Fprintf(&buf, "  %q -> %q", el.Source, el.Target)
		if len(attrs) > 0 {
			fmt.Fprintf(&buf, " [%s]", strings.Join(attrs, ", "))
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeChildren(buf *bytes.Buffer, v model.View, parent *model.Element, labels map[string]string, opts Options, indent string) {
	for _, id := range parent.Children {
		el, ok := v.Get(id)
		if !ok || el.Kind != model.KindShape {
			continue
		}
		if !hasShapeChildren(v, el) {
			fmt.Fprintf(buf, "%s%q [%s];\n", indent, el.ID, strings.Join(nodeAttrs(el, labels[el.ID], opts), ", "))
			continue
		}
		fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+el.ID)
		fmt.Fprintf(buf, "%s  label=%q;\n", indent, fmtLabel(el, opts.Detailed))
		buf.WriteString(indent + "  style=\"rounded\";\n")
		if el.Color.Stroke != "" {
			fmt.Fprintf(buf, "%s  color=%q;\n", indent, el.Color.Stroke)
		}
		// Edges to the container attach to an invisible anchor node.
		fmt.Fprintf(buf, "%s  %q [shape=point, style=invis];\n", indent, el.ID)
		writeChildren(buf, v, el, labels, opts, indent+"  ")
		fmt.Fprintf(buf, "%s}\n", indent)
	}
}

func hasShapeChildren(v model.View, el *model.Element) bool {
	for _, id := range el.Children {
		if c, ok := v.Get(id); ok && c.Kind == model.KindShape {
			return true
		}
	}
	return false
}

// labelTexts maps each labelled element to the joined text of its labels.
func labelTexts(v model.View) map[string]string {
	out := make(map[string]string)
	for el := range v.All() {
		if el.Kind != model.KindLabel {
			continue
		}
		text, _ := el.Props["text"].(string)
		if text == "" {
			continue
		}
		if prev := out[el.LabelTarget]; prev != "" {
			text = prev + "\n" + text
		}
		out[el.LabelTarget] = text
	}
	return out
}

func fmtLabel(el *model.Element, detailed bool) string {
	name := el.Name()
	if name == "" {
		name = el.ID
	}
	if !detailed {
		return name
	}

	parts := []string{
		fmt.Sprintf("type: %s", el.Type),
		fmt.Sprintf("bounds: %g,%g %gx%g", el.X, el.Y, el.Width, el.Height),
	}
	for _, k := range slices.Sorted(maps.Keys(el.Props)) {
		if k == "name" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, el.Props[k]))
	}
	return name + "\n" + strings.Join(parts, "\n")
}

func nodeAttrs(el *model.Element, xlabel string, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(el, opts.Detailed))}
	switch el.Type {
	case model.TypeStartEvent:
		attrs = append(attrs, "shape=circle", "style=filled")
	case model.TypeEndEvent:
		attrs = append(attrs, "shape=doublecircle", "style=filled")
	case model.TypeGateway:
		attrs = append(attrs, "shape=diamond", "style=filled")
	case model.TypeTextAnnotation:
		attrs = append(attrs, "shape=note", "style=filled", "fillcolor=lightyellow")
	}
	if el.Color.Fill != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", el.Color.Fill))
	}
	if el.Color.Stroke != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", el.Color.Stroke))
	}
	if xlabel != "" {
		attrs = append(attrs, fmt.Sprintf("xlabel=%q", xlabel))
	}
	if opts.Positioned {
		c := el.Center()
		// Graphviz grows y upwards.
		attrs = append(attrs, fmt.Sprintf("pos=\"%.2f,%.2f!\"", c.X/pointsPerInch, -c.Y/pointsPerInch))
	}
	return attrs
}

func edgeAttrs(el *model.Element, label string) []string {
	var attrs []string
	if el.Type == model.TypeAssociation {
		attrs = append(attrs, "style=dotted", "arrowhead=none")
	}
	if label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", label))
	}
	if el.Color.Stroke != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", el.Color.Stroke))
	}
	return attrs
}

// RenderSVG lays out a DOT graph with Graphviz and returns the SVG. The
// root element is rewritten to carry explicit pixel width and height.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	rootTagRe = regexp.MustCompile(`<svg\b[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([^"]*)"`)
)

// normalizeViewBox replaces the attributes of the root <svg> tag with a
// viewBox at the origin and pixel width and height of the same size.
// Graphviz sizes its output in points, which browsers scale unevenly.
func normalizeViewBox(svg []byte) []byte {
	loc := rootTagRe.FindIndex(svg)
	if loc == nil {
		return svg
	}
	m := viewBoxRe.FindSubmatch(svg[loc[0]:loc[1]])
	if m == nil {
		return svg
	}
	f := strings.Fields(string(m[1]))
	if len(f) != 4 {
		return svg
	}
	w, errW := strconv.ParseFloat(f[2], 64)
	h, errH := strconv.ParseFloat(f[3], 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return svg
	}

	var out bytes.Buffer
	out.Write(svg[:loc[0]])
	fmt.Fprintf(&out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	out.Write(svg[loc[1]:])
	return out.Bytes()
}
