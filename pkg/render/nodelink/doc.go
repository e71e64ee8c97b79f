// Package nodelink renders diagrams as Graphviz node-link drawings.
//
// # Overview
//
// [ToDOT] converts any [model.View] to DOT source: tasks become rounded
// boxes, events circles, gateways diamonds, and shapes with children become
// clusters. Label elements are attached to their targets. [RenderSVG] lays
// the graph out in-process.
//
//	dot := nodelink.ToDOT(reg, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: node labels include type, bounds and properties
//   - Positioned: shapes keep their diagram coordinates (neato layout)
//
// # Caching
//
// A [Renderer] caches artifacts in a [cache.Cache], keyed by the hash of the
// DOT source and the output options, and reports hits and misses to the
// observability cache hooks.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
//
// [model.View]: github.com/matzehuels/flowmodel/pkg/model.View
// [cache.Cache]: github.com/matzehuels/flowmodel/pkg/cache.Cache
package nodelink
