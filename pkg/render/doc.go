// Package render provides visual output for diagrams.
//
// # Overview
//
// The [nodelink] subpackage turns a diagram into Graphviz DOT and renders it
// in-process to SVG. This package holds the format conversion shared by all
// renderers.
//
// # Format Conversion
//
// [Convert] turns SVG into PDF or PNG with the external rsvg-convert tool
// (from librsvg). It returns [ErrNoConverter] when the tool is missing.
//
//	dot := nodelink.ToDOT(reg, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := render.Convert(ctx, svg, render.FormatPNG, 2)
//
// [nodelink]: github.com/matzehuels/flowmodel/pkg/render/nodelink
package render
