package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmodel/pkg/editor"
	fio "github.com/matzehuels/flowmodel/pkg/io"
	"github.com/matzehuels/flowmodel/pkg/render"
	"github.com/matzehuels/flowmodel/pkg/render/nodelink"
)

// Output formats of the export command beyond the rendered ones.
const (
	formatDOT  = "dot"
	formatJSON = string(fio.FormatJSON)
	formatYAML = string(fio.FormatYAML)
)

// validFormats lists the formats export can write.
var validFormats = []string{formatJSON, formatYAML, formatDOT, render.FormatSVG, render.FormatPDF, render.FormatPNG}

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	output     string  // output file path; derived from the input when empty
	format     string  // output format; derived from the output extension when empty
	diagram    string  // diagram to export; the first one when empty
	detailed   bool    // include geometry and properties in node labels
	positioned bool    // keep diagram coordinates instead of a fresh layout
	scale      float64 // PNG scale factor
	noCache    bool    // bypass the render cache
}

// exportCommand creates the export command for converting documents.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{scale: 2}

	cmd := &cobra.Command{
		Use:   "export [document]",
		Short: "Convert a diagram to JSON, YAML, DOT, SVG, PDF or PNG",
		Long: `Export a diagram of a document.

The format follows the output file extension unless --format is given.
Rendered formats go through Graphviz; PDF and PNG also need rsvg-convert.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(opts.format, opts.output)
			if err != nil {
				return err
			}
			opts.format = format
			if opts.output == "" {
				opts.output = defaultOutput(args[0], format)
			}
			return c.runExport(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input name with the format extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: "+strings.Join(validFormats, ", "))
	cmd.Flags().StringVarP(&opts.diagram, "diagram", "d", "", "diagram id (default: first diagram)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show geometry and properties in rendered labels")
	cmd.Flags().BoolVar(&opts.positioned, "positioned", false, "render at diagram coordinates")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the render cache")

	return cmd
}

// resolveFormat validates an explicit format or derives one from the
// output path. SVG is the default.
func resolveFormat(format, output string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
		if format == "yml" {
			format = formatYAML
		}
		if format == "" {
			format = render.FormatSVG
		}
	}
	if !slices.Contains(validFormats, format) {
		return "", fmt.Errorf("invalid format: %s (must be one of %s)", format, strings.Join(validFormats, ", "))
	}
	return format, nil
}

// defaultOutput replaces the input extension with the format's.
func defaultOutput(input, format string) string {
	if name, ok := storeName(input); ok {
		input = name
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
}

func (c *CLI) runExport(ctx context.Context, input string, opts exportOpts) error {
	done := timed(log.FromContext(ctx))

	doc, err := c.openDocument(ctx, input)
	if err != nil {
		return err
	}
	ed, warnings, err := c.newEditor(doc)
	if err != nil {
		return err
	}
	if opts.diagram != "" && opts.diagram != ed.Diagram() {
		if warnings, err = ed.Open(opts.diagram); err != nil {
			return err
		}
	}
	for _, w := range warnings {
		printWarning("%s", w)
	}

	data, err := c.exportData(ctx, ed, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	done("exported", "diagram", ed.Diagram(), "format", opts.format)
	printSuccess("Exported %s (%s)", ed.Diagram(), statsOf(ed.Registry()))
	printFile(opts.output)
	return nil
}

func (c *CLI) exportData(ctx context.Context, ed *editor.Editor, opts exportOpts) ([]byte, error) {
	dotOpts := nodelink.Options{Detailed: opts.detailed, Positioned: opts.positioned}
	switch opts.format {
	case formatJSON, formatYAML:
		return fio.Marshal(ed.Export(), fio.Format(opts.format))
	case formatDOT:
		return []byte(nodelink.ToDOT(ed.Registry(), dotOpts)), nil
	}

	r, closeCache := c.newRenderer(ctx, opts.noCache)
	defer closeCache()
	var data []byte
	err := newSpinner(ctx, "Rendering "+opts.format+"...").run("Rendered "+opts.format, func() error {
		var err error
		data, err = r.Render(ctx, ed.Registry(), dotOpts, opts.format, opts.scale)
		return err
	})
	return data, err
}
