package cli

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmodel/pkg/script"
)

type applyOpts struct {
	output  string
	diagram string
	atomic  bool
	dryRun  bool
}

// applyCommand creates the apply command for running TOML edit scripts.
func (c *CLI) applyCommand() *cobra.Command {
	var opts applyOpts

	cmd := &cobra.Command{
		Use:   "apply [document] [script.toml]",
		Short: "Apply a TOML edit script to a document",
		Long: `Apply the steps of a TOML edit script to a diagram.

Each step names a modeling operation (createShape, connect, move, remove,
update, color, waypoints, align, distribute, undo, redo, action). The result
is written back to the document unless --output or --dry-run is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runApply(cmd.Context(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the result here instead of the input")
	cmd.Flags().StringVarP(&opts.diagram, "diagram", "d", "", "diagram id (default: first diagram)")
	cmd.Flags().BoolVar(&opts.atomic, "atomic", false, "undo all steps when one fails")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "apply without writing the result")

	return cmd
}

func (c *CLI) runApply(ctx context.Context, input, scriptPath string, opts applyOpts) error {
	logger := log.FromContext(ctx)
	done := timed(logger)

	s, err := script.Load(scriptPath)
	if err != nil {
		return err
	}
	doc, err := c.openDocument(ctx, input)
	if err != nil {
		return err
	}
	ed, _, err := c.newEditor(doc)
	if err != nil {
		return err
	}
	if opts.diagram != "" && opts.diagram != ed.Diagram() {
		if _, err := ed.Open(opts.diagram); err != nil {
			return err
		}
	}

	res, err := script.Apply(ed, s, script.Options{Atomic: opts.atomic})
	if err != nil {
		var stepErr *script.StepError
		if errors.As(err, &stepErr) {
			printError("Step %d (%s) failed", stepErr.Index+1, stepErr.Op)
			if opts.atomic {
				printDetail("All steps were undone")
			} else {
				printDetail("%d step(s) applied before the failure", res.Applied)
			}
		}
		if opts.atomic || opts.dryRun {
			return err
		}
		logger.Warn("writing partial result", "applied", res.Applied)
	}
	done("applied script", "steps", res.Applied)
	for _, id := range res.Created {
		printDetail("created %s", id)
	}

	if opts.dryRun {
		printInfo("Dry run, %s left unchanged", input)
		return nil
	}
	out := opts.output
	if out == "" {
		out = input
	}
	if werr := c.saveDocument(ctx, out, ed.Export()); werr != nil {
		return werr
	}
	printSuccess("Applied %d/%d steps of %s", res.Applied, len(s.Steps), nameOr(s.Name, scriptPath))
	printFile(out)
	return err
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
