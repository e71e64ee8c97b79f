package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// validateCommand creates the validate command. It imports every diagram
// of a document and fails when any element had to be skipped.
func (c *CLI) validateCommand() *cobra.Command {
	var lenient bool

	cmd := &cobra.Command{
		Use:   "validate [document]",
		Short: "Check that every diagram of a document imports cleanly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args[0], lenient)
		},
	}
	cmd.Flags().BoolVar(&lenient, "lenient", false, "report skipped elements without failing")
	return cmd
}

func (c *CLI) runValidate(ctx context.Context, input string, lenient bool) error {
	doc, err := c.openDocument(ctx, input)
	if err != nil {
		return err
	}
	ed, warnings, err := c.newEditor(doc)
	if err != nil {
		return err
	}

	total := 0
	for i, dg := range doc.Diagrams {
		if i > 0 {
			if warnings, err = ed.Open(dg.ID); err != nil {
				return fmt.Errorf("diagram %s: %w", dg.ID, err)
			}
		}
		if len(warnings) == 0 {
			printSuccess("%s", dg.ID)
			printStats(statsOf(ed.Registry()))
			continue
		}
		printWarning("%s: %d skipped", dg.ID, len(warnings))
		for _, w := range warnings {
			printDetail("%s", w)
		}
		total += len(warnings)
	}

	if total > 0 && !lenient {
		return fmt.Errorf("%d element(s) could not be imported", total)
	}
	return nil
}
