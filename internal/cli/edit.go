package cli

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// editCommand creates the edit command for the terminal editor.
func (c *CLI) editCommand() *cobra.Command {
	var (
		diagram string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "edit [document]",
		Short: "Edit a diagram in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = args[0]
			}
			return c.runEdit(cmd.Context(), args[0], diagram, output)
		},
	}

	cmd.Flags().StringVarP(&diagram, "diagram", "d", "", "diagram id (default: first diagram)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "save to this file or store:<name> (default: the input)")

	return cmd
}

func (c *CLI) runEdit(ctx context.Context, input, diagram, output string) error {
	doc, err := c.openDocument(ctx, input)
	if err != nil {
		return err
	}
	ed, warnings, err := c.newEditor(doc)
	if err != nil {
		return err
	}
	if diagram != "" && diagram != ed.Diagram() {
		if warnings, err = ed.Open(diagram); err != nil {
			return err
		}
	}
	for _, w := range warnings {
		printWarning("%s", w)
	}

	// Editor logs would tear the alternate screen.
	c.Logger.SetOutput(io.Discard)
	defer c.Logger.SetOutput(c.logOut)

	m, err := NewEditModel(ed, func() error {
		return c.saveDocument(ctx, output, ed.Export())
	})
	if err != nil {
		return err
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(*EditModel); ok && fm.Dirty() {
		printWarning("Unsaved changes to %s were discarded", ed.Diagram())
	}
	return nil
}
