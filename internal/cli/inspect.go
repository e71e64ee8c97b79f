package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmodel/pkg/editor"
)

type inspectOpts struct {
	diagram string
	find    string
	element string
}

// inspectCommand creates the inspect command for browsing a document.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect [document]",
		Short: "Show the diagrams and elements of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.diagram, "diagram", "d", "", "diagram id (default: first diagram)")
	cmd.Flags().StringVar(&opts.find, "find", "", "list elements matching an id or name")
	cmd.Flags().StringVarP(&opts.element, "element", "e", "", "show one element and its connections")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, input string, opts inspectOpts) error {
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

	switch {
	case opts.element != "":
		return inspectElement(ed, opts.element)
	case opts.find != "":
		return inspectFind(ed, opts.find)
	}

	fmt.Println(StyleTitle.Render(nameOr(doc.Name, input)))
	for _, dg := range doc.Diagrams {
		marker := " "
		if dg.ID == ed.Diagram() {
			marker = StyleHighlight.Render(iconInfo)
		}
		fmt.Printf("%s %s %s\n", marker, dg.ID, StyleDim.Render(nameOr(dg.Name, "")))
	}
	fmt.Println()
	printElements(os.Stdout, ed.Registry())
	printStats(statsOf(ed.Registry()))
	return nil
}

func inspectElement(ed *editor.Editor, id string) error {
	reg := ed.Registry()
	el, err := reg.MustGet(id)
	if err != nil {
		return err
	}
	printKeyValue("id", el.ID)
	printKeyValue("type", el.Type)
	printKeyValue("kind", el.Kind.String())
	printKeyValue("parent", nameOr(el.Parent, "-"))
	printKeyValue("geometry", describeGeometry(el))
	if el.Color.Fill != "" || el.Color.Stroke != "" {
		printKeyValue("color", el.Color.Fill+" / "+el.Color.Stroke)
	}
	for k, v := range el.Props {
		printKeyValue(k, fmt.Sprint(v))
	}
	for _, conn := range reg.Incoming(id) {
		printDetail("%s %s from %s", iconArrow, conn.ID, conn.Source)
	}
	for _, conn := range reg.Outgoing(id) {
		printDetail("%s %s to %s", iconArrow, conn.ID, conn.Target)
	}
	return nil
}

func inspectFind(ed *editor.Editor, query string) error {
	search, err := editor.Service[*editor.Search](ed, editor.ServiceSearch)
	if err != nil {
		return err
	}
	matches := search.Find(query)
	if len(matches) == 0 {
		printInfo("No elements match %q", query)
		return nil
	}
	rows := make([][]string, len(matches))
	for i, m := range matches {
		rows[i] = []string{m.Element.ID, m.Element.Type, m.Element.Name(), strconv.Itoa(m.Distance)}
	}
	fmt.Println(renderTable([]string{"ID", "Type", "Name", "Distance"}, rows))
	return nil
}
