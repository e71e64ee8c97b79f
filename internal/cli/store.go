package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	fio "github.com/matzehuels/flowmodel/pkg/io"
	"github.com/matzehuels/flowmodel/pkg/store"
)

// storeCommand creates the document store management command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage documents in the configured store",
		Long: `Manage documents in the configured store (file, sqlite or mongo).

Other commands read and write stored documents when given store:<name>
instead of a file path.`,
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

// withStore opens the store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(context.Context, store.Store) error) error {
	s, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return fn(ctx, s)
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, s store.Store) error {
				infos, err := s.List(ctx)
				if err != nil {
					return err
				}
				if len(infos) == 0 {
					printInfo("No stored documents")
					return nil
				}
				rows := make([][]string, len(infos))
				for i, info := range infos {
					rows[i] = []string{info.Name, strconv.Itoa(info.Diagrams), info.UpdatedAt.Local().Format(time.DateTime)}
				}
				fmt.Println(renderTable([]string{"Name", "Diagrams", "Updated"}, rows))
				return nil
			})
		},
	}
}

func (c *CLI) storeGetCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get [name]",
		Short: "Write a stored document to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = args[0] + ".json"
			}
			return c.withStore(cmd.Context(), func(ctx context.Context, s store.Store) error {
				doc, err := s.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if err := fio.Export(doc, output); err != nil {
					return err
				}
				printSuccess("Fetched %s", args[0])
				printFile(output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <name>.json)")
	return cmd
}

func (c *CLI) storePutCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "put [document]",
		Short: "Store a document file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := fio.Import(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = nameOr(doc.Name, baseName(args[0]))
			}
			return c.withStore(cmd.Context(), func(ctx context.Context, s store.Store) error {
				if err := s.Put(ctx, name, doc); err != nil {
					return err
				}
				printSuccess("Stored %s (%d diagrams)", name, len(doc.Diagrams))
				printNextStep("Inspect it", appName+" inspect store:"+name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "document name (default: the document's name or file name)")
	return cmd
}

// baseName returns the file name of path without its extension.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [name]",
		Aliases: []string{"rm"},
		Short:   "Delete a stored document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, s store.Store) error {
				if err := s.Delete(ctx, args[0]); err != nil {
					return err
				}
				printSuccess("Deleted %s", args[0])
				return nil
			})
		},
	}
}
