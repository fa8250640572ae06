package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dicomschema/internal/schema"
	"dicomschema/internal/store"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the schema library",
	}

	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	libraryCmd.AddCommand(newLibraryShowCommand(ctx))
	libraryCmd.AddCommand(newLibrarySaveCommand(ctx))
	libraryCmd.AddCommand(newLibraryDeleteCommand(ctx))
	return libraryCmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List schemas stored in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			schemas, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(schemas) == 0 {
				fmt.Fprintln(out, "Library is empty")
				return nil
			}
			rows := make([][]string, 0, len(schemas))
			for _, saved := range schemas {
				rows = append(rows, []string{
					strconv.FormatInt(saved.ID, 10),
					saved.Name,
					saved.Version,
					saved.Description,
					saved.UpdatedAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "ID", right: true},
				{header: "Name"},
				{header: "Version"},
				{header: "Description", maxWidth: 48},
				{header: "Updated"},
			}, rows))
			return nil
		},
	}
}

func newLibraryShowCommand(ctx *commandContext) *cobra.Command {
	var documentOnly bool

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a stored schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			saved, err := st.GetByName(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no schema named %q in the library", args[0])
				}
				return err
			}

			out := cmd.OutOrStdout()
			if !documentOnly {
				fmt.Fprintf(out, "Name:        %s\n", saved.Name)
				if saved.Description != "" {
					fmt.Fprintf(out, "Description: %s\n", saved.Description)
				}
				fmt.Fprintf(out, "Version:     %s\n", saved.Version)
				if len(saved.Authors) > 0 {
					fmt.Fprintf(out, "Authors:     %s\n", strings.Join(saved.Authors, ", "))
				}
				if len(saved.Tags) > 0 {
					fmt.Fprintf(out, "Tags:        %s\n", strings.Join(saved.Tags, ", "))
				}
				fmt.Fprintf(out, "Updated:     %s\n\n", saved.UpdatedAt.Format("2006-01-02 15:04:05"))
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, saved.Document, "", "  "); err != nil {
				return fmt.Errorf("format schema document: %w", err)
			}
			fmt.Fprintln(out, pretty.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&documentOnly, "document", false, "Print only the schema document JSON")
	return cmd
}

func newLibrarySaveCommand(ctx *commandContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Import a schema document file into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importDocumentIntoLibrary(cmd, ctx, args[0], name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Store under this name instead of the document name")
	return cmd
}

// importDocumentIntoLibrary parses, validates, and stores a schema document
// file. Shared by `library save` and `schema import`.
func importDocumentIntoLibrary(cmd *cobra.Command, ctx *commandContext, path, nameOverride string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema document: %w", err)
	}
	doc, err := schema.ParseDocument(content)
	if err != nil {
		return fmt.Errorf("parse schema document: %w", err)
	}
	meta := doc.Metadata()
	name := nameOverride
	if name == "" {
		name = meta.Name
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("the document has no name; pass one with --name")
	}

	st, err := ctx.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.Save(cmd.Context(), store.SavedSchema{
		Name:        name,
		Description: meta.Description,
		Version:     meta.Version,
		Authors:     meta.Authors,
		Tags:        meta.Tags,
		Document:    content,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved schema %q to the library (id %d)\n", name, id)
	return nil
}

func newLibraryDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a schema from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no schema named %q in the library", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted schema %q\n", args[0])
			return nil
		},
	}
}
