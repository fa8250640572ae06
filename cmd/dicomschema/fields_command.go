package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFieldsCommand(ctx *commandContext) *cobra.Command {
	fieldsCmd := &cobra.Command{
		Use:   "fields",
		Short: "DICOM field dictionary lookups",
	}

	fieldsCmd.AddCommand(newFieldsSearchCommand(ctx))
	fieldsCmd.AddCommand(newFieldsInfoCommand(ctx))
	return fieldsCmd
}

func newFieldsSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the DICOM field dictionary by name, keyword, or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.startEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			stderr := cmd.ErrOrStderr()
			if _, err := session.Initialize(cmd.Context(), progressPrinter(stderr)); err != nil {
				finishProgress(stderr)
				return err
			}
			finishProgress(stderr)

			defs, err := session.Bridge.SearchFields(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(defs) == 0 {
				fmt.Fprintf(out, "No fields match %q\n", args[0])
				return nil
			}
			rows := make([][]string, 0, len(defs))
			for _, def := range defs {
				rows = append(rows, []string{def.Tag, def.Name, def.Keyword, def.VR})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "Tag"},
				{header: "Name"},
				{header: "Keyword"},
				{header: "VR"},
			}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 25, "Maximum number of matches to show")
	return cmd
}

func newFieldsInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <tag-or-name>",
		Short: "Show the dictionary entry for one DICOM field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.startEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			stderr := cmd.ErrOrStderr()
			if _, err := session.Initialize(cmd.Context(), progressPrinter(stderr)); err != nil {
				finishProgress(stderr)
				return err
			}
			finishProgress(stderr)

			def, err := session.Bridge.GetFieldInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tag:         %s\n", def.Tag)
			fmt.Fprintf(out, "Name:        %s\n", def.Name)
			fmt.Fprintf(out, "Keyword:     %s\n", def.Keyword)
			fmt.Fprintf(out, "VR:          %s\n", def.VR)
			if def.FieldType != "" {
				fmt.Fprintf(out, "Provenance:  %s\n", def.FieldType)
			}
			if def.Description != "" {
				fmt.Fprintf(out, "Description: %s\n", def.Description)
			}
			return nil
		},
	}
}
