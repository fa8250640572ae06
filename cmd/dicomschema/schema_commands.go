package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dicomschema/internal/engine"
	"dicomschema/internal/ingest"
	"dicomschema/internal/schemadiff"
	"dicomschema/internal/store"
	"dicomschema/internal/workspace"
)

func newSchemaCommand(ctx *commandContext) *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Generate, validate, and compare acquisition schemas",
	}

	schemaCmd.AddCommand(newSchemaBuildCommand(ctx))
	schemaCmd.AddCommand(newSchemaImportCommand(ctx))
	schemaCmd.AddCommand(newSchemaValidateCommand(ctx))
	schemaCmd.AddCommand(newSchemaDiffCommand(ctx))
	return schemaCmd
}

func newSchemaImportCommand(ctx *commandContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an existing schema document into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importDocumentIntoLibrary(cmd, ctx, args[0], name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Store under this name instead of the document name")
	return cmd
}

func newSchemaBuildCommand(ctx *commandContext) *cobra.Command {
	var name string
	var description string
	var version string
	var authors []string
	var tags []string
	var output string
	var save bool
	var force bool

	cmd := &cobra.Command{
		Use:   "build <path>...",
		Short: "Build a schema document from DICOM or protocol files",
		Long: `Build ingests the given files, turns every acquisition found into
schema form, and emits the generated schema document. Incomplete fields
(unset values, rules missing parameters) are reported but do not stop
generation.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.startEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			pipeline, err := ctx.newPipeline(session)
			if err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			result, err := pipeline.Process(cmd.Context(), args, ingest.ProcessOptions{
				SkipSizeCheck: force,
				OnProgress:    pipelineProgressPrinter(stderr),
			})
			finishProgress(stderr)
			if err != nil {
				var sizeErr *ingest.SizeLimitError
				if errors.As(err, &sizeErr) {
					return fmt.Errorf("%s (rerun with --force to build anyway)", sizeErr.Error())
				}
				return err
			}
			if len(result.Acquisitions) == 0 {
				return errors.New("no acquisitions found in the given files")
			}

			for _, acq := range result.Acquisitions {
				for _, finding := range workspace.Incomplete(acq) {
					location := finding.FieldName
					if finding.SeriesIndex >= 0 {
						location = fmt.Sprintf("%s (series %d)", finding.FieldName, finding.SeriesIndex+1)
					}
					fmt.Fprintf(stderr, "warning: %s: %s: %s\n", acq.ProtocolName, location, finding.Reason)
				}
			}

			if name == "" {
				name = deriveSchemaName(result.Acquisitions[0].ProtocolName)
			}
			metadata := engine.Metadata{
				Name:        name,
				Description: description,
				Version:     version,
				Authors:     authors,
				Tags:        tags,
			}
			document, err := session.Bridge.GenerateSchema(cmd.Context(), result.Acquisitions, metadata)
			if err != nil {
				return err
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, document, "", "  "); err != nil {
				return fmt.Errorf("format schema document: %w", err)
			}

			if save {
				st, err := ctx.openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				id, err := st.Save(cmd.Context(), store.SavedSchema{
					Name:        name,
					Description: description,
					Version:     version,
					Authors:     authors,
					Tags:        tags,
					Document:    document,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved schema %q to the library (id %d)\n", name, id)
			}

			if output != "" {
				if err := os.WriteFile(output, []byte(pretty.String()+"\n"), 0o644); err != nil {
					return fmt.Errorf("write schema document: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote schema %q to %s\n", name, output)
				return nil
			}
			if !save {
				fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Schema name (defaults to a title derived from the first protocol)")
	cmd.Flags().StringVar(&description, "description", "", "Schema description")
	cmd.Flags().StringVar(&version, "version", "1.0", "Schema version")
	cmd.Flags().StringSliceVar(&authors, "author", nil, "Schema author (repeatable)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Schema tag (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the schema document to a file instead of stdout")
	cmd.Flags().BoolVar(&save, "save", false, "Save the schema into the library")
	cmd.Flags().BoolVar(&force, "force", false, "Proceed past the upload size limit")
	return cmd
}

func newSchemaValidateCommand(ctx *commandContext) *cobra.Command {
	var schemaRef string
	var acquisitionIndex int
	var force bool

	cmd := &cobra.Command{
		Use:   "validate --schema <file-or-name> <path>...",
		Short: "Validate acquisitions against a schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaContent, schemaLabel, err := resolveSchemaDocument(cmd.Context(), ctx, schemaRef)
			if err != nil {
				return err
			}

			session, err := ctx.startEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			pipeline, err := ctx.newPipeline(session)
			if err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			result, err := pipeline.Process(cmd.Context(), args, ingest.ProcessOptions{
				SkipSizeCheck: force,
				OnProgress:    pipelineProgressPrinter(stderr),
			})
			finishProgress(stderr)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			totalFailed := 0
			for i, acq := range result.Acquisitions {
				if acquisitionIndex >= 0 && i != acquisitionIndex {
					continue
				}
				verdict, err := session.Bridge.ValidateAcquisition(cmd.Context(), acq, string(schemaContent), i)
				if err != nil {
					return err
				}
				totalFailed += verdict.Failed

				fmt.Fprintf(out, "%s against %s:\n", acq.ProtocolName, schemaLabel)
				rows := make([][]string, 0, len(verdict.Records))
				for _, record := range verdict.Records {
					rows = append(rows, []string{
						record.FieldName,
						record.SeriesName,
						strings.ToUpper(record.Status),
						formatValue(record.Expected),
						formatValue(record.Actual),
						record.Message,
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					{header: "Field"},
					{header: "Series"},
					{header: "Status"},
					{header: "Expected"},
					{header: "Actual"},
					{header: "Message", maxWidth: 48},
				}, rows))
				fmt.Fprintf(out, "%d passed, %d failed, %d warnings\n\n", verdict.Passed, verdict.Failed, verdict.Warnings)
			}

			if totalFailed > 0 {
				return fmt.Errorf("validation failed with %d findings", totalFailed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaRef, "schema", "", "Schema document file or library schema name")
	cmd.Flags().IntVar(&acquisitionIndex, "acquisition", -1, "Validate only the acquisition at this index (0-based)")
	cmd.Flags().BoolVar(&force, "force", false, "Proceed past the upload size limit")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func newSchemaDiffCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <file-or-name> <file-or-name>",
		Short: "Compare two schema documents semantically",
		Long: `Diff compares two schema documents after canonicalizing both, so
formatting and key order never show up as differences. Each argument is a
document file path or the name of a schema stored in the library.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, aLabel, err := resolveSchemaDocument(cmd.Context(), ctx, args[0])
			if err != nil {
				return err
			}
			b, bLabel, err := resolveSchemaDocument(cmd.Context(), ctx, args[1])
			if err != nil {
				return err
			}

			patch, err := schemadiff.Unified(aLabel, a, bLabel, b)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if patch == "" {
				fmt.Fprintln(out, "Schemas are semantically identical")
				return nil
			}
			fmt.Fprint(out, patch)
			return nil
		},
	}
}

// resolveSchemaDocument loads a schema document from a file path or, when no
// such file exists, from the library by name.
func resolveSchemaDocument(ctx context.Context, cmdCtx *commandContext, ref string) ([]byte, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, "", errors.New("schema document file or library name is required")
	}
	if _, err := os.Stat(ref); err == nil {
		content, err := os.ReadFile(ref)
		if err != nil {
			return nil, "", fmt.Errorf("read schema document: %w", err)
		}
		return content, ref, nil
	}
	st, err := cmdCtx.openStore()
	if err != nil {
		return nil, "", err
	}
	defer st.Close()
	saved, err := st.GetByName(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", fmt.Errorf("%q is neither a file nor a library schema", ref)
		}
		return nil, "", err
	}
	label := saved.Name
	if saved.Version != "" {
		label = saved.Name + "@" + saved.Version
	}
	return saved.Document, label, nil
}
