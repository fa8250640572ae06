package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"dicomschema/internal/ingest"
	"dicomschema/internal/schema"
)

// fieldColumns is the column set shared by acquisition-level and per-series
// field tables.
var fieldColumns = []column{
	{header: "Field"},
	{header: "Tag"},
	{header: "Value", maxWidth: 40},
	{header: "Rule"},
}

func newProtocolCommand(ctx *commandContext) *cobra.Command {
	protocolCmd := &cobra.Command{
		Use:   "protocol",
		Short: "Vendor protocol file utilities",
	}

	protocolCmd.AddCommand(newProtocolLoadCommand(ctx))
	return protocolCmd
}

func newProtocolLoadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Load a vendor protocol file and show its acquisitions in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := filepath.Base(args[0])
			fileType, ok := ingest.ProtocolFileType(name)
			if !ok {
				return fmt.Errorf("%s is not a recognized protocol file (.pro, .exar1, .ExamCard, lxprotocol)", name)
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read protocol file: %w", err)
			}

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
			analyzed, err := session.Bridge.LoadProtocolFile(cmd.Context(), name, content, fileType, progressPrinter(stderr))
			finishProgress(stderr)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			acquisitions := ingest.NormalizeAcquisitions(analyzed)
			for i, acq := range acquisitions {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printAcquisitionDetail(out, acq)
			}
			fmt.Fprintf(out, "\n%d acquisitions in %s\n", len(acquisitions), name)
			return nil
		},
	}
}

func printAcquisitionDetail(out io.Writer, acq schema.Acquisition) {
	fmt.Fprintf(out, "%s", acq.ProtocolName)
	if acq.SeriesDescription != "" {
		fmt.Fprintf(out, " (%s)", acq.SeriesDescription)
	}
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(acq.Fields))
	for _, field := range acq.Fields {
		rows = append(rows, []string{
			field.Name,
			field.Tag,
			formatValue(field.Value),
			describeRule(field.Rule),
		})
	}
	fmt.Fprintln(out, renderTable(fieldColumns, rows))

	for _, series := range acq.Series {
		fmt.Fprintf(out, "%s:\n", series.Name)
		seriesRows := make([][]string, 0, len(series.Fields))
		for _, field := range series.Fields {
			seriesRows = append(seriesRows, []string{
				field.Name,
				field.Tag,
				formatValue(field.Value),
				describeRule(field.Rule),
			})
		}
		fmt.Fprintln(out, renderTable(fieldColumns, seriesRows))
	}
}
