package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dicomschema/internal/ingest"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var asJSON bool
	var fields []string

	cmd := &cobra.Command{
		Use:   "analyze <path>...",
		Short: "Ingest DICOM or protocol files and list the acquisitions found",
		Long: `Analyze reads the given files, directories, or zip archives, routes
DICOM slices and vendor protocol files to the analysis engine, and prints
the acquisitions it finds. Uploads over the configured size limit stop
before any engine work unless --force is given.`,
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
				Fields:        fields,
				OnProgress:    pipelineProgressPrinter(stderr),
			})
			finishProgress(stderr)
			if err != nil {
				var sizeErr *ingest.SizeLimitError
				if errors.As(err, &sizeErr) {
					return fmt.Errorf("%s (rerun with --force to analyze anyway)", sizeErr.Error())
				}
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(result.Acquisitions)
			}

			rows := make([][]string, 0, len(result.Acquisitions))
			for _, acq := range result.Acquisitions {
				rows = append(rows, []string{
					acq.ProtocolName,
					acq.SeriesDescription,
					strconv.Itoa(len(acq.Series)),
					strconv.Itoa(len(acq.Fields)),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "Protocol"},
				{header: "Series Description"},
				{header: "Series", right: true},
				{header: "Fields", right: true},
			}, rows))
			fmt.Fprintf(out, "%d acquisitions from %d files (%.1f MiB", len(result.Acquisitions), result.FileCount, float64(result.TotalBytes)/float64(1<<20))
			if result.SkippedFiles > 0 {
				fmt.Fprintf(out, ", %d unrecognized files skipped", result.SkippedFiles)
			}
			fmt.Fprintln(out, ")")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Proceed past the upload size limit")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit acquisitions as JSON")
	cmd.Flags().StringSliceVar(&fields, "field", nil, "DICOM field to extract during analysis (repeatable; default is the built-in selection)")
	return cmd
}
