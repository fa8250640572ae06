package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// appVersion is overridden at build time via -ldflags.
var appVersion = "dev"

func newVersionCommand(ctx *commandContext) *cobra.Command {
	var withEngine bool

	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			version := appVersion
			if version == "dev" {
				if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
					version = info.Main.Version
				}
			}
			fmt.Fprintf(out, "dicomschema %s\n", version)

			if !withEngine {
				return nil
			}
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			session, err := ctx.startEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			stderr := cmd.ErrOrStderr()
			engineVersion, err := session.Initialize(cmd.Context(), progressPrinter(stderr))
			finishProgress(stderr)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "engine interpreter %s\n", engineVersion.Interpreter)
			fmt.Fprintf(out, "analysis package %s\n", engineVersion.Package)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withEngine, "engine", false, "Start the engine and report its versions too")
	return cmd
}
