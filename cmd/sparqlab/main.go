package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	root := newRootCmd()
	root.SetArgs(os.Args[1:])

	if err := root.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("sparqlab command failed")
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var envFiles []string
	root := &cobra.Command{
		Use:           "sparqlab",
		Short:         "SPARQL query workbench with persistent tabs",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFiles(cmd.Context(), envFiles)
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "load environment variables from file (repeatable)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newTabsCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newEndpointCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// loadEnvFiles applies env files without overriding variables already set.
func loadEnvFiles(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return err
	}
	pslog.Ctx(ctx).Debug("env files loaded", "files", files)
	return nil
}
