package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/sparqlab/internal/appconfig"
	"pkt.systems/sparqlab/internal/sparql"
	"pkt.systems/sparqlab/schema"
)

func newEndpointCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "endpoint",
		Short: "Inspect SPARQL endpoints",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.AddCommand(newEndpointInfoCmd(&cfgPath))
	return cmd
}

func newEndpointInfoCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "info <url>",
		Short: "Show the display name, slug and prefixes of an endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, err := schema.NormalizeEndpoint(args[0])
			if err != nil {
				return err
			}
			cfg, err := appconfig.Load(*cfgPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), sparql.MetadataTimeout)
			defer cancel()
			client := newSPARQLClient(cfg, pslog.Ctx(ctx))
			meta, err := client.FetchMetadata(ctx, endpoint)
			if err != nil {
				pslog.Ctx(ctx).Warn("endpoint prefixes unavailable", "endpoint", endpoint, "err", err)
			}
			writeMetadata(cmd.OutOrStdout(), meta)
			return nil
		},
	}
}

func writeMetadata(out io.Writer, meta sparql.Metadata) {
	_, _ = fmt.Fprintf(out, "name: %s\n", meta.Name)
	_, _ = fmt.Fprintf(out, "slug: %s\n", meta.Slug)
	_, _ = fmt.Fprintf(out, "url: %s\n", meta.URL)
	source := "endpoint"
	if meta.Fallback {
		source = "fallback"
	}
	_, _ = fmt.Fprintf(out, "prefixes (%s):\n", source)
	names := make([]string, 0, len(meta.PrefixMap))
	for name := range meta.PrefixMap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(out, "  %s: <%s>\n", name, meta.PrefixMap[name])
	}
}
