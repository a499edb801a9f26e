package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/sparqlab/core"
	"pkt.systems/sparqlab/internal/format"
	"pkt.systems/sparqlab/internal/sharelink"
	"pkt.systems/sparqlab/internal/sparql"
	"pkt.systems/sparqlab/schema"
)

const defaultShareBase = "http://localhost:27580/"

func newQueryCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run and export tab queries",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	cmd.AddCommand(newQueryRunCmd(&cfgPath))
	cmd.AddCommand(newQueryCurlCmd(&cfgPath))
	cmd.AddCommand(newQueryShareCmd(&cfgPath))

	return cmd
}

func newQueryRunCmd(cfgPath *string) *cobra.Command {
	var text string
	var file string
	var events bool
	cmd := &cobra.Command{
		Use:   "run [tab]",
		Short: "Run the query of a tab (default: active tab)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer := format.NewPlainRenderer()
			var sink core.EventSink
			if events {
				errOut := cmd.ErrOrStderr()
				sink = core.EventSinkFunc(func(event schema.TabEvent) {
					writeLines(errOut, renderer.FormatEvent(event))
				})
			}
			wb, err := openWorkbench(cmd.Context(), *cfgPath, sink)
			if err != nil {
				return err
			}
			defer func() { _ = wb.Close() }()
			tab, err := wb.resolveTab(cmd.Context(), firstArg(args))
			if err != nil {
				return err
			}
			if err := wb.ensureEditor(cmd.Context(), tab); err != nil {
				return err
			}
			query, replace, err := queryOverride(cmd, text, file)
			if err != nil {
				return err
			}
			if replace {
				if _, err := wb.service.SetQuery(cmd.Context(), schema.SetQueryRequest{TabID: tab.ID, Query: query}); err != nil {
					return err
				}
			}
			resp, err := wb.service.RunQuery(cmd.Context(), schema.RunQueryRequest{TabID: tab.ID})
			if err != nil {
				return err
			}
			writeLines(cmd.OutOrStdout(), renderer.FormatSummary(resp.Response))
			if resp.Outcome == schema.QueryOutcomeError {
				return fmt.Errorf("query failed against %s", resp.Request.Endpoint)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "query", "q", "", "replace the tab query before running")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the query from a file (- for stdin)")
	cmd.Flags().BoolVar(&events, "events", false, "print tab events to stderr")
	return cmd
}

func newQueryCurlCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "curl [tab]",
		Short: "Print the effective request of a tab as a curl command",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := openWorkbench(cmd.Context(), *cfgPath, nil)
			if err != nil {
				return err
			}
			defer func() { _ = wb.Close() }()
			tab, err := wb.resolveTab(cmd.Context(), firstArg(args))
			if err != nil {
				return err
			}
			resolved, err := wb.service.ResolveRequestConfig(cmd.Context(), schema.ResolveRequestConfigRequest{TabID: tab.ID})
			if err != nil {
				return err
			}
			prepared, err := sparql.Prepare(resolved.Config, tab, tab.Query)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), prepared.CurlString())
			return err
		},
	}
}

func newQueryShareCmd(cfgPath *string) *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "share [tab]",
		Short: "Print a share link for a tab",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := openWorkbench(cmd.Context(), *cfgPath, nil)
			if err != nil {
				return err
			}
			defer func() { _ = wb.Close() }()
			tab, err := wb.resolveTab(cmd.Context(), firstArg(args))
			if err != nil {
				return err
			}
			resolved, err := wb.service.ResolveRequestConfig(cmd.Context(), schema.ResolveRequestConfigRequest{TabID: tab.ID})
			if err != nil {
				return err
			}
			if strings.TrimSpace(base) == "" {
				base = shareBaseFor(wb.cfg.HTTP.Addr, wb.cfg.HTTP.BasePath)
			}
			link, err := sharelink.Encode(base, sharelink.FromTab(tab, resolved.Config))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), link)
			return err
		},
	}
	cmd.Flags().StringVar(&base, "base", "", "base URL of the link (default: the configured HTTP address)")
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// queryOverride returns the query text given by --query or --file.
func queryOverride(cmd *cobra.Command, text, file string) (string, bool, error) {
	switch {
	case cmd.Flags().Changed("query") && file != "":
		return "", false, fmt.Errorf("%w: --query and --file are exclusive", schema.ErrInvalidRequest)
	case cmd.Flags().Changed("query"):
		return text, true, nil
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	default:
		return "", false, nil
	}
}

func shareBaseFor(addr, basePath string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return defaultShareBase
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	base := "http://" + addr + "/"
	if path := strings.Trim(strings.TrimSpace(basePath), "/"); path != "" {
		base += path + "/"
	}
	return base
}
