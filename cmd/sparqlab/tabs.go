package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pkt.systems/sparqlab/internal/format"
	"pkt.systems/sparqlab/schema"
)

func newTabsCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "tabs",
		Short: "Manage query tabs",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	cmd.AddCommand(newTabsListCmd(&cfgPath))
	cmd.AddCommand(newTabsNewCmd(&cfgPath))
	cmd.AddCommand(newTabsCloseCmd(&cfgPath))
	cmd.AddCommand(newTabsRenameCmd(&cfgPath))
	cmd.AddCommand(newTabsSelectCmd(&cfgPath))
	cmd.AddCommand(newTabsEndpointCmd(&cfgPath))

	return cmd
}

func writeLines(out io.Writer, lines []string) {
	for _, line := range lines {
		_, _ = fmt.Fprintln(out, line)
	}
}

func newTabsListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tabs",
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := openWorkbench(cmd.Context(), *cfgPath, nil)
			if err != nil {
				return err
			}
			defer func() { _ = wb.Close() }()
			resp, err := wb.service.ListTabs(cmd.Context(), schema.ListTabsRequest{})
			if err != nil {
				return err
			}
			writeLines(cmd.OutOrStdout(), format.NewPlainRenderer().FormatTabs(resp.Tabs))
			return nil
		},
	}
}

func newTabsNewCmd(cfgPath *string) *cobra.Command {
	var query string
	var endpoint string
	var selectTab bool
	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Create a tab",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := openWorkbench(cmd.Context(), *cfgPath, nil)
			if err != nil {
				return err
			}
			defer func() { _ = wb.Close() }()
			req := schema.CreateTabRequest{
				RequestConfig: schema.RequestConfig{Endpoint: endpoint},
				Select:        selectTab,
			}
			if len(args) == 1 {
				req.Name = schema.TabName(args[0])
			}
			if cmd.Flags().Changed("query") {
				req.Query = &query
			}
			resp, err := wb.service.CreateTab(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", resp.Tab.ID, resp.Tab.Name)
			return err
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "initial query text")
	cmd.Flags().StringVarP(&endpoint, "endpoint", "e", "", "endpoint override")
	cmd.Flags().BoolVarP(&selectTab, "select", "s", false, "activate the new tab")
	return cmd
}

func newTabsCloseCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "close <tab>",
		Short: "Close a tab",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := openWorkbench(cmd.Context(), *cfgPath, nil)
			if err != nil {
				return err
			}
			defer func() { _ = wb.Close() }()
			tab, err := wb.resolveTab(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			resp, err := wb.service.CloseTab(cmd.Context(), schema.CloseTabRequest{TabID: tab.ID})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "closed %s\n", resp.Tab.ID)
			if resp.ActiveTab != "" {
				_, _ = fmt.Fprintf(out, "active %s\n", resp.ActiveTab)
			}
			return nil
		},
	}
}

func newTabsRenameCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <tab> <name>",
		Short: "Rename a tab",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := openWorkbench(cmd.Context(), *cfgPath, nil)
			if err != nil {
				return err
			}
			defer func() { _ = wb.Close() }()
			tab, err := wb.resolveTab(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			resp, err := wb.service.RenameTab(cmd.Context(), schema.RenameTabRequest{TabID: tab.ID, Name: args[1]})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", resp.Tab.ID, resp.Tab.Name)
			return err
		},
	}
}

func newTabsSelectCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "select <tab>",
		Short: "Activate a tab",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := openWorkbench(cmd.Context(), *cfgPath, nil)
			if err != nil {
				return err
			}
			defer func() { _ = wb.Close() }()
			tab, err := wb.resolveTab(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			resp, err := wb.service.SelectTab(cmd.Context(), schema.SelectTabRequest{TabID: tab.ID})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "active %s\n", resp.Tab.ID)
			return err
		},
	}
}

func newTabsEndpointCmd(cfgPath *string) *cobra.Command {
	var tabRef string
	var noHistory bool
	cmd := &cobra.Command{
		Use:   "endpoint [url]",
		Short: "Show or change the endpoint of a tab",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := openWorkbench(cmd.Context(), *cfgPath, nil)
			if err != nil {
				return err
			}
			defer func() { _ = wb.Close() }()
			tab, err := wb.resolveTab(cmd.Context(), tabRef)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				_, err = fmt.Fprintln(out, tab.Endpoint)
				return err
			}
			resp, err := wb.service.SetEndpoint(cmd.Context(), schema.SetEndpointRequest{
				TabID:         tab.ID,
				Endpoint:      args[0],
				RecordHistory: !noHistory,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%s\t%s\n", resp.Tab.ID, resp.Tab.Endpoint)
			return err
		},
	}
	cmd.Flags().StringVarP(&tabRef, "tab", "t", "", "tab id or name (default: active tab)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record the endpoint in the shared history")
	return cmd
}
