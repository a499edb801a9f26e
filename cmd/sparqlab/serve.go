package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/sparqlab"
	"pkt.systems/sparqlab/httpapi"
	"pkt.systems/sparqlab/internal/appconfig"
	"pkt.systems/sparqlab/internal/persist"
)

const defaultHubHistory = 1000

func newServeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	var basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sparqlab HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if strings.TrimSpace(addr) != "" {
				cfg.HTTP.Addr = addr
			}
			if cmd.Flags().Changed("base-path") {
				cfg.HTTP.BasePath = basePath
			}
			ctx, closer, err := withFileLogging(cmd.Context(), cfg.Logging)
			if err != nil {
				return err
			}
			if closer != nil {
				defer func() { _ = closer.Close() }()
			}
			return runServe(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "URL prefix of the API (overrides http.base_path)")
	return cmd
}

func runServe(ctx context.Context, cfg appconfig.Config) error {
	logger := pslog.Ctx(ctx)
	serviceCfg, err := cfg.ServiceConfig()
	if err != nil {
		return err
	}
	storageCfg := cfg.StorageConfig()
	store, err := persist.Open(storageCfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	logger.Info("storage opened", "backend", storageCfg.Backend, "namespace", store.Namespace())

	client := newSPARQLClient(cfg, logger)
	srv, err := sparqlab.New(sparqlab.ServerConfig{
		Service: serviceCfg,
		HTTP: httpapi.Config{
			Addr:       cfg.HTTP.Addr,
			BasePath:   cfg.HTTP.BasePath,
			HubHistory: defaultHubHistory,
		},
	}, sparqlab.ServerDeps{
		ServiceDeps: serviceDeps(cfg, store, client, logger, nil),
		Metadata:    client,
	}, sparqlab.WithHTTP())
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	waitErr := srv.Wait()
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(stopCtx); err != nil {
		logger.Warn("server stop failed", "err", err)
	}
	return waitErr
}
