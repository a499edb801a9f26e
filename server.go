package sparqlab

import (
	"context"
	"errors"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/sparqlab/core"
	"pkt.systems/sparqlab/httpapi"
	"pkt.systems/sparqlab/internal/eventbus"
	"pkt.systems/sparqlab/schema"
)

// Server composes the tab store with its HTTP surface.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
	// Service returns the tab store backing the server.
	Service() core.Service
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service schema.ServiceConfig
	HTTP    httpapi.Config
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	ServiceDeps core.ServiceDeps
	Metadata    httpapi.MetadataFetcher
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP bool
}

// WithHTTP enables the HTTP API server.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// New constructs a composable sparqlab server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP {
		return nil, errors.New("no services enabled")
	}
	normalized, err := schema.NormalizeServiceConfig(cfg.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = normalized

	serviceDeps := deps.ServiceDeps
	bus := eventbus.New(serviceDeps.Logger)
	hub := httpapi.NewHub(bus, cfg.Service.Namespace, cfg.HTTP.HubHistory)
	serviceDeps.EventSink = fanOutTabEvents(bus, serviceDeps.EventSink)
	if serviceDeps.CORS == nil && cfg.Service.CORSProxy != "" {
		prober := serviceDeps.Prober
		if prober == nil {
			prober, _ = serviceDeps.Transport.(core.Prober)
		}
		serviceDeps.CORS = core.NewCORSCache(prober, core.CORSOptions{
			Timeout:   serviceDeps.ProbeTimeout,
			Heuristic: serviceDeps.CORSHeuristic,
			Logger:    serviceDeps.Logger,
		})
	}

	service, err := core.NewService(cfg.Service, serviceDeps)
	if err != nil {
		return nil, err
	}

	srvDeps := httpapi.ServerDeps{Service: service, Hub: hub, Metadata: deps.Metadata}
	if serviceDeps.CORS != nil {
		srvDeps.CORS = serviceDeps.CORS
	}
	return &compositeServer{
		cfg:     cfg,
		options: options,
		service: service,
		hub:     hub,
		httpSrv: httpapi.NewServer(cfg.HTTP, srvDeps),
	}, nil
}

type compositeServer struct {
	cfg     ServerConfig
	options serverOptions
	service core.Service
	hub     *httpapi.Hub
	httpSrv *httpapi.Server
	logger  pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
}

func (s *compositeServer) Service() core.Service { return s.service }

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 1)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"namespace", s.cfg.Service.Namespace,
		"http_addr", s.cfg.HTTP.Addr,
		"http_base_path", s.cfg.HTTP.BasePath,
		"cors_proxy", s.cfg.Service.CORSProxy,
	)
	if s.hub != nil {
		go s.hub.Run(s.ctx)
	}
	if s.options.enableHTTP && s.httpSrv != nil {
		go func() {
			if err := httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler()); err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if s.service != nil {
		if err := s.service.Close(); err != nil {
			log.Warn("server query abort failed", "err", err)
		}
	}
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-s.ctx.Done():
		log.Info("server stopped")
		return nil
	}
}
