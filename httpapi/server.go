package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pkt.systems/sparqlab/core"
	"pkt.systems/sparqlab/internal/logx"
	"pkt.systems/sparqlab/internal/sparql"
	"pkt.systems/sparqlab/internal/version"
	"pkt.systems/sparqlab/schema"
)

// MetadataFetcher looks up endpoint metadata.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, endpoint string) (sparql.Metadata, error)
}

// CORSView exposes the probe cache state.
type CORSView interface {
	Snapshot() map[string]bool
}

// ServerDeps captures collaborators of the HTTP API.
type ServerDeps struct {
	Service  core.Service
	Hub      *Hub
	CORS     CORSView
	Metadata MetadataFetcher
}

// Server serves the HTTP API.
type Server struct {
	cfg      Config
	service  core.Service
	hub      *Hub
	cors     CORSView
	metadata MetadataFetcher
	basePath string
}

// NewServer constructs an HTTP server.
func NewServer(cfg Config, deps ServerDeps) *Server {
	return &Server{
		cfg:      cfg,
		service:  deps.Service,
		hub:      deps.Hub,
		cors:     deps.CORS,
		metadata: deps.Metadata,
		basePath: normalizeBasePath(cfg.BasePath),
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(withRequestLogging)
	router.Use(middleware.Recoverer)
	router.Use(s.withShareBase)

	humaCfg := huma.DefaultConfig("sparqlab", version.Current())
	if s.basePath != "" {
		humaCfg.Servers = []*huma.Server{{URL: s.basePath}}
	}
	api := humachi.New(router, humaCfg)

	s.registerTabHandlers(api)
	s.registerQueryHandlers(api)
	s.registerEndpointHandlers(api)
	if s.hub != nil {
		router.Get("/api/v1/stream", s.handleStream)
	}

	if s.basePath == "" {
		return router
	}
	root := chi.NewMux()
	root.Mount(s.basePath, router)
	return root
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := logx.Ctx(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))
	if lastID == 0 {
		lastID = parseUint(r.URL.Query().Get("last_event_id"))
	}

	// Subscribe before the snapshot so no event falls between the two.
	ch, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	snapshot := s.buildSnapshot(r.Context())
	_ = writeSSEvent(w, StreamEvent{
		Type:      "snapshot",
		Snapshot:  &snapshot,
		Timestamp: time.Now(),
	})
	flusher.Flush()

	var sent uint64
	replayCount := 0
	if lastID > 0 {
		replay := s.hub.Replay(lastID)
		replayCount = len(replay)
		for _, event := range replay {
			_ = writeSSEvent(w, event)
			sent = event.Seq
		}
		flusher.Flush()
	}

	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "replay", replayCount, "tabs", len(snapshot.Tabs))
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Seq <= sent {
				continue
			}
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

func (s *Server) buildSnapshot(ctx context.Context) SnapshotPayload {
	resp, err := s.service.ListTabs(ctx, schema.ListTabsRequest{})
	if err != nil {
		return SnapshotPayload{}
	}
	return SnapshotPayload{
		Tabs:            resp.Tabs,
		ActiveTab:       resp.ActiveTab,
		EndpointHistory: resp.EndpointHistory,
	}
}

type shareBaseKey struct{}

func (s *Server) withShareBase(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), shareBaseKey{}, linkBase(s.cfg.BaseURL, s.cfg.BasePath, r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func shareBaseFromContext(ctx context.Context) string {
	if base, ok := ctx.Value(shareBaseKey{}).(string); ok {
		return base
	}
	return "http://localhost/"
}

// mapErr translates service errors to HTTP problems.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, schema.ErrTabNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, schema.ErrInvalidRequest),
		errors.Is(err, schema.ErrInvalidConfig),
		errors.Is(err, schema.ErrInvalidEndpoint),
		errors.Is(err, schema.ErrInvalidTabName):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, schema.ErrUninitializedEditor), errors.Is(err, schema.ErrQueryAborted):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, schema.ErrNoTransport):
		return huma.Error503ServiceUnavailable(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}

func notApplied(id schema.TabID) error {
	return huma.Error404NotFound(fmt.Sprintf("%s: %s", schema.ErrTabNotFound, id))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
