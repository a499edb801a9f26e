package httpapi

import (
	"context"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"pkt.systems/sparqlab/internal/logx"
	"pkt.systems/sparqlab/internal/sharelink"
	"pkt.systems/sparqlab/internal/sparql"
	"pkt.systems/sparqlab/schema"
)

type runQueryOutput struct {
	Body struct {
		Tab        schema.TabSnapshot            `json:"tab"`
		Request    schema.EffectiveRequestConfig `json:"request"`
		Query      string                        `json:"query"`
		Response   *schema.ResponseSummary       `json:"response,omitempty"`
		DurationMs int64                         `json:"durationMs"`
		Outcome    schema.QueryOutcome           `json:"outcome"`
	}
}

func (s *Server) registerQueryHandlers(api huma.API) {
	huma.Register(api, huma.Operation{OperationID: "run-query", Method: http.MethodPost, Path: "/api/v1/tabs/{tab_id}/run", Summary: "Run the tab query and wait for the response", Tags: []string{"Query"}},
		func(ctx context.Context, input *TabPathInput) (*runQueryOutput, error) {
			id := schema.TabID(input.TabID)
			var resp schema.RunQueryResponse
			err := s.withEditor(ctx, id, func() error {
				var err error
				resp, err = s.service.RunQuery(ctx, schema.RunQueryRequest{TabID: id})
				return err
			})
			if err != nil {
				return nil, mapErr(err)
			}
			out := &runQueryOutput{}
			out.Body.Tab = resp.Tab
			out.Body.Request = resp.Request
			out.Body.Query = resp.Query
			out.Body.Response = resp.Response
			out.Body.DurationMs = resp.Duration.Milliseconds()
			out.Body.Outcome = resp.Outcome
			return out, nil
		})

	type abortOutput struct {
		Body struct {
			Tab     schema.TabSnapshot `json:"tab"`
			Aborted bool               `json:"aborted"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "abort-query", Method: http.MethodPost, Path: "/api/v1/tabs/{tab_id}/abort", Summary: "Cancel the in-flight query", Tags: []string{"Query"}},
		func(ctx context.Context, input *TabPathInput) (*abortOutput, error) {
			id := schema.TabID(input.TabID)
			resp, err := s.service.AbortQuery(ctx, schema.AbortQueryRequest{TabID: id})
			if err != nil {
				return nil, mapErr(err)
			}
			if resp.Tab.ID == "" {
				return nil, notApplied(id)
			}
			out := &abortOutput{}
			out.Body.Tab = resp.Tab
			out.Body.Aborted = resp.Aborted
			return out, nil
		})

	type curlOutput struct {
		Body struct {
			Curl string `json:"curl"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "query-curl", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}/curl", Summary: "Render the effective request as a curl command", Tags: []string{"Query"}},
		func(ctx context.Context, input *TabPathInput) (*curlOutput, error) {
			id := schema.TabID(input.TabID)
			tab, err := s.service.GetTab(ctx, schema.GetTabRequest{TabID: id})
			if err != nil {
				return nil, mapErr(err)
			}
			resolved, err := s.service.ResolveRequestConfig(ctx, schema.ResolveRequestConfigRequest{TabID: id})
			if err != nil {
				return nil, mapErr(err)
			}
			prepared, err := sparql.Prepare(resolved.Config, tab.Tab, tab.Tab.Query)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &curlOutput{}
			out.Body.Curl = prepared.CurlString()
			return out, nil
		})

	type shareOutput struct {
		Body struct {
			Link   string           `json:"link"`
			Config sharelink.Config `json:"config"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "share-tab", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}/share", Summary: "Build a share link for the tab", Tags: []string{"Query"}},
		func(ctx context.Context, input *struct {
			TabPathInput
			Base string `query:"base" doc:"Base URL of the link; defaults to this server"`
		}) (*shareOutput, error) {
			id := schema.TabID(input.TabID)
			tab, err := s.service.GetTab(ctx, schema.GetTabRequest{TabID: id})
			if err != nil {
				return nil, mapErr(err)
			}
			resolved, err := s.service.ResolveRequestConfig(ctx, schema.ResolveRequestConfigRequest{TabID: id})
			if err != nil {
				return nil, mapErr(err)
			}
			base := input.Base
			if base == "" {
				base = shareBaseFromContext(ctx)
			}
			cfg := sharelink.FromTab(tab.Tab, resolved.Config)
			link, err := sharelink.Encode(base, cfg)
			if err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
			out := &shareOutput{}
			out.Body.Link = link
			out.Body.Config = cfg
			return out, nil
		})
}

type corsEntry struct {
	Endpoint string `json:"endpoint"`
	Capable  bool   `json:"capable"`
}

func (s *Server) registerEndpointHandlers(api huma.API) {
	type corsOutput struct {
		Body struct {
			Endpoints []corsEntry `json:"endpoints"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-cors", Method: http.MethodGet, Path: "/api/v1/cors", Summary: "List probed endpoints and their CORS capability", Tags: []string{"Endpoints"}},
		func(ctx context.Context, _ *struct{}) (*corsOutput, error) {
			out := &corsOutput{}
			out.Body.Endpoints = []corsEntry{}
			if s.cors == nil {
				return out, nil
			}
			for endpoint, capable := range s.cors.Snapshot() {
				out.Body.Endpoints = append(out.Body.Endpoints, corsEntry{Endpoint: endpoint, Capable: capable})
			}
			sort.Slice(out.Body.Endpoints, func(i, j int) bool {
				return out.Body.Endpoints[i].Endpoint < out.Body.Endpoints[j].Endpoint
			})
			return out, nil
		})

	type metadataOutput struct {
		Body sparql.Metadata
	}
	huma.Register(api, huma.Operation{OperationID: "endpoint-metadata", Method: http.MethodGet, Path: "/api/v1/endpoints/metadata", Summary: "Fetch endpoint name and prefixes", Tags: []string{"Endpoints"}},
		func(ctx context.Context, input *struct {
			Endpoint string `query:"endpoint" required:"true" doc:"SPARQL endpoint URL"`
		}) (*metadataOutput, error) {
			endpoint, err := schema.NormalizeEndpoint(input.Endpoint)
			if err != nil {
				return nil, mapErr(err)
			}
			if s.metadata == nil {
				return nil, mapErr(schema.ErrNoTransport)
			}
			meta, err := s.metadata.FetchMetadata(ctx, endpoint)
			if err != nil {
				logx.Ctx(ctx).Warn("http metadata fallback", "endpoint", endpoint, "err", err)
			}
			return &metadataOutput{Body: meta}, nil
		})
}
