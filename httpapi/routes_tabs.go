package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"pkt.systems/sparqlab/core"
	"pkt.systems/sparqlab/internal/sharelink"
	"pkt.systems/sparqlab/schema"
)

// TabPathInput binds the tab id path parameter. It is embedded in the
// inputs of every per-tab operation.
type TabPathInput struct {
	TabID string `path:"tab_id" doc:"Tab identifier"`
}

type tabOutput struct {
	Body schema.TabSnapshot
}

type listTabsOutput struct {
	Body struct {
		Tabs            []schema.TabSnapshot `json:"tabs"`
		ActiveTab       schema.TabID         `json:"activeTab,omitempty"`
		EndpointHistory []string             `json:"endpointHistory"`
	}
}

type createTabBody struct {
	Name          string               `json:"name,omitempty" doc:"Tab name; generated when empty"`
	Query         *string              `json:"query,omitempty" doc:"Initial query text"`
	Endpoint      string               `json:"endpoint,omitempty" doc:"Endpoint override"`
	EditorHeight  string               `json:"editorHeight,omitempty"`
	RequestConfig schema.RequestConfig `json:"requestConfig,omitempty"`
	Select        bool                 `json:"select,omitempty" doc:"Activate the new tab"`
}

func (s *Server) registerTabHandlers(api huma.API) {
	huma.Register(api, huma.Operation{OperationID: "list-tabs", Method: http.MethodGet, Path: "/api/v1/tabs", Summary: "List tabs in display order", Tags: []string{"Tabs"}},
		func(ctx context.Context, _ *struct{}) (*listTabsOutput, error) {
			resp, err := s.service.ListTabs(ctx, schema.ListTabsRequest{})
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listTabsOutput{}
			out.Body.Tabs = resp.Tabs
			out.Body.ActiveTab = resp.ActiveTab
			out.Body.EndpointHistory = resp.EndpointHistory
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "create-tab", Method: http.MethodPost, Path: "/api/v1/tabs", Summary: "Create a tab", Tags: []string{"Tabs"}, DefaultStatus: http.StatusCreated},
		func(ctx context.Context, input *struct {
			Body *createTabBody
		}) (*tabOutput, error) {
			var body createTabBody
			if input.Body != nil {
				body = *input.Body
			}
			cfg := body.RequestConfig
			if body.Endpoint != "" {
				cfg.Endpoint = body.Endpoint
			}
			resp, err := s.service.CreateTab(ctx, schema.CreateTabRequest{
				Name:          schema.TabName(body.Name),
				Query:         body.Query,
				EditorHeight:  body.EditorHeight,
				RequestConfig: cfg,
				Select:        body.Select,
			})
			if err != nil {
				return nil, mapErr(err)
			}
			return &tabOutput{Body: resp.Tab}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "import-share-link", Method: http.MethodPost, Path: "/api/v1/tabs/import", Summary: "Create a tab from a share link", Tags: []string{"Tabs"}, DefaultStatus: http.StatusCreated},
		func(ctx context.Context, input *struct {
			Body struct {
				Link string `json:"link" doc:"Share link or its parameter string"`
			}
		}) (*tabOutput, error) {
			cfg, err := sharelink.Decode(input.Body.Link)
			if err != nil {
				return nil, mapErr(err)
			}
			resp, err := s.service.CreateTab(ctx, cfg.CreateTabRequest())
			if err != nil {
				return nil, mapErr(err)
			}
			return &tabOutput{Body: resp.Tab}, nil
		})

	type getTabOutput struct {
		Body struct {
			Tab       schema.TabSnapshot  `json:"tab"`
			Persisted schema.PersistedTab `json:"persisted"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-tab", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}", Summary: "Get one tab", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *TabPathInput) (*getTabOutput, error) {
			resp, err := s.service.GetTab(ctx, schema.GetTabRequest{TabID: schema.TabID(input.TabID)})
			if err != nil {
				return nil, mapErr(err)
			}
			out := &getTabOutput{}
			out.Body.Tab = resp.Tab
			out.Body.Persisted = resp.Persisted
			return out, nil
		})

	type closeTabOutput struct {
		Body struct {
			Tab       schema.TabSnapshot `json:"tab"`
			ActiveTab schema.TabID       `json:"activeTab,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "close-tab", Method: http.MethodDelete, Path: "/api/v1/tabs/{tab_id}", Summary: "Close a tab", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *TabPathInput) (*closeTabOutput, error) {
			id := schema.TabID(input.TabID)
			resp, err := s.service.CloseTab(ctx, schema.CloseTabRequest{TabID: id})
			if err != nil {
				return nil, mapErr(err)
			}
			if !resp.Applied {
				return nil, notApplied(id)
			}
			out := &closeTabOutput{}
			out.Body.Tab = resp.Tab
			out.Body.ActiveTab = resp.ActiveTab
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "select-tab", Method: http.MethodPost, Path: "/api/v1/tabs/{tab_id}/select", Summary: "Activate a tab", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *TabPathInput) (*tabOutput, error) {
			id := schema.TabID(input.TabID)
			resp, err := s.service.SelectTab(ctx, schema.SelectTabRequest{TabID: id})
			if err != nil {
				return nil, mapErr(err)
			}
			if !resp.Applied {
				return nil, notApplied(id)
			}
			return &tabOutput{Body: resp.Tab}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "rename-tab", Method: http.MethodPut, Path: "/api/v1/tabs/{tab_id}/name", Summary: "Rename a tab", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct {
			TabPathInput
			Body struct {
				Name string `json:"name"`
			}
		}) (*tabOutput, error) {
			id := schema.TabID(input.TabID)
			resp, err := s.service.RenameTab(ctx, schema.RenameTabRequest{TabID: id, Name: input.Body.Name})
			if err != nil {
				return nil, mapErr(err)
			}
			if !resp.Applied {
				return nil, notApplied(id)
			}
			return &tabOutput{Body: resp.Tab}, nil
		})

	type queryOutput struct {
		Body struct {
			Query string `json:"query"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-query", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}/query", Summary: "Read the editor text", Tags: []string{"Editor"}},
		func(ctx context.Context, input *TabPathInput) (*queryOutput, error) {
			id := schema.TabID(input.TabID)
			var resp schema.GetQueryResponse
			err := s.withEditor(ctx, id, func() error {
				var err error
				resp, err = s.service.GetQuery(ctx, schema.GetQueryRequest{TabID: id})
				return err
			})
			if err != nil {
				return nil, mapErr(err)
			}
			out := &queryOutput{}
			out.Body.Query = resp.Query
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-query", Method: http.MethodPut, Path: "/api/v1/tabs/{tab_id}/query", Summary: "Replace the editor text", Tags: []string{"Editor"}},
		func(ctx context.Context, input *struct {
			TabPathInput
			Body struct {
				Query string `json:"query"`
			}
		}) (*tabOutput, error) {
			id := schema.TabID(input.TabID)
			var resp schema.SetQueryResponse
			err := s.withEditor(ctx, id, func() error {
				var err error
				resp, err = s.service.SetQuery(ctx, schema.SetQueryRequest{TabID: id, Query: input.Body.Query})
				return err
			})
			if err != nil {
				return nil, mapErr(err)
			}
			return &tabOutput{Body: resp.Tab}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-editor-height", Method: http.MethodPut, Path: "/api/v1/tabs/{tab_id}/editor-height", Summary: "Record the editor height", Tags: []string{"Editor"}},
		func(ctx context.Context, input *struct {
			TabPathInput
			Body struct {
				Height string `json:"height"`
			}
		}) (*tabOutput, error) {
			id := schema.TabID(input.TabID)
			resp, err := s.service.SetEditorHeight(ctx, schema.SetEditorHeightRequest{TabID: id, Height: input.Body.Height})
			if err != nil {
				return nil, mapErr(err)
			}
			if !resp.Applied {
				return nil, notApplied(id)
			}
			return &tabOutput{Body: resp.Tab}, nil
		})

	type endpointOutput struct {
		Body struct {
			Tab             schema.TabSnapshot `json:"tab"`
			Changed         bool               `json:"changed"`
			EndpointHistory []string           `json:"endpointHistory"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-endpoint", Method: http.MethodPut, Path: "/api/v1/tabs/{tab_id}/endpoint", Summary: "Change the tab endpoint", Tags: []string{"Request"}},
		func(ctx context.Context, input *struct {
			TabPathInput
			Body struct {
				Endpoint      string `json:"endpoint"`
				RecordHistory bool   `json:"recordHistory,omitempty" doc:"Add the endpoint to the shared history"`
			}
		}) (*endpointOutput, error) {
			id := schema.TabID(input.TabID)
			resp, err := s.service.SetEndpoint(ctx, schema.SetEndpointRequest{TabID: id, Endpoint: input.Body.Endpoint, RecordHistory: input.Body.RecordHistory})
			if err != nil {
				return nil, mapErr(err)
			}
			if !resp.Applied {
				return nil, notApplied(id)
			}
			out := &endpointOutput{}
			out.Body.Tab = resp.Tab
			out.Body.Changed = resp.Changed
			out.Body.EndpointHistory = resp.EndpointHistory
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-request-config", Method: http.MethodPut, Path: "/api/v1/tabs/{tab_id}/request-config", Summary: "Update per-tab request settings", Tags: []string{"Request"}},
		func(ctx context.Context, input *struct {
			TabPathInput
			Replace bool `query:"replace" doc:"Replace the whole config instead of merging"`
			Body    schema.RequestConfig
		}) (*tabOutput, error) {
			id := schema.TabID(input.TabID)
			resp, err := s.service.SetRequestConfig(ctx, schema.SetRequestConfigRequest{TabID: id, Config: input.Body, Replace: input.Replace})
			if err != nil {
				return nil, mapErr(err)
			}
			if !resp.Applied {
				return nil, notApplied(id)
			}
			return &tabOutput{Body: resp.Tab}, nil
		})

	type effectiveOutput struct {
		Body schema.EffectiveRequestConfig
	}
	huma.Register(api, huma.Operation{OperationID: "get-effective-request-config", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}/request-config", Summary: "Resolve the effective request settings", Tags: []string{"Request"}},
		func(ctx context.Context, input *TabPathInput) (*effectiveOutput, error) {
			resp, err := s.service.ResolveRequestConfig(ctx, schema.ResolveRequestConfigRequest{TabID: schema.TabID(input.TabID)})
			if err != nil {
				return nil, mapErr(err)
			}
			return &effectiveOutput{Body: resp.Config}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-result-settings", Method: http.MethodPut, Path: "/api/v1/tabs/{tab_id}/result-settings", Summary: "Store the results viewer settings", Tags: []string{"Results"}},
		func(ctx context.Context, input *struct {
			TabPathInput
			Body struct {
				SelectedPlugin string         `json:"selectedPlugin,omitempty"`
				PluginsConfig  map[string]any `json:"pluginsConfig,omitempty"`
			}
		}) (*tabOutput, error) {
			id := schema.TabID(input.TabID)
			settings := schema.ResultSettings{SelectedPlugin: input.Body.SelectedPlugin}
			if len(input.Body.PluginsConfig) > 0 {
				settings.PluginsConfig = make(map[string]json.RawMessage, len(input.Body.PluginsConfig))
				for name, cfg := range input.Body.PluginsConfig {
					raw, err := json.Marshal(cfg)
					if err != nil {
						return nil, huma.Error400BadRequest(fmt.Sprintf("plugin %s config: %v", name, err))
					}
					settings.PluginsConfig[name] = raw
				}
			}
			resp, err := s.service.SetResultSettings(ctx, schema.SetResultSettingsRequest{TabID: id, Settings: settings})
			if err != nil {
				return nil, mapErr(err)
			}
			if !resp.Applied {
				return nil, notApplied(id)
			}
			return &tabOutput{Body: resp.Tab}, nil
		})
}

// withEditor runs fn, attaching a server-side editor first when the tab
// has none yet.
func (s *Server) withEditor(ctx context.Context, id schema.TabID, fn func() error) error {
	err := fn()
	if !errors.Is(err, schema.ErrUninitializedEditor) {
		return err
	}
	if err := s.service.AttachEditor(ctx, id, core.NewTextEditor("")); err != nil {
		return err
	}
	return fn()
}
