package core

import (
	"context"

	"pkt.systems/sparqlab/schema"
)

// Service exposes the tab store to transports and hosts.
type Service interface {
	CreateTab(ctx context.Context, req schema.CreateTabRequest) (schema.CreateTabResponse, error)
	RestoreTab(ctx context.Context, req schema.RestoreTabRequest) (schema.RestoreTabResponse, error)
	SelectTab(ctx context.Context, req schema.SelectTabRequest) (schema.SelectTabResponse, error)
	CloseTab(ctx context.Context, req schema.CloseTabRequest) (schema.CloseTabResponse, error)
	RenameTab(ctx context.Context, req schema.RenameTabRequest) (schema.RenameTabResponse, error)
	ListTabs(ctx context.Context, req schema.ListTabsRequest) (schema.ListTabsResponse, error)
	GetTab(ctx context.Context, req schema.GetTabRequest) (schema.GetTabResponse, error)

	AttachEditor(ctx context.Context, tabID schema.TabID, editor Editor) error
	SetQuery(ctx context.Context, req schema.SetQueryRequest) (schema.SetQueryResponse, error)
	GetQuery(ctx context.Context, req schema.GetQueryRequest) (schema.GetQueryResponse, error)
	SyncEditor(ctx context.Context, req schema.SyncEditorRequest) (schema.SyncEditorResponse, error)
	SetEditorHeight(ctx context.Context, req schema.SetEditorHeightRequest) (schema.SetEditorHeightResponse, error)

	SetEndpoint(ctx context.Context, req schema.SetEndpointRequest) (schema.SetEndpointResponse, error)
	SetRequestConfig(ctx context.Context, req schema.SetRequestConfigRequest) (schema.SetRequestConfigResponse, error)
	SetResultSettings(ctx context.Context, req schema.SetResultSettingsRequest) (schema.SetResultSettingsResponse, error)
	ResolveRequestConfig(ctx context.Context, req schema.ResolveRequestConfigRequest) (schema.ResolveRequestConfigResponse, error)

	RunQuery(ctx context.Context, req schema.RunQueryRequest) (schema.RunQueryResponse, error)
	AbortQuery(ctx context.Context, req schema.AbortQueryRequest) (schema.AbortQueryResponse, error)

	// Close aborts every in-flight query.
	Close() error
}
