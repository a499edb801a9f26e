package schema

import "time"

// Tab lifecycle.

// CreateTabRequest describes a request to create a tab. Zero fields take
// the store defaults.
type CreateTabRequest struct {
	Name          TabName
	Query         *string
	EditorHeight  string
	RequestConfig RequestConfig
	Settings      *ResultSettings
	// Select activates the new tab even when another tab is active.
	Select bool
}

// CreateTabResponse reports the created tab.
type CreateTabResponse struct {
	Tab TabSnapshot
}

// RestoreTabRequest re-creates a tab from its persisted form.
type RestoreTabRequest struct {
	Tab    PersistedTab
	Select bool
}

// RestoreTabResponse reports the restored tab.
type RestoreTabResponse struct {
	Tab TabSnapshot
}

// SelectTabRequest describes a request to activate a tab.
type SelectTabRequest struct {
	TabID TabID
}

// SelectTabResponse reports the active tab. Applied is false when the id was unknown.
type SelectTabResponse struct {
	Tab     TabSnapshot
	Applied bool
}

// CloseTabRequest describes a request to close a tab.
type CloseTabRequest struct {
	TabID TabID
}

// CloseTabResponse reports the closed tab and the tab active afterwards.
type CloseTabResponse struct {
	Tab       TabSnapshot
	ActiveTab TabID
	Applied   bool
}

// RenameTabRequest describes a request to rename a tab.
type RenameTabRequest struct {
	TabID TabID
	Name  string
}

// RenameTabResponse reports the renamed tab.
type RenameTabResponse struct {
	Tab     TabSnapshot
	Applied bool
}

// ListTabsRequest describes a request to list tabs.
type ListTabsRequest struct{}

// ListTabsResponse reports tabs in display order and shared state.
type ListTabsResponse struct {
	Tabs            []TabSnapshot
	ActiveTab       TabID
	EndpointHistory []string
}

// GetTabRequest describes a request for one tab.
type GetTabRequest struct {
	TabID TabID
}

// GetTabResponse reports a tab and its persisted form.
type GetTabResponse struct {
	Tab       TabSnapshot
	Persisted PersistedTab
}

// Editor state.

// SetQueryRequest replaces the query text of a tab.
type SetQueryRequest struct {
	TabID TabID
	Query string
}

// SetQueryResponse reports the updated tab.
type SetQueryResponse struct {
	Tab TabSnapshot
}

// GetQueryRequest reads the editor text of a tab.
type GetQueryRequest struct {
	TabID TabID
}

// GetQueryResponse carries the editor text.
type GetQueryResponse struct {
	Query string
}

// SyncEditorRequest pulls the attached editor's text into the persisted state.
type SyncEditorRequest struct {
	TabID TabID
}

// SyncEditorResponse reports whether the persisted query changed.
type SyncEditorResponse struct {
	Tab     TabSnapshot
	Changed bool
}

// SetEditorHeightRequest records the editor height hint.
type SetEditorHeightRequest struct {
	TabID  TabID
	Height string
}

// SetEditorHeightResponse reports the updated tab.
type SetEditorHeightResponse struct {
	Tab     TabSnapshot
	Applied bool
}

// Request configuration.

// SetEndpointRequest changes the endpoint of a tab. History, when non-nil,
// replaces the shared endpoint history; RecordHistory adds the endpoint to it.
type SetEndpointRequest struct {
	TabID         TabID
	Endpoint      string
	RecordHistory bool
	History       []string
}

// SetEndpointResponse reports the tab and the shared history.
type SetEndpointResponse struct {
	Tab             TabSnapshot
	Applied         bool
	Changed         bool
	EndpointHistory []string
}

// SetRequestConfigRequest updates the per-tab request overrides. Replace
// swaps the whole config, otherwise set fields override the current ones.
type SetRequestConfigRequest struct {
	TabID   TabID
	Config  RequestConfig
	Replace bool
}

// SetRequestConfigResponse reports the updated tab.
type SetRequestConfigResponse struct {
	Tab     TabSnapshot
	Applied bool
}

// SetResultSettingsRequest stores the results viewer configuration.
type SetResultSettingsRequest struct {
	TabID    TabID
	Settings ResultSettings
}

// SetResultSettingsResponse reports the updated tab.
type SetResultSettingsResponse struct {
	Tab     TabSnapshot
	Applied bool
}

// ResolveRequestConfigRequest asks for the effective request configuration.
type ResolveRequestConfigRequest struct {
	TabID TabID
}

// ResolveRequestConfigResponse carries the effective configuration.
type ResolveRequestConfigResponse struct {
	Config EffectiveRequestConfig
}

// Query execution.

// RunQueryRequest starts a query for a tab, cancelling any in-flight one.
type RunQueryRequest struct {
	TabID TabID
}

// RunQueryResponse reports the completed query. Response is the full
// summary, independent of the persisted size cap.
type RunQueryResponse struct {
	Tab      TabSnapshot
	Request  EffectiveRequestConfig
	Query    string
	Response *ResponseSummary
	Duration time.Duration
	Outcome  QueryOutcome
}

// AbortQueryRequest cancels the in-flight query of a tab.
type AbortQueryRequest struct {
	TabID TabID
}

// AbortQueryResponse reports whether a query was cancelled.
type AbortQueryResponse struct {
	Tab     TabSnapshot
	Aborted bool
}
