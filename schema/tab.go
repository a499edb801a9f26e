package schema

import (
	"encoding/json"
	"maps"
	"slices"
)

// TabStatus describes the query lifecycle state of a tab.
type TabStatus string

const (
	// TabStatusIdle indicates no query is in flight.
	TabStatusIdle TabStatus = "idle"
	// TabStatusQuerying indicates a query is in flight.
	TabStatusQuerying TabStatus = "querying"
)

// QueryOutcome records how the last query of a tab ended.
type QueryOutcome string

const (
	// QueryOutcomeSuccess indicates the last query returned a usable response.
	QueryOutcomeSuccess QueryOutcome = "success"
	// QueryOutcomeError indicates the last query failed.
	QueryOutcomeError QueryOutcome = "error"
	// QueryOutcomeAborted indicates the last query was cancelled.
	QueryOutcomeAborted QueryOutcome = "aborted"
)

// DefaultResultPlugin is the results plugin new tabs select.
const DefaultResultPlugin = "table"

// QueryState is the persisted editor state of a tab.
type QueryState struct {
	Value        string `json:"value"`
	EditorHeight string `json:"editorHeight,omitempty"`
}

// ResultSettings is the persistent results viewer configuration.
type ResultSettings struct {
	SelectedPlugin string                     `json:"selectedPlugin"`
	PluginsConfig  map[string]json.RawMessage `json:"pluginsConfig"`
}

// Clone returns a deep copy.
func (s ResultSettings) Clone() ResultSettings {
	out := ResultSettings{SelectedPlugin: s.SelectedPlugin}
	if s.PluginsConfig != nil {
		out.PluginsConfig = make(map[string]json.RawMessage, len(s.PluginsConfig))
		for k, v := range s.PluginsConfig {
			out.PluginsConfig[k] = slices.Clone(v)
		}
	}
	return out
}

// ResponseError describes a failed query response.
type ResponseError struct {
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"statusText,omitempty"`
	Text       string `json:"text,omitempty"`
}

// ResponseSummary is the storable form of a query response.
type ResponseSummary struct {
	Status          int               `json:"status,omitempty"`
	ContentType     string            `json:"contentType,omitempty"`
	Data            string            `json:"data,omitempty"`
	ExecutionTimeMs int64             `json:"executionTime"`
	Headers         map[string]string `json:"headers,omitempty"`
	Error           *ResponseError    `json:"error,omitempty"`
	// Truncated marks a summary whose data exceeded the persisted size cap.
	Truncated bool `json:"truncated,omitempty"`
}

// Clone returns a deep copy.
func (r *ResponseSummary) Clone() *ResponseSummary {
	if r == nil {
		return nil
	}
	out := *r
	out.Headers = maps.Clone(r.Headers)
	if r.Error != nil {
		e := *r.Error
		out.Error = &e
	}
	return &out
}

// ResultState is the persisted results section of a tab.
type ResultState struct {
	Settings ResultSettings   `json:"settings"`
	Response *ResponseSummary `json:"response,omitempty"`
}

// PersistedTab is the serializable state of a tab.
type PersistedTab struct {
	ID            TabID         `json:"id"`
	Name          TabName       `json:"name"`
	Query         QueryState    `json:"query"`
	Result        ResultState   `json:"result"`
	RequestConfig RequestConfig `json:"requestConfig"`
}

// Clone returns a deep copy.
func (p PersistedTab) Clone() PersistedTab {
	out := p
	out.Result.Settings = p.Result.Settings.Clone()
	out.Result.Response = p.Result.Response.Clone()
	out.RequestConfig = p.RequestConfig.Clone()
	return out
}

// TabList is the persisted tab index of a store.
type TabList struct {
	Tabs            []TabID  `json:"tabs"`
	Active          TabID    `json:"active,omitempty"`
	EndpointHistory []string `json:"endpointHistory,omitempty"`
}

// TabSnapshot is a read-only view of tab state for transports and
// Computed request settings.
type TabSnapshot struct {
	ID             TabID            `json:"id"`
	Name           TabName          `json:"name"`
	Query          string           `json:"query"`
	EditorHeight   string           `json:"editorHeight,omitempty"`
	Endpoint       string           `json:"endpoint"`
	RequestConfig  RequestConfig    `json:"requestConfig"`
	Settings       ResultSettings   `json:"settings"`
	Result         *ResponseSummary `json:"result,omitempty"`
	Status         TabStatus        `json:"status"`
	LastOutcome    QueryOutcome     `json:"lastOutcome,omitempty"`
	Active         bool             `json:"active"`
	EditorAttached bool             `json:"editorAttached"`
}
