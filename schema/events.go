package schema

import "time"

// TabEventType names a tab or store notification. The string values are
// part of the public event contract.
type TabEventType string

const (
	// TabEventChange fires after any persisted tab state changed.
	TabEventChange TabEventType = "change"
	// TabEventQuery fires when a query run is requested.
	TabEventQuery TabEventType = "query"
	// TabEventQueryBefore fires just before the network call.
	TabEventQueryBefore TabEventType = "queryBefore"
	// TabEventQueryAbort fires when an in-flight query is cancelled.
	TabEventQueryAbort TabEventType = "queryAbort"
	// TabEventQueryResponse fires when a query completed, successfully or not.
	TabEventQueryResponse TabEventType = "queryResponse"
	// TabEventClose fires when the tab is closed.
	TabEventClose TabEventType = "close"
	// TabEventEndpointChange fires after the tab endpoint changed.
	TabEventEndpointChange TabEventType = "endpointChange"

	// StoreEventTabAdd fires when a tab was added to the store.
	StoreEventTabAdd TabEventType = "tabAdd"
	// StoreEventTabSelect fires when the active tab changed.
	StoreEventTabSelect TabEventType = "tabSelect"
	// StoreEventTabClose fires when a tab was removed from the store.
	StoreEventTabClose TabEventType = "tabClose"
	// StoreEventEndpointHistoryChange fires when the shared endpoint history changed.
	StoreEventEndpointHistoryChange TabEventType = "endpointHistoryChange"
)

// IsStoreEvent reports whether the event concerns the store rather than one tab.
func (t TabEventType) IsStoreEvent() bool {
	switch t {
	case StoreEventTabAdd, StoreEventTabSelect, StoreEventTabClose, StoreEventEndpointHistoryChange:
		return true
	default:
		return false
	}
}

// TabEvent is one notification. Payload fields are set per type:
// change carries Persisted, endpointChange carries Endpoint, queryBefore
// carries Request, queryResponse carries Response and DurationMs,
// endpointHistoryChange carries EndpointHistory.
type TabEvent struct {
	Seq             uint64                  `json:"seq,omitempty"`
	Type            TabEventType            `json:"type"`
	Namespace       Namespace               `json:"namespace,omitempty"`
	TabID           TabID                   `json:"tabId,omitempty"`
	Tab             *TabSnapshot            `json:"tab,omitempty"`
	Persisted       *PersistedTab           `json:"persisted,omitempty"`
	Endpoint        string                  `json:"endpoint,omitempty"`
	EndpointHistory []string                `json:"endpointHistory,omitempty"`
	Request         *EffectiveRequestConfig `json:"request,omitempty"`
	Response        *ResponseSummary        `json:"response,omitempty"`
	DurationMs      int64                   `json:"durationMs,omitempty"`
	Error           string                  `json:"error,omitempty"`
	At              time.Time               `json:"at"`
}
