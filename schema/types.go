package schema

// TabID identifies a query tab.
type TabID string

// TabName is the user-facing label of a tab.
type TabName string

// Namespace scopes persisted keys for one tab store.
type Namespace string

const (
	// MethodGET sends the query in the URL.
	MethodGET = "GET"
	// MethodPOST sends the query as a form body.
	MethodPOST = "POST"
)
