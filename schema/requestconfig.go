package schema

import (
	"maps"
	"slices"
)

const (
	// DefaultAcceptHeaderGraph is used for CONSTRUCT and DESCRIBE queries.
	DefaultAcceptHeaderGraph = "text/turtle"
	// DefaultAcceptHeaderSelect is used for SELECT and ASK queries.
	DefaultAcceptHeaderSelect = "application/sparql-results+json"
	// DefaultAcceptHeaderUpdate is used for SPARQL updates.
	DefaultAcceptHeaderUpdate = "text/plain,*/*;q=0.9"
	// DefaultQueryArgument is the parameter carrying the query text.
	DefaultQueryArgument = "query"
	// DefaultEndpoint is the endpoint new tabs start with.
	DefaultEndpoint = "https://dbpedia.org/sparql"
)

// Arg is an extra request parameter.
type Arg struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RequestConfig is the serializable part of a request configuration.
// Empty fields are unset and inherit from lower layers.
type RequestConfig struct {
	QueryArgument      string            `json:"queryArgument,omitempty"`
	Endpoint           string            `json:"endpoint,omitempty"`
	Method             string            `json:"method,omitempty"`
	AcceptHeaderSelect string            `json:"acceptHeaderSelect,omitempty"`
	AcceptHeaderGraph  string            `json:"acceptHeaderGraph,omitempty"`
	AcceptHeaderUpdate string            `json:"acceptHeaderUpdate,omitempty"`
	NamedGraphs        []string          `json:"namedGraphs,omitempty"`
	DefaultGraphs      []string          `json:"defaultGraphs,omitempty"`
	Args               []Arg             `json:"args,omitempty"`
	Headers            map[string]string `json:"headers,omitempty"`
	WithCredentials    *bool             `json:"withCredentials,omitempty"`
}

// Clone returns a deep copy.
func (c RequestConfig) Clone() RequestConfig {
	out := c
	out.NamedGraphs = slices.Clone(c.NamedGraphs)
	out.DefaultGraphs = slices.Clone(c.DefaultGraphs)
	out.Args = slices.Clone(c.Args)
	out.Headers = maps.Clone(c.Headers)
	if c.WithCredentials != nil {
		v := *c.WithCredentials
		out.WithCredentials = &v
	}
	return out
}

// Merge layers top over c. Scalars set in top replace, list fields
// concatenate (c first) and headers merge key-wise.
func (c RequestConfig) Merge(top RequestConfig) RequestConfig {
	out := c.Clone()
	out.overlayScalars(top)
	out.NamedGraphs = appendNonNil(out.NamedGraphs, top.NamedGraphs)
	out.DefaultGraphs = appendNonNil(out.DefaultGraphs, top.DefaultGraphs)
	if len(top.Args) > 0 {
		out.Args = append(out.Args, top.Args...)
	}
	if len(top.Headers) > 0 {
		if out.Headers == nil {
			out.Headers = make(map[string]string, len(top.Headers))
		}
		maps.Copy(out.Headers, top.Headers)
	}
	return out
}

// Override layers top over c, replacing every field top sets, lists included.
func (c RequestConfig) Override(top RequestConfig) RequestConfig {
	out := c.Clone()
	out.overlayScalars(top)
	if top.NamedGraphs != nil {
		out.NamedGraphs = slices.Clone(top.NamedGraphs)
	}
	if top.DefaultGraphs != nil {
		out.DefaultGraphs = slices.Clone(top.DefaultGraphs)
	}
	if top.Args != nil {
		out.Args = slices.Clone(top.Args)
	}
	if top.Headers != nil {
		out.Headers = maps.Clone(top.Headers)
	}
	return out
}

func (c *RequestConfig) overlayScalars(top RequestConfig) {
	if top.QueryArgument != "" {
		c.QueryArgument = top.QueryArgument
	}
	if top.Endpoint != "" {
		c.Endpoint = top.Endpoint
	}
	if top.Method != "" {
		c.Method = top.Method
	}
	if top.AcceptHeaderSelect != "" {
		c.AcceptHeaderSelect = top.AcceptHeaderSelect
	}
	if top.AcceptHeaderGraph != "" {
		c.AcceptHeaderGraph = top.AcceptHeaderGraph
	}
	if top.AcceptHeaderUpdate != "" {
		c.AcceptHeaderUpdate = top.AcceptHeaderUpdate
	}
	if top.WithCredentials != nil {
		v := *top.WithCredentials
		c.WithCredentials = &v
	}
}

func appendNonNil(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	return append(base, extra...)
}

// QueryAdjuster rewrites the query text right before it is sent.
type QueryAdjuster func(tab TabSnapshot) string

// HostRequestConfig is the host application's request configuration.
// Literal fields seed new tabs; Computed fields are evaluated per tab on
// every resolution.
type HostRequestConfig struct {
	QueryArgument      Value[string]
	Endpoint           Value[string]
	Method             Value[string]
	AcceptHeaderSelect Value[string]
	AcceptHeaderGraph  Value[string]
	AcceptHeaderUpdate Value[string]
	NamedGraphs        Value[[]string]
	DefaultGraphs      Value[[]string]
	Args               Value[[]Arg]
	Headers            Value[map[string]string]
	WithCredentials    Value[bool]
	// AdjustQueryBeforeRequest is passed through to the transport untouched.
	AdjustQueryBeforeRequest QueryAdjuster
}

// Literals returns the Literal subset as a plain config.
func (h HostRequestConfig) Literals() RequestConfig {
	var out RequestConfig
	out.QueryArgument, _ = h.QueryArgument.LiteralValue()
	out.Endpoint, _ = h.Endpoint.LiteralValue()
	out.Method, _ = h.Method.LiteralValue()
	out.AcceptHeaderSelect, _ = h.AcceptHeaderSelect.LiteralValue()
	out.AcceptHeaderGraph, _ = h.AcceptHeaderGraph.LiteralValue()
	out.AcceptHeaderUpdate, _ = h.AcceptHeaderUpdate.LiteralValue()
	if v, ok := h.NamedGraphs.LiteralValue(); ok {
		out.NamedGraphs = slices.Clone(v)
	}
	if v, ok := h.DefaultGraphs.LiteralValue(); ok {
		out.DefaultGraphs = slices.Clone(v)
	}
	if v, ok := h.Args.LiteralValue(); ok {
		out.Args = slices.Clone(v)
	}
	if v, ok := h.Headers.LiteralValue(); ok {
		out.Headers = maps.Clone(v)
	}
	if v, ok := h.WithCredentials.LiteralValue(); ok {
		out.WithCredentials = &v
	}
	return out
}

// Computed evaluates the Computed subset for tab. Literal fields are left unset.
func (h HostRequestConfig) Computed(tab TabSnapshot) RequestConfig {
	var out RequestConfig
	if h.QueryArgument.IsComputed() {
		out.QueryArgument = h.QueryArgument.Eval(tab)
	}
	if h.Endpoint.IsComputed() {
		out.Endpoint = h.Endpoint.Eval(tab)
	}
	if h.Method.IsComputed() {
		out.Method = h.Method.Eval(tab)
	}
	if h.AcceptHeaderSelect.IsComputed() {
		out.AcceptHeaderSelect = h.AcceptHeaderSelect.Eval(tab)
	}
	if h.AcceptHeaderGraph.IsComputed() {
		out.AcceptHeaderGraph = h.AcceptHeaderGraph.Eval(tab)
	}
	if h.AcceptHeaderUpdate.IsComputed() {
		out.AcceptHeaderUpdate = h.AcceptHeaderUpdate.Eval(tab)
	}
	if h.NamedGraphs.IsComputed() {
		out.NamedGraphs = h.NamedGraphs.Eval(tab)
	}
	if h.DefaultGraphs.IsComputed() {
		out.DefaultGraphs = h.DefaultGraphs.Eval(tab)
	}
	if h.Args.IsComputed() {
		out.Args = h.Args.Eval(tab)
	}
	if h.Headers.IsComputed() {
		out.Headers = h.Headers.Eval(tab)
	}
	if h.WithCredentials.IsComputed() {
		v := h.WithCredentials.Eval(tab)
		out.WithCredentials = &v
	}
	return out
}

// EffectiveRequestConfig is the resolved configuration for one request.
type EffectiveRequestConfig struct {
	RequestConfig
	// Proxied is set when the request is routed through the CORS proxy.
	Proxied                  bool          `json:"proxied,omitempty"`
	AdjustQueryBeforeRequest QueryAdjuster `json:"-"`
}

// Credentials reports whether cookies should accompany the request.
func (e EffectiveRequestConfig) Credentials() bool {
	return e.WithCredentials != nil && *e.WithCredentials
}
