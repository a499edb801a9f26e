package core

import (
	"pkt.systems/sparqlab/schema"
)

// Resolver produces the effective request configuration of a tab.
type Resolver struct {
	host  schema.HostRequestConfig
	proxy string
	cors  *CORSCache
}

// NewResolver constructs a resolver. proxy may be empty; cors may be nil
// when no proxy is configured.
func NewResolver(host schema.HostRequestConfig, proxy string, cors *CORSCache) *Resolver {
	return &Resolver{host: host, proxy: proxy, cors: cors}
}

// Defaults returns the built-in literal defaults.
func Defaults() schema.RequestConfig {
	return schema.RequestConfig{
		AcceptHeaderGraph:  schema.DefaultAcceptHeaderGraph,
		AcceptHeaderSelect: schema.DefaultAcceptHeaderSelect,
	}
}

// Resolve layers the tab's persisted config and the host's Computed
// fields over the defaults, then applies the proxy rewrite. It does no
// I/O apart from starting a background capability probe.
func (r *Resolver) Resolve(tab schema.TabSnapshot) schema.EffectiveRequestConfig {
	merged := tab.RequestConfig.Merge(r.host.Computed(tab))
	out := schema.EffectiveRequestConfig{
		RequestConfig:            Defaults().Override(merged),
		AdjustQueryBeforeRequest: r.host.AdjustQueryBeforeRequest,
	}
	if r.proxy == "" {
		return out
	}
	endpoint, method := out.Endpoint, out.Method
	if r.cors != nil {
		if r.cors.Enabled(endpoint) {
			return out
		}
		r.cors.Check(endpoint)
	}
	out.Args = append(out.Args,
		schema.Arg{Name: "endpoint", Value: endpoint},
		schema.Arg{Name: "method", Value: method},
	)
	out.Method = schema.MethodPOST
	out.Endpoint = r.proxy
	out.Proxied = true
	return out
}

// Proxy returns the configured proxy endpoint.
func (r *Resolver) Proxy() string { return r.proxy }
