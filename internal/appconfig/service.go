package appconfig

import (
	"maps"
	"slices"
	"time"

	"pkt.systems/sparqlab/internal/persist"
	"pkt.systems/sparqlab/schema"
)

// ServiceConfig converts the file config into the tab store config.
// Empty request fields are left unset so the built-in defaults apply.
func (c Config) ServiceConfig() (schema.ServiceConfig, error) {
	cfg := schema.ServiceConfig{
		Namespace:                 schema.Namespace(c.Namespace),
		DefaultTabName:            c.Tabs.DefaultName,
		DefaultQuery:              c.Tabs.DefaultQuery,
		EndpointHistoryMax:        c.Tabs.EndpointHistorySize,
		MaxPersistentResponseSize: c.Results.MaxPersistentResponseSize,
		DefaultResultPlugin:       c.Results.DefaultPlugin,
		PersistTTL:                time.Duration(c.Storage.TTLSeconds) * time.Second,
		CORSProxy:                 c.CORS.Proxy,
		Request:                   c.Request.host(),
	}
	if c.Request.Endpoint != "" {
		if _, err := schema.NormalizeEndpoint(c.Request.Endpoint); err != nil {
			return schema.ServiceConfig{}, err
		}
	}
	if _, err := schema.NormalizeMethod(c.Request.Method); err != nil {
		return schema.ServiceConfig{}, err
	}
	return schema.NormalizeServiceConfig(cfg)
}

func (r RequestConfig) host() schema.HostRequestConfig {
	var h schema.HostRequestConfig
	if r.Endpoint != "" {
		h.Endpoint = schema.Literal(r.Endpoint)
	}
	if method, err := schema.NormalizeMethod(r.Method); err == nil && method != "" {
		h.Method = schema.Literal(method)
	}
	if r.QueryArgument != "" {
		h.QueryArgument = schema.Literal(r.QueryArgument)
	}
	if r.AcceptHeaderSelect != "" {
		h.AcceptHeaderSelect = schema.Literal(r.AcceptHeaderSelect)
	}
	if r.AcceptHeaderGraph != "" {
		h.AcceptHeaderGraph = schema.Literal(r.AcceptHeaderGraph)
	}
	if r.AcceptHeaderUpdate != "" {
		h.AcceptHeaderUpdate = schema.Literal(r.AcceptHeaderUpdate)
	}
	if len(r.NamedGraphs) > 0 {
		h.NamedGraphs = schema.Literal(slices.Clone(r.NamedGraphs))
	}
	if len(r.DefaultGraphs) > 0 {
		h.DefaultGraphs = schema.Literal(slices.Clone(r.DefaultGraphs))
	}
	if len(r.Headers) > 0 {
		h.Headers = schema.Literal(maps.Clone(r.Headers))
	}
	if r.WithCredentials {
		h.WithCredentials = schema.Literal(true)
	}
	return h
}

// StorageConfig converts the storage section into a persist config.
func (c Config) StorageConfig() persist.Config {
	return persist.Config{
		Backend:  c.Storage.Backend,
		Dir:      c.Storage.Dir,
		Database: c.Storage.Database,
		Options: persist.Options{
			Namespace:  schema.Namespace(c.Namespace),
			QuotaBytes: c.Storage.QuotaBytes,
		},
	}
}

// RequestTimeout returns the per-request timeout; zero means none.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Request.TimeoutSeconds) * time.Second
}

// ProbeTimeout returns the CORS probe timeout.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.CORS.ProbeTimeoutSeconds) * time.Second
}
