package schema

import (
	"strings"
	"time"
)

// ServiceConfig defines defaults and limits for the tab store.
type ServiceConfig struct {
	Namespace Namespace
	// DefaultTabName is the base for generated tab names.
	DefaultTabName string
	DefaultQuery   string
	TabNameMax     int
	// EndpointHistoryMax caps the shared endpoint history.
	EndpointHistoryMax int
	// MaxPersistentResponseSize caps the stored result data in bytes.
	// Zero takes the default; a negative value stores no result data.
	MaxPersistentResponseSize int
	DefaultResultPlugin       string
	// PersistTTL is the expiry of persisted entries; zero disables expiry.
	PersistTTL time.Duration
	// CORSProxy routes requests to endpoints that failed the capability probe.
	CORSProxy string
	Request   HostRequestConfig
}

const (
	// DefaultTabName is the base name of new tabs.
	DefaultTabName = "Query"
	// DefaultNamespace scopes storage when none is configured.
	DefaultNamespace Namespace = "sparqlab"
	// DefaultEndpointHistoryMax is the default endpoint history cap.
	DefaultEndpointHistoryMax = 50
	// DefaultMaxPersistentResponseSize is the default stored result cap.
	DefaultMaxPersistentResponseSize = 100000
	// DefaultPersistTTL keeps persisted tabs for 30 days.
	DefaultPersistTTL = 30 * 24 * time.Hour
	// DefaultQuery seeds the editor of new tabs.
	DefaultQuery = "SELECT * WHERE {\n  ?sub ?pred ?obj .\n} LIMIT 10"
)

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	cfg.Namespace = Namespace(strings.TrimSpace(string(cfg.Namespace)))
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if strings.TrimSpace(cfg.DefaultTabName) == "" {
		cfg.DefaultTabName = DefaultTabName
	}
	if cfg.DefaultQuery == "" {
		cfg.DefaultQuery = DefaultQuery
	}
	if cfg.TabNameMax <= 0 {
		cfg.TabNameMax = 64
	}
	if cfg.EndpointHistoryMax <= 0 {
		cfg.EndpointHistoryMax = DefaultEndpointHistoryMax
	}
	switch {
	case cfg.MaxPersistentResponseSize == 0:
		cfg.MaxPersistentResponseSize = DefaultMaxPersistentResponseSize
	case cfg.MaxPersistentResponseSize < 0:
		cfg.MaxPersistentResponseSize = 0
	}
	if cfg.DefaultResultPlugin == "" {
		cfg.DefaultResultPlugin = DefaultResultPlugin
	}
	if cfg.PersistTTL < 0 {
		cfg.PersistTTL = 0
	}
	cfg.CORSProxy = strings.TrimSpace(cfg.CORSProxy)
	if cfg.CORSProxy != "" {
		proxy, err := NormalizeEndpoint(cfg.CORSProxy)
		if err != nil {
			return ServiceConfig{}, err
		}
		cfg.CORSProxy = proxy
	}
	if !cfg.Request.Endpoint.IsSet() {
		cfg.Request.Endpoint = Literal(DefaultEndpoint)
	}
	if !cfg.Request.Method.IsSet() {
		cfg.Request.Method = Literal(MethodPOST)
	}
	return cfg, nil
}
