package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/sparqlab/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	Namespace     string        `mapstructure:"namespace" yaml:"namespace"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	Storage       StorageConfig `mapstructure:"storage" yaml:"storage"`
	Tabs          TabsConfig    `mapstructure:"tabs" yaml:"tabs"`
	Request       RequestConfig `mapstructure:"request" yaml:"request"`
	CORS          CORSConfig    `mapstructure:"cors" yaml:"cors"`
	Results       ResultsConfig `mapstructure:"results" yaml:"results"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend"`
	Dir        string `mapstructure:"dir" yaml:"dir"`
	Database   string `mapstructure:"database" yaml:"database"`
	QuotaBytes int64  `mapstructure:"quota_bytes" yaml:"quota_bytes"`
	TTLSeconds int    `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
}

// TabsConfig controls tab defaults.
type TabsConfig struct {
	DefaultName         string `mapstructure:"default_name" yaml:"default_name"`
	DefaultQuery        string `mapstructure:"default_query" yaml:"default_query"`
	EndpointHistorySize int    `mapstructure:"endpoint_history_size" yaml:"endpoint_history_size"`
}

// RequestConfig holds the literal host request defaults.
type RequestConfig struct {
	Endpoint           string            `mapstructure:"endpoint" yaml:"endpoint"`
	Method             string            `mapstructure:"method" yaml:"method"`
	QueryArgument      string            `mapstructure:"query_argument" yaml:"query_argument"`
	AcceptHeaderSelect string            `mapstructure:"accept_header_select" yaml:"accept_header_select"`
	AcceptHeaderGraph  string            `mapstructure:"accept_header_graph" yaml:"accept_header_graph"`
	AcceptHeaderUpdate string            `mapstructure:"accept_header_update" yaml:"accept_header_update"`
	NamedGraphs        []string          `mapstructure:"named_graphs" yaml:"named_graphs"`
	DefaultGraphs      []string          `mapstructure:"default_graphs" yaml:"default_graphs"`
	Headers            map[string]string `mapstructure:"headers" yaml:"headers"`
	WithCredentials    bool              `mapstructure:"with_credentials" yaml:"with_credentials"`
	TimeoutSeconds     int               `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// CORSConfig configures the CORS proxy and capability probe.
type CORSConfig struct {
	Proxy               string `mapstructure:"proxy" yaml:"proxy"`
	ProbeTimeoutSeconds int    `mapstructure:"probe_timeout_seconds" yaml:"probe_timeout_seconds"`
	Heuristic           string `mapstructure:"heuristic" yaml:"heuristic"`
}

// ResultsConfig configures result persistence.
type ResultsConfig struct {
	DefaultPlugin             string `mapstructure:"default_plugin" yaml:"default_plugin"`
	MaxPersistentResponseSize int    `mapstructure:"max_persistent_response_size" yaml:"max_persistent_response_size"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	BasePath string `mapstructure:"base_path" yaml:"base_path"`
}

// LoggingConfig controls the optional rotating log file.
type LoggingConfig struct {
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	stateDir := filepath.Join(home, ".sparqlab", "state")
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Namespace:     string(schema.DefaultNamespace),
		StateDir:      stateDir,
		Storage: StorageConfig{
			Backend:    "file",
			Dir:        filepath.Join(stateDir, "tabs"),
			Database:   filepath.Join(stateDir, "sparqlab.db"),
			QuotaBytes: 5 << 20,
			TTLSeconds: int(schema.DefaultPersistTTL.Seconds()),
		},
		Tabs: TabsConfig{
			DefaultName:         schema.DefaultTabName,
			DefaultQuery:        schema.DefaultQuery,
			EndpointHistorySize: schema.DefaultEndpointHistoryMax,
		},
		Request: RequestConfig{
			Endpoint:           schema.DefaultEndpoint,
			Method:             schema.MethodPOST,
			QueryArgument:      "",
			AcceptHeaderSelect: schema.DefaultAcceptHeaderSelect,
			AcceptHeaderGraph:  schema.DefaultAcceptHeaderGraph,
			AcceptHeaderUpdate: schema.DefaultAcceptHeaderUpdate,
			NamedGraphs:        []string{},
			DefaultGraphs:      []string{},
			Headers:            map[string]string{},
			WithCredentials:    false,
			TimeoutSeconds:     0,
		},
		CORS: CORSConfig{
			Proxy:               "",
			ProbeTimeoutSeconds: 10,
			Heuristic:           "default",
		},
		Results: ResultsConfig{
			DefaultPlugin:             schema.DefaultResultPlugin,
			MaxPersistentResponseSize: schema.DefaultMaxPersistentResponseSize,
		},
		HTTP: HTTPConfig{
			Addr:     "127.0.0.1:27580",
			BasePath: "",
		},
		Logging: LoggingConfig{
			File:       "",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sparqlab", "config.yaml"), nil
}
