package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
// A missing file yields the defaults. Environment variables prefixed with
// SPARQLAB_ override file values (SPARQLAB_HTTP_ADDR for http.addr).
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("sparqlab")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("namespace", cfg.Namespace)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.dir", cfg.Storage.Dir)
	v.SetDefault("storage.database", cfg.Storage.Database)
	v.SetDefault("storage.quota_bytes", cfg.Storage.QuotaBytes)
	v.SetDefault("storage.ttl_seconds", cfg.Storage.TTLSeconds)
	v.SetDefault("tabs.default_name", cfg.Tabs.DefaultName)
	v.SetDefault("tabs.default_query", cfg.Tabs.DefaultQuery)
	v.SetDefault("tabs.endpoint_history_size", cfg.Tabs.EndpointHistorySize)
	v.SetDefault("request.endpoint", cfg.Request.Endpoint)
	v.SetDefault("request.method", cfg.Request.Method)
	v.SetDefault("request.query_argument", cfg.Request.QueryArgument)
	v.SetDefault("request.accept_header_select", cfg.Request.AcceptHeaderSelect)
	v.SetDefault("request.accept_header_graph", cfg.Request.AcceptHeaderGraph)
	v.SetDefault("request.accept_header_update", cfg.Request.AcceptHeaderUpdate)
	v.SetDefault("request.named_graphs", cfg.Request.NamedGraphs)
	v.SetDefault("request.default_graphs", cfg.Request.DefaultGraphs)
	v.SetDefault("request.headers", cfg.Request.Headers)
	v.SetDefault("request.with_credentials", cfg.Request.WithCredentials)
	v.SetDefault("request.timeout_seconds", cfg.Request.TimeoutSeconds)
	v.SetDefault("cors.proxy", cfg.CORS.Proxy)
	v.SetDefault("cors.probe_timeout_seconds", cfg.CORS.ProbeTimeoutSeconds)
	v.SetDefault("cors.heuristic", cfg.CORS.Heuristic)
	v.SetDefault("results.default_plugin", cfg.Results.DefaultPlugin)
	v.SetDefault("results.max_persistent_response_size", cfg.Results.MaxPersistentResponseSize)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.base_path", cfg.HTTP.BasePath)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", cfg.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", cfg.Logging.Compress)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		// IsSet is always true here because of the default above.
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Namespace) == "" {
		return fmt.Errorf("namespace is required")
	}
	switch cfg.Storage.Backend {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("unsupported storage.backend %q", cfg.Storage.Backend)
	}
	if cfg.Storage.QuotaBytes < 0 {
		return fmt.Errorf("storage.quota_bytes must not be negative")
	}
	switch cfg.CORS.Heuristic {
	case "", "default", "strict", "always":
	default:
		return fmt.Errorf("unsupported cors.heuristic %q", cfg.CORS.Heuristic)
	}
	basePath := strings.TrimSpace(cfg.HTTP.BasePath)
	if basePath != "" {
		if strings.Contains(basePath, "://") {
			return fmt.Errorf("http.base_path must be a path prefix, not a URL")
		}
		if strings.ContainsAny(basePath, "?#") {
			return fmt.Errorf("http.base_path must not include query or fragment")
		}
	}
	if _, err := cfg.ServiceConfig(); err != nil {
		return err
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.Storage.Dir = expandEnv(cfg.Storage.Dir)
	cfg.Storage.Database = expandEnv(cfg.Storage.Database)
	cfg.Logging.File = expandEnv(cfg.Logging.File)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
