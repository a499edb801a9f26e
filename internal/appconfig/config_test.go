package appconfig

import "testing"

func TestDefaultConfigServiceConfig(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	svc, err := cfg.ServiceConfig()
	if err != nil {
		t.Fatalf("service config: %v", err)
	}
	if svc.CORSProxy != "" {
		t.Fatalf("expected no proxy by default")
	}
	if cfg.ProbeTimeout() <= 0 {
		t.Fatalf("expected probe timeout")
	}
}
