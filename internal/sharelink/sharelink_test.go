package sharelink

import (
	"errors"
	"strings"
	"testing"

	"pkt.systems/sparqlab/schema"
)

func TestEncodeDecodeKeepsTabFields(t *testing.T) {
	tab := schema.TabSnapshot{
		ID:       "t1",
		Name:     "People",
		Query:    "SELECT * WHERE { ?s ?p ?o }",
		Endpoint: "https://example.org/sparql",
		Settings: schema.ResultSettings{SelectedPlugin: "response"},
	}
	effective := schema.EffectiveRequestConfig{RequestConfig: schema.RequestConfig{
		Endpoint:           "https://example.org/sparql",
		Method:             schema.MethodGET,
		AcceptHeaderGraph:  "text/turtle",
		AcceptHeaderSelect: "application/sparql-results+json",
		NamedGraphs:        []string{"urn:g1", "urn:g2"},
		DefaultGraphs:      []string{"urn:d"},
		Args:               []schema.Arg{{Name: "timeout", Value: "30"}},
		Headers:            map[string]string{"X-Trace": "1"},
	}}
	link, err := Encode("https://lab.example/ui?x=1#old", FromTab(tab, effective))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(link, "https://lab.example/ui?x=1#") {
		t.Fatalf("unexpected link prefix: %s", link)
	}
	cfg, err := Decode(link)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Query != tab.Query || cfg.Endpoint != tab.Endpoint || cfg.TabTitle != "People" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.RequestMethod != "GET" || cfg.ContentTypeConstruct != "text/turtle" {
		t.Fatalf("unexpected request fields: %+v", cfg)
	}
	if len(cfg.NamedGraphs) != 2 || cfg.NamedGraphs[1] != "urn:g2" || len(cfg.DefaultGraphs) != 1 {
		t.Fatalf("unexpected graphs: %+v", cfg)
	}
	if cfg.Headers["X-Trace"] != "1" {
		t.Fatalf("unexpected headers: %+v", cfg.Headers)
	}
	if len(cfg.Args) != 1 || cfg.Args[0] != (schema.Arg{Name: "timeout", Value: "30"}) {
		t.Fatalf("unexpected args: %+v", cfg.Args)
	}
	if cfg.OutputFormat != "response" {
		t.Fatalf("expected output format, got %q", cfg.OutputFormat)
	}
}

func TestFromTabUsesUnproxiedEndpoint(t *testing.T) {
	tab := schema.TabSnapshot{Endpoint: "https://example.org/sparql"}
	effective := schema.EffectiveRequestConfig{
		RequestConfig: schema.RequestConfig{Endpoint: "https://proxy.example/"},
		Proxied:       true,
	}
	if got := FromTab(tab, effective).Endpoint; got != "https://proxy.example/" {
		t.Fatalf("expected proxied endpoint, got %q", got)
	}
	effective.Proxied = false
	if got := FromTab(tab, effective).Endpoint; got != "https://example.org/sparql" {
		t.Fatalf("expected tab endpoint, got %q", got)
	}
}

func TestDecodeReadsQueryString(t *testing.T) {
	cfg, err := Decode("https://lab.example/?query=ASK%7B%7D&requestMethod=post")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Query != "ASK{}" || cfg.RequestMethod != "POST" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestDecodeRejectsLinksWithoutQuery(t *testing.T) {
	if _, err := Decode("https://lab.example/#endpoint=x"); !errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := Decode("#query=x&headers=notjson"); !errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for bad headers, got %v", err)
	}
}

func TestCreateTabRequest(t *testing.T) {
	cfg := Config{Query: "ASK {}", Endpoint: "https://example.org/sparql", TabTitle: " Shared ", OutputFormat: "table"}
	req := cfg.CreateTabRequest()
	if req.Name != "Shared" || req.Query == nil || *req.Query != "ASK {}" || !req.Select {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.RequestConfig.Endpoint != cfg.Endpoint {
		t.Fatalf("unexpected endpoint: %q", req.RequestConfig.Endpoint)
	}
	if req.Settings == nil || req.Settings.SelectedPlugin != "table" {
		t.Fatalf("unexpected settings: %+v", req.Settings)
	}
}
