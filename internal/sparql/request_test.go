package sparql

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"

	"pkt.systems/sparqlab/schema"
)

func effective(cfg schema.RequestConfig) schema.EffectiveRequestConfig {
	return schema.EffectiveRequestConfig{RequestConfig: cfg}
}

func TestPrepareGetEncodesParams(t *testing.T) {
	p, err := Prepare(effective(schema.RequestConfig{
		Endpoint:      "https://example.org/sparql",
		Method:        "get",
		NamedGraphs:   []string{"http://g/1"},
		DefaultGraphs: []string{"http://g/default"},
		Args:          []schema.Arg{{Name: "timeout", Value: "30"}},
		Headers:       map[string]string{"X-Trace": "1"},
	}), schema.TabSnapshot{}, "SELECT * WHERE { ?s ?p ?o }")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if p.Method != schema.MethodGET {
		t.Fatalf("expected GET, got %s", p.Method)
	}
	parsed, err := url.Parse(p.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	q := parsed.Query()
	if q.Get("query") != "SELECT * WHERE { ?s ?p ?o }" {
		t.Fatalf("unexpected query param %q", q.Get("query"))
	}
	if q.Get("named-graph-uri") != "http://g/1" || q.Get("default-graph-uri") != "http://g/default" {
		t.Fatalf("unexpected graph params %v", q)
	}
	if q.Get("timeout") != "30" {
		t.Fatalf("expected extra arg, got %v", q)
	}
	if p.Headers["Accept"] != schema.DefaultAcceptHeaderSelect || p.Headers["X-Trace"] != "1" {
		t.Fatalf("unexpected headers %v", p.Headers)
	}
}

func TestPrepareUpdateForcesPost(t *testing.T) {
	p, err := Prepare(effective(schema.RequestConfig{
		Endpoint:           "https://example.org/sparql",
		Method:             schema.MethodGET,
		DefaultGraphs:      []string{"http://g/d"},
		AcceptHeaderUpdate: "text/plain",
	}), schema.TabSnapshot{}, "INSERT DATA { <a> <b> <c> }")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if p.Method != schema.MethodPOST || p.Mode != ModeUpdate {
		t.Fatalf("expected POST update, got %s %s", p.Method, p.Mode)
	}
	if p.Params.Get("update") == "" || p.Params.Get("using-graph-uri") != "http://g/d" {
		t.Fatalf("unexpected params %v", p.Params)
	}
	if p.Headers["Accept"] != "text/plain" {
		t.Fatalf("unexpected accept %q", p.Headers["Accept"])
	}
	req, err := p.NewHTTPRequest(context.Background())
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	body, _ := io.ReadAll(req.Body)
	if !strings.Contains(string(body), "update=INSERT") {
		t.Fatalf("unexpected body %q", body)
	}
	if req.Header.Get("Content-Type") != "application/x-www-form-urlencoded" {
		t.Fatalf("unexpected content type %q", req.Header.Get("Content-Type"))
	}
}

func TestPrepareGraphQueriesUseGraphAccept(t *testing.T) {
	p, err := Prepare(effective(schema.RequestConfig{Endpoint: "https://example.org/sparql"}), schema.TabSnapshot{}, "DESCRIBE <http://x>")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if p.Headers["Accept"] != schema.DefaultAcceptHeaderGraph {
		t.Fatalf("unexpected accept %q", p.Headers["Accept"])
	}
	if p.Method != schema.MethodPOST {
		t.Fatalf("expected POST default, got %s", p.Method)
	}
}

func TestPrepareAppliesQueryAdjuster(t *testing.T) {
	cfg := effective(schema.RequestConfig{Endpoint: "https://example.org/sparql", QueryArgument: "q"})
	cfg.AdjustQueryBeforeRequest = func(tab schema.TabSnapshot) string {
		return "# " + string(tab.Name) + "\n" + tab.Query
	}
	p, err := Prepare(cfg, schema.TabSnapshot{Name: "Query 1"}, "ASK {}")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if got := p.Params.Get("q"); got != "# Query 1\nASK {}" {
		t.Fatalf("unexpected adjusted query %q", got)
	}
}

func TestPrepareRejectsEmptyEndpoint(t *testing.T) {
	if _, err := Prepare(effective(schema.RequestConfig{}), schema.TabSnapshot{}, "ASK {}"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCurlString(t *testing.T) {
	p, err := Prepare(effective(schema.RequestConfig{Endpoint: "https://example.org/sparql"}), schema.TabSnapshot{}, "ASK {}")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	got := p.CurlString()
	want := "curl 'https://example.org/sparql' --data 'query=ASK+%7B%7D' -X POST -H 'Accept: application/sparql-results+json' -H 'Content-Type: application/x-www-form-urlencoded'"
	if got != want {
		t.Fatalf("unexpected curl:\n%s\nwant:\n%s", got, want)
	}
}
