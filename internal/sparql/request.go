package sparql

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"pkt.systems/sparqlab/schema"
)

// Prepared is a fully resolved request ready to be sent or rendered.
type Prepared struct {
	Method   string
	URL      string
	Params   url.Values
	Headers  map[string]string
	Mode     string
	Type     string
	Query    string
	Endpoint string
}

// Prepare resolves method, parameters and headers for query under cfg.
// AdjustQueryBeforeRequest, when set, supplies the text that is sent.
func Prepare(cfg schema.EffectiveRequestConfig, tab schema.TabSnapshot, query string) (Prepared, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return Prepared{}, fmt.Errorf("%w: empty endpoint", schema.ErrInvalidEndpoint)
	}
	text := query
	if cfg.AdjustQueryBeforeRequest != nil {
		adjusted := tab
		adjusted.Query = query
		text = cfg.AdjustQueryBeforeRequest(adjusted)
	}
	p := Prepared{
		Endpoint: endpoint,
		Query:    text,
		Mode:     QueryMode(query),
		Type:     QueryType(query),
		Params:   url.Values{},
		Headers:  map[string]string{},
	}

	method, err := schema.NormalizeMethod(cfg.Method)
	if err != nil {
		return Prepared{}, err
	}
	if method == "" {
		method = schema.MethodPOST
	}
	if p.Mode == ModeUpdate {
		method = schema.MethodPOST
	}
	p.Method = method

	arg := cfg.QueryArgument
	if arg == "" {
		arg = p.Mode
	}
	p.Params.Set(arg, text)
	namedParam, defaultParam := "named-graph-uri", "default-graph-uri"
	if p.Mode == ModeUpdate {
		namedParam, defaultParam = "using-named-graph-uri", "using-graph-uri"
	}
	for _, g := range cfg.NamedGraphs {
		p.Params.Add(namedParam, g)
	}
	for _, g := range cfg.DefaultGraphs {
		p.Params.Add(defaultParam, g)
	}
	for _, a := range cfg.Args {
		if a.Name == "" {
			continue
		}
		p.Params.Add(a.Name, a.Value)
	}

	if accept := acceptHeader(cfg, p); accept != "" {
		p.Headers["Accept"] = accept
	}
	for k, v := range cfg.Headers {
		p.Headers[k] = v
	}
	if p.Method == schema.MethodGET {
		p.URL = appendQuery(endpoint, p.Params)
	} else {
		p.URL = endpoint
		p.Headers["Content-Type"] = "application/x-www-form-urlencoded"
	}
	return p, nil
}

func acceptHeader(cfg schema.EffectiveRequestConfig, p Prepared) string {
	if p.Mode == ModeUpdate {
		if cfg.AcceptHeaderUpdate != "" {
			return cfg.AcceptHeaderUpdate
		}
		return schema.DefaultAcceptHeaderUpdate
	}
	switch p.Type {
	case TypeConstruct, TypeDescribe:
		if cfg.AcceptHeaderGraph != "" {
			return cfg.AcceptHeaderGraph
		}
		return schema.DefaultAcceptHeaderGraph
	default:
		if cfg.AcceptHeaderSelect != "" {
			return cfg.AcceptHeaderSelect
		}
		return schema.DefaultAcceptHeaderSelect
	}
}

func appendQuery(endpoint string, params url.Values) string {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + params.Encode()
}

// NewHTTPRequest builds the net/http request for p.
func (p Prepared) NewHTTPRequest(ctx context.Context) (*http.Request, error) {
	var body *strings.Reader
	if p.Method == schema.MethodPOST {
		body = strings.NewReader(p.Params.Encode())
	}
	var (
		req *http.Request
		err error
	)
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, p.Method, p.URL, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, p.Method, p.URL, nil)
	}
	if err != nil {
		return nil, err
	}
	for _, k := range sortedKeys(p.Headers) {
		req.Header.Set(k, p.Headers[k])
	}
	return req, nil
}

// CurlString renders p as an equivalent curl command line.
func (p Prepared) CurlString() string {
	segments := []string{"curl"}
	switch p.Method {
	case schema.MethodGET:
		segments = append(segments, shellQuote(p.URL))
	default:
		segments = append(segments, shellQuote(p.URL), "--data", shellQuote(p.Params.Encode()))
	}
	segments = append(segments, "-X", p.Method)
	for _, k := range sortedKeys(p.Headers) {
		segments = append(segments, "-H", shellQuote(k+": "+p.Headers[k]))
	}
	return strings.Join(segments, " ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
