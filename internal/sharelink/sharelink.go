package sharelink

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"pkt.systems/sparqlab/schema"
)

// Parameter names used in share links.
const (
	ParamQuery                = "query"
	ParamEndpoint             = "endpoint"
	ParamRequestMethod        = "requestMethod"
	ParamTabTitle             = "tabTitle"
	ParamHeaders              = "headers"
	ParamContentTypeConstruct = "contentTypeConstruct"
	ParamContentTypeSelect    = "contentTypeSelect"
	ParamNamedGraph           = "namedGraph"
	ParamDefaultGraph         = "defaultGraph"
	ParamOutputFormat         = "outputFormat"
)

var reserved = []string{
	ParamQuery, ParamEndpoint, ParamRequestMethod, ParamTabTitle, ParamHeaders,
	ParamContentTypeConstruct, ParamContentTypeSelect, ParamNamedGraph,
	ParamDefaultGraph, ParamOutputFormat,
}

// Config is the shareable part of a tab.
type Config struct {
	Query                string            `json:"query"`
	Endpoint             string            `json:"endpoint"`
	RequestMethod        string            `json:"requestMethod,omitempty"`
	TabTitle             string            `json:"tabTitle,omitempty"`
	Headers              map[string]string `json:"headers,omitempty"`
	ContentTypeConstruct string            `json:"contentTypeConstruct,omitempty"`
	ContentTypeSelect    string            `json:"contentTypeSelect,omitempty"`
	NamedGraphs          []string          `json:"namedGraphs,omitempty"`
	DefaultGraphs        []string          `json:"defaultGraphs,omitempty"`
	Args                 []schema.Arg      `json:"args,omitempty"`
	OutputFormat         string            `json:"outputFormat,omitempty"`
}

// FromTab builds the share config of tab using its effective request settings.
func FromTab(tab schema.TabSnapshot, effective schema.EffectiveRequestConfig) Config {
	endpoint := tab.Endpoint
	if endpoint == "" || effective.Proxied {
		endpoint = effective.Endpoint
	}
	return Config{
		Query:                tab.Query,
		Endpoint:             endpoint,
		RequestMethod:        effective.Method,
		TabTitle:             string(tab.Name),
		Headers:              effective.Headers,
		ContentTypeConstruct: effective.AcceptHeaderGraph,
		ContentTypeSelect:    effective.AcceptHeaderSelect,
		NamedGraphs:          effective.NamedGraphs,
		DefaultGraphs:        effective.DefaultGraphs,
		Args:                 effective.Args,
		OutputFormat:         tab.Settings.SelectedPlugin,
	}
}

// Values encodes cfg as URL parameters. Extra args keep their own names.
func (c Config) Values() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	values.Set(ParamQuery, c.Query)
	set(ParamEndpoint, c.Endpoint)
	set(ParamRequestMethod, c.RequestMethod)
	set(ParamTabTitle, c.TabTitle)
	if len(c.Headers) > 0 {
		data, _ := json.Marshal(c.Headers)
		values.Set(ParamHeaders, string(data))
	}
	set(ParamContentTypeConstruct, c.ContentTypeConstruct)
	set(ParamContentTypeSelect, c.ContentTypeSelect)
	for _, g := range c.NamedGraphs {
		values.Add(ParamNamedGraph, g)
	}
	for _, g := range c.DefaultGraphs {
		values.Add(ParamDefaultGraph, g)
	}
	set(ParamOutputFormat, c.OutputFormat)
	for _, arg := range c.Args {
		if arg.Name == "" || slices.Contains(reserved, arg.Name) {
			continue
		}
		values.Add(arg.Name, arg.Value)
	}
	return values
}

// Encode appends cfg to base as a URL fragment.
func Encode(base string, cfg Config) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse share base: %w", err)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String() + "#" + cfg.Values().Encode(), nil
}

// Decode reads a share link. Parameters are taken from the fragment, or
// from the query string when the fragment is empty.
func Decode(link string) (Config, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return Config{}, fmt.Errorf("%w: empty share link", schema.ErrInvalidRequest)
	}
	raw := link
	if u, err := url.Parse(link); err == nil && (u.Scheme != "" || u.Fragment != "" || u.RawQuery != "") {
		raw = u.EscapedFragment()
		if raw == "" {
			raw = u.RawQuery
		}
	} else {
		raw = strings.TrimPrefix(raw, "#")
		raw = strings.TrimPrefix(raw, "?")
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%w: share link: %v", schema.ErrInvalidRequest, err)
	}
	return FromValues(values)
}

// FromValues decodes share parameters. A link must carry a query.
func FromValues(values url.Values) (Config, error) {
	if !values.Has(ParamQuery) {
		return Config{}, fmt.Errorf("%w: share link has no query", schema.ErrInvalidRequest)
	}
	cfg := Config{
		Query:                values.Get(ParamQuery),
		Endpoint:             values.Get(ParamEndpoint),
		RequestMethod:        strings.ToUpper(values.Get(ParamRequestMethod)),
		TabTitle:             values.Get(ParamTabTitle),
		ContentTypeConstruct: values.Get(ParamContentTypeConstruct),
		ContentTypeSelect:    values.Get(ParamContentTypeSelect),
		NamedGraphs:          values[ParamNamedGraph],
		DefaultGraphs:        values[ParamDefaultGraph],
		OutputFormat:         values.Get(ParamOutputFormat),
	}
	if raw := values.Get(ParamHeaders); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.Headers); err != nil {
			return Config{}, fmt.Errorf("%w: share link headers: %v", schema.ErrInvalidRequest, err)
		}
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		if !slices.Contains(reserved, key) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	for _, key := range keys {
		for _, v := range values[key] {
			cfg.Args = append(cfg.Args, schema.Arg{Name: key, Value: v})
		}
	}
	return cfg, nil
}

// CreateTabRequest turns cfg into a request for a new, selected tab.
func (c Config) CreateTabRequest() schema.CreateTabRequest {
	query := c.Query
	req := schema.CreateTabRequest{
		Name:   schema.TabName(strings.TrimSpace(c.TabTitle)),
		Query:  &query,
		Select: true,
		RequestConfig: schema.RequestConfig{
			Endpoint:           c.Endpoint,
			Method:             c.RequestMethod,
			AcceptHeaderGraph:  c.ContentTypeConstruct,
			AcceptHeaderSelect: c.ContentTypeSelect,
			NamedGraphs:        slices.Clone(c.NamedGraphs),
			DefaultGraphs:      slices.Clone(c.DefaultGraphs),
			Args:               slices.Clone(c.Args),
		},
	}
	if len(c.Headers) > 0 {
		req.RequestConfig.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			req.RequestConfig.Headers[k] = v
		}
	}
	if c.OutputFormat != "" {
		req.Settings = &schema.ResultSettings{SelectedPlugin: c.OutputFormat}
	}
	return req
}
