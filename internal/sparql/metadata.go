package sparql

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"pkt.systems/sparqlab/schema"
)

// MetadataTimeout bounds endpoint metadata lookups.
const MetadataTimeout = 5 * time.Second

const prefixQuery = `PREFIX sh: <http://www.w3.org/ns/shacl#>
SELECT DISTINCT ?prefix ?namespace
WHERE { [] sh:namespace ?namespace ; sh:prefix ?prefix }
ORDER BY ?prefix`

// FallbackPrefixes is used when an endpoint publishes no SHACL prefixes.
var FallbackPrefixes = map[string]string{
	"rdf":     "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"rdfs":    "http://www.w3.org/2000/01/rdf-schema#",
	"owl":     "http://www.w3.org/2002/07/owl#",
	"xsd":     "http://www.w3.org/2001/XMLSchema#",
	"skos":    "http://www.w3.org/2004/02/skos/core#",
	"foaf":    "http://xmlns.com/foaf/0.1/",
	"dc":      "http://purl.org/dc/elements/1.1/",
	"dcterms": "http://purl.org/dc/terms/",
}

// Metadata describes an endpoint for display and completion.
type Metadata struct {
	Name      string            `json:"name"`
	Slug      string            `json:"slug"`
	URL       string            `json:"url"`
	PrefixMap map[string]string `json:"prefixMap"`
	// Fallback is set when PrefixMap came from FallbackPrefixes.
	Fallback bool `json:"fallback,omitempty"`
}

// FetchMetadata looks up the endpoint's SHACL prefix declarations. Lookup
// failures fall back to FallbackPrefixes and are returned alongside.
func (c *Client) FetchMetadata(ctx context.Context, endpoint string) (Metadata, error) {
	meta := Metadata{Name: EndpointName(endpoint), Slug: Slug(endpoint), URL: endpoint}
	prefixes, err := c.FetchPrefixMap(ctx, endpoint)
	if err != nil || len(prefixes) == 0 {
		meta.PrefixMap = make(map[string]string, len(FallbackPrefixes))
		for k, v := range FallbackPrefixes {
			meta.PrefixMap[k] = v
		}
		meta.Fallback = true
		return meta, err
	}
	meta.PrefixMap = prefixes
	return meta, nil
}

// FetchPrefixMap queries sh:prefix/sh:namespace pairs. The first prefix
// seen for a namespace wins and a prefix is never reassigned.
func (c *Client) FetchPrefixMap(ctx context.Context, endpoint string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, MetadataTimeout)
	defer cancel()
	results, err := c.Select(ctx, endpoint, prefixQuery)
	if err != nil {
		return nil, err
	}
	prefixes := make(map[string]string)
	used := make(map[string]bool)
	for _, b := range results.Bindings {
		prefix, ns := b["prefix"].Value, b["namespace"].Value
		if prefix == "" || ns == "" {
			continue
		}
		if used[ns] {
			continue
		}
		if _, ok := prefixes[prefix]; ok {
			continue
		}
		prefixes[prefix] = ns
		used[ns] = true
	}
	return prefixes, nil
}

// Select runs a GET query expecting SPARQL JSON results. Non-2xx is an error.
func (c *Client) Select(ctx context.Context, endpoint, query string) (*Results, error) {
	resp, err := c.Execute(ctx, schema.EffectiveRequestConfig{
		RequestConfig: schema.RequestConfig{
			Endpoint:           endpoint,
			Method:             schema.MethodGET,
			AcceptHeaderSelect: schema.DefaultAcceptHeaderSelect,
		},
	}, schema.TabSnapshot{}, query)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("HTTP %d: %s", resp.Status, resp.StatusText)
	}
	return ParseJSONResults(resp.Body)
}

var leadingHostLabel = regexp.MustCompile(`^(www\.|sparql\.|query\.)`)

// EndpointName derives a display name from the endpoint host.
func EndpointName(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Hostname() == "" {
		return endpoint
	}
	name := leadingHostLabel.ReplaceAllString(parsed.Hostname(), "")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Slug derives a storage-safe identifier from the endpoint host.
func Slug(endpoint string) string {
	source := endpoint
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Hostname() != "" {
		source = parsed.Hostname()
	}
	return strings.ToLower(nonAlnum.ReplaceAllString(source, "_"))
}
