package results

import (
	"errors"
	"mime"
	"strings"
	"sync"
	"time"

	"pkt.systems/sparqlab/internal/sparql"
	"pkt.systems/sparqlab/schema"
)

// Kind classifies a response body by content type.
type Kind string

const (
	KindJSON   Kind = "json"
	KindXML    Kind = "xml"
	KindCSV    Kind = "csv"
	KindTSV    Kind = "tsv"
	KindTurtle Kind = "turtle"
	KindOther  Kind = "other"
)

// KindOf maps a Content-Type header to a Kind.
func KindOf(contentType string) Kind {
	media, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		media = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch {
	case strings.HasSuffix(media, "json"):
		return KindJSON
	case strings.HasSuffix(media, "xml"):
		return KindXML
	case media == "text/csv" || strings.HasSuffix(media, "+csv"):
		return KindCSV
	case media == "text/tab-separated-values" || strings.HasSuffix(media, "+tsv"):
		return KindTSV
	case media == "text/turtle" || media == "application/n-triples" || media == "application/trig":
		return KindTurtle
	default:
		return KindOther
	}
}

// Summarize builds the storable summary of a completed exchange. err is
// a transport failure; non-2xx responses also produce an error summary.
func Summarize(resp *sparql.Response, err error, duration time.Duration) *schema.ResponseSummary {
	out := &schema.ResponseSummary{ExecutionTimeMs: duration.Milliseconds()}
	if err != nil {
		out.Error = &schema.ResponseError{Text: err.Error()}
		var netErr *sparql.NetworkError
		if errors.As(err, &netErr) {
			out.Error.StatusText = "network error"
		}
		return out
	}
	if resp == nil {
		out.Error = &schema.ResponseError{Text: "empty response"}
		return out
	}
	out.Status = resp.Status
	out.ContentType = resp.ContentType
	out.Data = string(resp.Body)
	if len(resp.Header) > 0 {
		out.Headers = make(map[string]string, len(resp.Header))
		for k := range resp.Header {
			out.Headers[k] = resp.Header.Get(k)
		}
	}
	if !resp.OK() {
		out.Error = &schema.ResponseError{Status: resp.Status, StatusText: resp.StatusText, Text: string(resp.Body)}
	}
	return out
}

// Viewer keeps the current response of one tab and its persistent
// settings.
type Viewer struct {
	mu       sync.Mutex
	settings schema.ResultSettings
	summary  *schema.ResponseSummary
	parsed   *sparql.Results
}

// NewViewer returns a viewer with the given settings. An empty plugin
// selects the table plugin.
func NewViewer(settings schema.ResultSettings) *Viewer {
	settings = settings.Clone()
	if settings.SelectedPlugin == "" {
		settings.SelectedPlugin = schema.DefaultResultPlugin
	}
	return &Viewer{settings: settings}
}

// SetResponse replaces the current response.
func (v *Viewer) SetResponse(resp *sparql.Response, err error, duration time.Duration) {
	summary := Summarize(resp, err, duration)
	var parsed *sparql.Results
	if summary.Error == nil && KindOf(summary.ContentType) == KindJSON {
		if res, perr := sparql.ParseJSONResults(resp.Body); perr == nil {
			parsed = res
		}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.summary = summary
	v.parsed = parsed
}

// Restore loads a previously stored summary.
func (v *Viewer) Restore(summary *schema.ResponseSummary) {
	var parsed *sparql.Results
	if summary != nil && summary.Error == nil && KindOf(summary.ContentType) == KindJSON && summary.Data != "" {
		if res, err := sparql.ParseJSONResults([]byte(summary.Data)); err == nil {
			parsed = res
		}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.summary = summary.Clone()
	v.parsed = parsed
}

// HasError reports whether the current response is an error.
func (v *Viewer) HasError() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.summary != nil && v.summary.Error != nil
}

// PersistentConfig returns the settings to persist.
func (v *Viewer) PersistentConfig() schema.ResultSettings {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.settings.Clone()
}

// SetPersistentConfig replaces the settings.
func (v *Viewer) SetPersistentConfig(settings schema.ResultSettings) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settings = settings.Clone()
	if v.settings.SelectedPlugin == "" {
		v.settings.SelectedPlugin = schema.DefaultResultPlugin
	}
}

// Summary returns the full current summary.
func (v *Viewer) Summary() *schema.ResponseSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.summary.Clone()
}

// StoreObject returns the summary to persist. Data larger than maxSize
// bytes is dropped and the summary is marked truncated; maxSize <= 0
// keeps no data at all.
func (v *Viewer) StoreObject(maxSize int) *schema.ResponseSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.summary == nil {
		return nil
	}
	out := v.summary.Clone()
	if len(out.Data) > maxSize || (maxSize <= 0 && out.Data != "") {
		out.Data = ""
		out.Truncated = true
	}
	return out
}

// Results returns the parsed SPARQL JSON results when available.
func (v *Viewer) Results() (*sparql.Results, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.parsed, v.parsed != nil
}
