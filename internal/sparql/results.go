package sparql

import (
	"encoding/json"
	"errors"
)

// Term is one RDF term of a SPARQL JSON binding.
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Results is a decoded application/sparql-results+json document.
type Results struct {
	Vars     []string          `json:"vars"`
	Bindings []map[string]Term `json:"bindings"`
	Boolean  *bool             `json:"boolean,omitempty"`
}

// ErrNotResults indicates a body that is not a SPARQL JSON results document.
var ErrNotResults = errors.New("not a sparql json results document")

type resultsDocument struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results *struct {
		Bindings []map[string]Term `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean"`
}

// ParseJSONResults decodes a SPARQL 1.1 JSON results body.
func ParseJSONResults(body []byte) (*Results, error) {
	var doc resultsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.Join(ErrNotResults, err)
	}
	if doc.Results == nil && doc.Boolean == nil {
		return nil, ErrNotResults
	}
	out := &Results{Vars: doc.Head.Vars, Boolean: doc.Boolean}
	if doc.Results != nil {
		out.Bindings = doc.Results.Bindings
	}
	return out, nil
}
