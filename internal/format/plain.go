package format

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"pkt.systems/sparqlab/internal/sparql"
	"pkt.systems/sparqlab/schema"
)

// ActiveMarker prefixes the active tab in tab listings.
const ActiveMarker = "* "

// PlainRenderer formats tabs, events and results as plain text lines.
type PlainRenderer struct {
	// MaxCell truncates table cells; zero disables truncation.
	MaxCell int
}

// NewPlainRenderer returns a default plain-text renderer.
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{MaxCell: 60}
}

// FormatEvent converts a tab event into user-facing lines.
func (p *PlainRenderer) FormatEvent(event schema.TabEvent) []string {
	name := ""
	if event.Tab != nil {
		name = string(event.Tab.Name)
	}
	switch event.Type {
	case schema.StoreEventTabAdd:
		return []string{fmt.Sprintf("tab %s added: %s", event.TabID, name)}
	case schema.StoreEventTabSelect:
		return []string{fmt.Sprintf("tab %s selected", event.TabID)}
	case schema.StoreEventTabClose:
		return []string{fmt.Sprintf("tab %s closed", event.TabID)}
	case schema.StoreEventEndpointHistoryChange:
		return []string{fmt.Sprintf("endpoint history: %s", strings.Join(event.EndpointHistory, ", "))}
	case schema.TabEventEndpointChange:
		return []string{fmt.Sprintf("tab %s endpoint: %s", event.TabID, event.Endpoint)}
	case schema.TabEventQuery:
		return []string{fmt.Sprintf("tab %s query started", event.TabID)}
	case schema.TabEventQueryBefore:
		if event.Request == nil {
			return nil
		}
		line := fmt.Sprintf("%s %s", event.Request.Method, event.Request.Endpoint)
		if event.Request.Proxied {
			line += " (via proxy)"
		}
		return []string{line}
	case schema.TabEventQueryAbort:
		return []string{fmt.Sprintf("tab %s query aborted", event.TabID)}
	case schema.TabEventQueryResponse:
		return p.formatResponseLine(event)
	default:
		return nil
	}
}

func (p *PlainRenderer) formatResponseLine(event schema.TabEvent) []string {
	if event.Error != "" {
		return []string{fmt.Sprintf("tab %s query failed after %dms: %s", event.TabID, event.DurationMs, firstLine(event.Error))}
	}
	status := 0
	if event.Response != nil {
		status = event.Response.Status
	}
	return []string{fmt.Sprintf("tab %s query completed: %d in %dms", event.TabID, status, event.DurationMs)}
}

// FormatTabs renders a tab listing, one tab per line.
func (p *PlainRenderer) FormatTabs(tabs []schema.TabSnapshot) []string {
	rows := make([][]string, 0, len(tabs))
	for _, tab := range tabs {
		marker := "  "
		if tab.Active {
			marker = ActiveMarker
		}
		status := string(tab.Status)
		if tab.LastOutcome != "" {
			status += "/" + string(tab.LastOutcome)
		}
		rows = append(rows, []string{marker + string(tab.ID), string(tab.Name), tab.Endpoint, status})
	}
	return p.table(nil, rows)
}

// FormatSummary renders a stored or live response. SPARQL JSON results
// become a table; other bodies are printed as is.
func (p *PlainRenderer) FormatSummary(summary *schema.ResponseSummary) []string {
	if summary == nil {
		return []string{"no response"}
	}
	if summary.Error != nil {
		lines := []string{fmt.Sprintf("error: %s", errorHeadline(summary.Error))}
		return append(lines, splitLines(strings.TrimRight(summary.Error.Text, "\n"))...)
	}
	if summary.Truncated && summary.Data == "" {
		return []string{"response too large to store; run the query again"}
	}
	if res, err := sparql.ParseJSONResults([]byte(summary.Data)); err == nil {
		return p.FormatResults(res)
	}
	return splitLines(strings.TrimRight(summary.Data, "\n"))
}

// FormatResults renders SPARQL results as an aligned table.
func (p *PlainRenderer) FormatResults(res *sparql.Results) []string {
	if res == nil {
		return nil
	}
	if res.Boolean != nil {
		return []string{fmt.Sprintf("%t", *res.Boolean)}
	}
	rows := make([][]string, 0, len(res.Bindings))
	for _, binding := range res.Bindings {
		row := make([]string, len(res.Vars))
		for i, v := range res.Vars {
			if term, ok := binding[v]; ok {
				row[i] = FormatTerm(term)
			}
		}
		rows = append(rows, row)
	}
	lines := p.table(res.Vars, rows)
	return append(lines, fmt.Sprintf("(%d rows)", len(rows)))
}

// FormatTerm renders an RDF term in Turtle-like notation.
func FormatTerm(term sparql.Term) string {
	switch term.Type {
	case "uri":
		return "<" + term.Value + ">"
	case "bnode":
		return "_:" + term.Value
	case "literal", "typed-literal":
		out := fmt.Sprintf("%q", term.Value)
		if term.Lang != "" {
			return out + "@" + term.Lang
		}
		if term.Datatype != "" {
			return out + "^^<" + term.Datatype + ">"
		}
		return out
	default:
		return term.Value
	}
}

func (p *PlainRenderer) table(header []string, rows [][]string) []string {
	cols := len(header)
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return nil
	}
	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(p.clip(cell)))
		}
	}
	if header != nil {
		measure(header)
	}
	for _, row := range rows {
		measure(row)
	}
	render := func(row []string) string {
		cells := make([]string, cols)
		for i := range cols {
			cell := ""
			if i < len(row) {
				cell = p.clip(row[i])
			}
			cells[i] = cell + strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
		}
		return strings.TrimRight(strings.Join(cells, "  "), " ")
	}
	lines := make([]string, 0, len(rows)+2)
	if header != nil {
		lines = append(lines, render(header))
		sep := make([]string, cols)
		for i, w := range widths {
			sep[i] = strings.Repeat("-", w)
		}
		lines = append(lines, strings.Join(sep, "  "))
	}
	for _, row := range rows {
		lines = append(lines, render(row))
	}
	return lines
}

func (p *PlainRenderer) clip(cell string) string {
	cell = strings.ReplaceAll(cell, "\n", " ")
	if p.MaxCell <= 0 || utf8.RuneCountInString(cell) <= p.MaxCell {
		return cell
	}
	runes := []rune(cell)
	return string(runes[:p.MaxCell-1]) + "…"
}

func errorHeadline(e *schema.ResponseError) string {
	switch {
	case e.Status != 0 && e.StatusText != "":
		return e.StatusText
	case e.Status != 0:
		return fmt.Sprintf("status %d", e.Status)
	case e.StatusText != "":
		return e.StatusText
	default:
		return "request failed"
	}
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
