package sparql

import (
	"strings"
	"unicode"
)

// Query forms and update operations recognised by QueryType.
const (
	TypeSelect    = "SELECT"
	TypeAsk       = "ASK"
	TypeConstruct = "CONSTRUCT"
	TypeDescribe  = "DESCRIBE"
	TypeUnknown   = "UNKNOWN"
)

var updateKeywords = map[string]bool{
	"INSERT": true,
	"DELETE": true,
	"LOAD":   true,
	"CLEAR":  true,
	"CREATE": true,
	"DROP":   true,
	"COPY":   true,
	"MOVE":   true,
	"ADD":    true,
	"WITH":   true,
}

// Query modes select the parameter name and accept header.
const (
	ModeQuery  = "query"
	ModeUpdate = "update"
)

// QueryType returns the first query form or update keyword of query,
// skipping the prologue, comments, IRIs and string literals.
func QueryType(query string) string {
	s := scanner{src: query}
	for {
		word, ok := s.nextWord()
		if !ok {
			return TypeUnknown
		}
		switch word {
		case "PREFIX", "BASE":
			continue
		case TypeSelect, TypeAsk, TypeConstruct, TypeDescribe:
			return word
		}
		if updateKeywords[word] {
			return word
		}
	}
}

// QueryMode reports ModeUpdate for SPARQL updates, ModeQuery otherwise.
func QueryMode(query string) string {
	if updateKeywords[QueryType(query)] {
		return ModeUpdate
	}
	return ModeQuery
}

// IsUpdate reports whether query is a SPARQL update.
func IsUpdate(query string) bool {
	return QueryMode(query) == ModeUpdate
}

type scanner struct {
	src string
	pos int
}

// nextWord returns the next bare keyword upper-cased.
func (s *scanner) nextWord() (string, bool) {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '#':
			s.skipLine()
		case c == '<':
			s.skipPast('>')
		case c == '"' || c == '\'':
			s.skipString(c)
		case c == '?' || c == '$':
			s.pos++
			for s.pos < len(s.src) && isWordByte(s.src[s.pos]) {
				s.pos++
			}
		case isWordByte(c):
			start := s.pos
			for s.pos < len(s.src) && (isWordByte(s.src[s.pos]) || s.src[s.pos] == ':' || s.src[s.pos] == '-') {
				s.pos++
			}
			word := s.src[start:s.pos]
			if strings.ContainsRune(word, ':') {
				continue
			}
			return strings.ToUpper(word), true
		default:
			s.pos++
		}
	}
	return "", false
}

func (s *scanner) skipLine() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
}

func (s *scanner) skipPast(end byte) {
	s.pos++
	for s.pos < len(s.src) && s.src[s.pos] != end {
		s.pos++
	}
	s.pos++
}

func (s *scanner) skipString(quote byte) {
	long := strings.HasPrefix(s.src[s.pos:], strings.Repeat(string(quote), 3))
	if long {
		s.pos += 3
		end := strings.Index(s.src[s.pos:], strings.Repeat(string(quote), 3))
		if end < 0 {
			s.pos = len(s.src)
			return
		}
		s.pos += end + 3
		return
	}
	s.pos++
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
			continue
		case quote:
			s.pos++
			return
		}
		s.pos++
	}
}

func isWordByte(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}
