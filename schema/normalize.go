package schema

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// NormalizeTabName trims a tab name and enforces the length limit.
func NormalizeTabName(name string, max int) (TabName, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrInvalidTabName
	}
	if max > 0 && utf8.RuneCountInString(trimmed) > max {
		return "", ErrInvalidTabName
	}
	return TabName(trimmed), nil
}

// NormalizeEndpoint trims an endpoint and requires an absolute http(s) URL.
func NormalizeEndpoint(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEndpoint
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return "", ErrInvalidEndpoint
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return trimmed, nil
	default:
		return "", ErrInvalidEndpoint
	}
}

// NormalizeMethod upper-cases a request method. Empty stays empty.
func NormalizeMethod(method string) (string, error) {
	switch m := strings.ToUpper(strings.TrimSpace(method)); m {
	case "":
		return "", nil
	case MethodGET, MethodPOST:
		return m, nil
	default:
		return "", ErrInvalidRequest
	}
}
