package httpapi

import (
	"net/http"
	"strings"
)

// normalizeBasePath turns a configured mount prefix into "" or "/x/y".
func normalizeBasePath(value string) string {
	trimmed := strings.Trim(strings.TrimSpace(value), "/")
	if trimmed == "" {
		return ""
	}
	return "/" + trimmed
}

// linkBase is the absolute URL share links are built on, always ending in
// "/". A configured base URL wins; otherwise the request's forwarded or
// direct scheme and host are used.
func linkBase(baseURL, basePath string, r *http.Request) string {
	origin := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.Contains(origin, "://") {
		origin = requestOrigin(r) + origin
	}
	return origin + normalizeBasePath(basePath) + "/"
}

func requestOrigin(r *http.Request) string {
	scheme, host := "http", "localhost"
	if r == nil {
		return scheme + "://" + host
	}
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := firstHeaderValue(r.Header.Get("X-Forwarded-Proto")); proto == "http" || proto == "https" {
		scheme = proto
	}
	if r.Host != "" {
		host = r.Host
	}
	if fwd := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}

func firstHeaderValue(value string) string {
	first, _, _ := strings.Cut(value, ",")
	return strings.TrimSpace(first)
}
