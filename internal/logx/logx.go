package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/sparqlab/schema"
)

type contextKey int

const (
	namespaceKey contextKey = iota
	tabKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithNamespace annotates the logger with the store namespace if present.
func WithNamespace(ctx context.Context, ns schema.Namespace) pslog.Logger {
	log := pslog.Ctx(ctx)
	if ns != "" {
		if current, ok := ctx.Value(namespaceKey).(schema.Namespace); ok && current == ns {
			return log
		}
		log = log.With("namespace", ns)
	}
	return log
}

// WithTab annotates the logger with namespace and tab identifiers.
func WithTab(ctx context.Context, ns schema.Namespace, tabID schema.TabID) pslog.Logger {
	log := WithNamespace(ctx, ns)
	if tabID != "" {
		if current, ok := ctx.Value(tabKey).(schema.TabID); ok && current == tabID {
			return log
		}
		log = log.With("tab", tabID)
	}
	return log
}

// WithEndpoint annotates the logger with the endpoint and, when the
// request is routed through a proxy, the proxy marker.
func WithEndpoint(log pslog.Logger, endpoint string, proxied bool) pslog.Logger {
	if endpoint != "" {
		log = log.With("endpoint", endpoint)
	}
	if proxied {
		log = log.With("proxied", true)
	}
	return log
}

// ContextWithNamespace stores the namespace marker on the context for log de-duplication.
func ContextWithNamespace(ctx context.Context, ns schema.Namespace) context.Context {
	if ctx == nil || ns == "" {
		return ctx
	}
	return context.WithValue(ctx, namespaceKey, ns)
}

// ContextWithTab stores the tab marker on the context for log de-duplication.
func ContextWithTab(ctx context.Context, tabID schema.TabID) context.Context {
	if ctx == nil || tabID == "" {
		return ctx
	}
	return context.WithValue(ctx, tabKey, tabID)
}

// ContextWithTabLogger attaches the logger and namespace/tab markers to the context.
func ContextWithTabLogger(ctx context.Context, log pslog.Logger, ns schema.Namespace, tabID schema.TabID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithTab(ContextWithNamespace(ctx, ns), tabID)
}

// CopyContextFields copies namespace/tab markers from src to dst.
func CopyContextFields(dst context.Context, src context.Context) context.Context {
	if src == nil {
		return dst
	}
	if ns, ok := src.Value(namespaceKey).(schema.Namespace); ok && ns != "" {
		dst = ContextWithNamespace(dst, ns)
	}
	if tab, ok := src.Value(tabKey).(schema.TabID); ok && tab != "" {
		dst = ContextWithTab(dst, tab)
	}
	return dst
}
