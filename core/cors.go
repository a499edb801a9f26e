package core

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pkt.systems/pslog"
	"pkt.systems/sparqlab/internal/sparql"
)

// DefaultProbeTimeout bounds one capability probe.
const DefaultProbeTimeout = 10 * time.Second

// Prober sends the capability probe to an endpoint.
type Prober interface {
	Probe(ctx context.Context, endpoint string) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, endpoint string) error

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, endpoint string) error { return f(ctx, endpoint) }

// CORSHeuristic turns a probe outcome into a capability verdict.
type CORSHeuristic func(err error) bool

// DefaultCORSHeuristic treats a completed exchange as capable and a
// network-level failure as not capable. Timeouts and every other error
// count as capable.
func DefaultCORSHeuristic(err error) bool {
	if err == nil {
		return true
	}
	var netErr *sparql.NetworkError
	if !errors.As(err, &netErr) {
		return true
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return true
	}
	return false
}

// StrictCORSHeuristic treats any probe error as not capable.
func StrictCORSHeuristic(err error) bool {
	return err == nil
}

// HeuristicByName maps a config name to a heuristic. Unknown names get the default.
func HeuristicByName(name string) CORSHeuristic {
	switch name {
	case "strict":
		return StrictCORSHeuristic
	case "always":
		return func(error) bool { return true }
	default:
		return DefaultCORSHeuristic
	}
}

// CORSOptions configure a CORSCache.
type CORSOptions struct {
	Heuristic CORSHeuristic
	Timeout   time.Duration
	Logger    pslog.Logger
}

// CORSCache remembers, per endpoint, whether requests can go to it
// directly. Each endpoint is probed at most once per cache and verdicts
// never expire.
type CORSCache struct {
	prober    Prober
	heuristic CORSHeuristic
	timeout   time.Duration
	log       pslog.Logger
	group     singleflight.Group

	mu       sync.RWMutex
	verdicts map[string]bool
}

// NewCORSCache constructs an empty cache. A nil prober never probes, so
// every endpoint stays unverified.
func NewCORSCache(prober Prober, opts CORSOptions) *CORSCache {
	if opts.Heuristic == nil {
		opts.Heuristic = DefaultCORSHeuristic
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultProbeTimeout
	}
	if opts.Logger == nil {
		opts.Logger = pslog.Ctx(context.Background())
	}
	return &CORSCache{
		prober:    prober,
		heuristic: opts.Heuristic,
		timeout:   opts.Timeout,
		log:       opts.Logger,
		verdicts:  make(map[string]bool),
	}
}

// Lookup returns the cached verdict and whether one exists.
func (c *CORSCache) Lookup(endpoint string) (capable bool, known bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	capable, known = c.verdicts[endpoint]
	return capable, known
}

// Enabled reports whether endpoint was verified capable.
func (c *CORSCache) Enabled(endpoint string) bool {
	capable, _ := c.Lookup(endpoint)
	return capable
}

// Check starts a background probe for endpoint unless a verdict exists or
// a probe is already running. It never blocks.
func (c *CORSCache) Check(endpoint string) {
	if endpoint == "" || c.prober == nil {
		return
	}
	if _, known := c.Lookup(endpoint); known {
		return
	}
	_ = c.group.DoChan(endpoint, func() (any, error) {
		return c.probe(endpoint), nil
	})
}

// Probe returns the verdict for endpoint, probing and waiting if needed.
func (c *CORSCache) Probe(ctx context.Context, endpoint string) (bool, error) {
	if capable, known := c.Lookup(endpoint); known {
		return capable, nil
	}
	if c.prober == nil {
		return false, nil
	}
	ch := c.group.DoChan(endpoint, func() (any, error) {
		return c.probe(endpoint), nil
	})
	select {
	case res := <-ch:
		return res.Val.(bool), nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Snapshot returns a copy of all verdicts.
func (c *CORSCache) Snapshot() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.verdicts)
}

func (c *CORSCache) probe(endpoint string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	err := c.prober.Probe(ctx, endpoint)
	capable := c.heuristic(err)

	c.mu.Lock()
	if existing, ok := c.verdicts[endpoint]; ok {
		capable = existing
	} else {
		c.verdicts[endpoint] = capable
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Debug("cors probe failed", "endpoint", endpoint, "capable", capable, "err", err)
	} else {
		c.log.Debug("cors probe ok", "endpoint", endpoint, "capable", capable)
	}
	return capable
}
