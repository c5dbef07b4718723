// Package ratelimit provides per-identifier request quotas grouped into
// named pools. Each pool is a token bucket sized to "N requests per window"
// so short bursts up to the quota are allowed and capacity refills evenly
// over the window.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pool names used by the HTTP layer.
const (
	PoolUpload  = "upload"
	PoolAnalyze = "analyze"
	PoolGeneral = "general"
)

// Decision is the outcome of consuming one request from a pool
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration // Time until the bucket is full again
	RetryAfter time.Duration // Time until the next request would be allowed, zero when allowed
}

// Consumer is the interface the HTTP layer depends on, so handlers can be
// tested against a stub limiter
type Consumer interface {
	Consume(pool, identifier string) Decision
}

// PoolConfig describes one pool as requests per window
type PoolConfig struct {
	Requests int
	Window   time.Duration
}

// PoolStats reports usage of one pool
type PoolStats struct {
	Limit             int           `json:"limit"`
	Window            time.Duration `json:"window"`
	ActiveIdentifiers int           `json:"activeIdentifiers"`
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type pool struct {
	mu       sync.Mutex
	quota    int
	window   time.Duration
	refill   rate.Limit
	limiters map[string]*entry
}

// PoolLimiter manages per-identifier token buckets across named pools
type PoolLimiter struct {
	pools map[string]*pool

	cleanupInterval time.Duration
	idleExpiry      time.Duration
	done            chan struct{}
	closeOnce       sync.Once
}

// New creates a PoolLimiter with the given pools and starts the background
// cleanup of idle identifiers
func New(pools map[string]PoolConfig, cleanupInterval, idleExpiry time.Duration) *PoolLimiter {
	pl := &PoolLimiter{
		pools:           make(map[string]*pool, len(pools)),
		cleanupInterval: cleanupInterval,
		idleExpiry:      idleExpiry,
		done:            make(chan struct{}),
	}

	for name, cfg := range pools {
		pl.pools[name] = &pool{
			quota:    cfg.Requests,
			window:   cfg.Window,
			refill:   rate.Every(cfg.Window / time.Duration(cfg.Requests)),
			limiters: make(map[string]*entry),
		}
	}

	if cleanupInterval > 0 {
		go pl.cleanupRoutine()
	}

	return pl
}

// Consume takes one request from the identifier's bucket in the named pool.
// The check and the state change are a single atomic step per identifier.
// A denied consume does not drain the bucket any further. Unknown pools
// allow the request with zero limits.
func (pl *PoolLimiter) Consume(poolName, identifier string) Decision {
	p, ok := pl.pools[poolName]
	if !ok {
		return Decision{Allowed: true}
	}
	return p.consume(identifier, time.Now())
}

func (p *pool) consume(identifier string, now time.Time) Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.limiters[identifier]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(p.refill, p.quota)}
		p.limiters[identifier] = e
	}
	e.lastSeen = now

	allowed := e.limiter.AllowN(now, 1)

	tokens := e.limiter.TokensAt(now)
	if tokens < 0 {
		tokens = 0
	}
	remaining := int(tokens)

	perSecond := float64(p.quota) / p.window.Seconds()

	var resetAfter time.Duration
	if missing := float64(p.quota) - tokens; missing > 0 {
		resetAfter = time.Duration(missing / perSecond * float64(time.Second))
	}

	var retryAfter time.Duration
	if !allowed {
		if need := 1 - tokens; need > 0 {
			retryAfter = time.Duration(need / perSecond * float64(time.Second))
		}
	}

	return Decision{
		Allowed:    allowed,
		Limit:      p.quota,
		Remaining:  remaining,
		ResetAfter: resetAfter,
		RetryAfter: retryAfter,
	}
}

// Stats returns usage statistics per pool
func (pl *PoolLimiter) Stats() map[string]PoolStats {
	stats := make(map[string]PoolStats, len(pl.pools))
	for name, p := range pl.pools {
		p.mu.Lock()
		stats[name] = PoolStats{
			Limit:             p.quota,
			Window:            p.window,
			ActiveIdentifiers: len(p.limiters),
		}
		p.mu.Unlock()
	}
	return stats
}

// cleanupRoutine periodically removes identifiers that have been idle longer
// than the expiry, keeping memory bounded for churny client populations
func (pl *PoolLimiter) cleanupRoutine() {
	ticker := time.NewTicker(pl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pl.prune(time.Now().Add(-pl.idleExpiry))
		case <-pl.done:
			return
		}
	}
}

// prune removes identifiers not seen since the cutoff
func (pl *PoolLimiter) prune(cutoff time.Time) {
	for _, p := range pl.pools {
		p.mu.Lock()
		for id, e := range p.limiters {
			if e.lastSeen.Before(cutoff) {
				delete(p.limiters, id)
			}
		}
		p.mu.Unlock()
	}
}

// Close stops the cleanup routine. Safe to call multiple times.
func (pl *PoolLimiter) Close() {
	pl.closeOnce.Do(func() {
		close(pl.done)
	})
}
