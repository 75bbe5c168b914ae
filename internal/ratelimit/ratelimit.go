// Package ratelimit implements the expert-help rate limiter: a sliding
// 24-hour window keyed by caller-supplied request id, capped at two calls,
// layered under a process-wide token-bucket burst guard so a storm of
// distinct request ids cannot itself overwhelm the configured expert-help
// backend.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Window is the sliding-window duration within which usage is counted.
// Grounded on original_source/nifi_mcp_server/api_tools/helpers.py's
// _EXPERT_HELP_WINDOW_HOURS constant.
const Window = 24 * time.Hour

// Limit is the maximum number of calls allowed per request id within
// Window. Grounded on the same source's _EXPERT_HELP_LIMIT constant.
const Limit = 2

// noRequestID is the sentinel internal/reqctx uses for "no correlation id
// supplied"; such callers always pass the per-id check (matching the
// original's "Allow if no request ID (shouldn't happen in normal usage)").
const noRequestID = "-"

// Limiter tracks expert-help usage per request id and additionally caps
// total throughput across all callers via a shared token bucket.
type Limiter struct {
	mu    sync.Mutex
	usage map[string][]time.Time

	burst *rate.Limiter
}

// New constructs a Limiter. burstPerSecond and burstSize configure the
// process-wide token bucket guarding the expert-help backend regardless of
// per-request-id accounting; pass a generous burstPerSecond (e.g. 5) if no
// separate backend-level throttling is desired.
func New(burstPerSecond rate.Limit, burstSize int) *Limiter {
	return &Limiter{
		usage: make(map[string][]time.Time),
		burst: rate.NewLimiter(burstPerSecond, burstSize),
	}
}

// Allow reports whether requestID may make another expert-help call right
// now. It does not record usage; call Record after a successful
// dispatch. A requestID of "" or "-" (internal/reqctx's default) always
// passes the per-id check, but is still subject to the burst guard.
func (l *Limiter) Allow(requestID string) bool {
	if !l.burst.Allow() {
		return false
	}
	if requestID == "" || requestID == noRequestID {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.evictExpiredLocked(requestID)
	return len(l.usage[requestID]) < Limit
}

// Record logs one usage of requestID at now. Call only after Allow
// returned true and the call actually proceeded.
func (l *Limiter) Record(requestID string, now time.Time) {
	if requestID == "" || requestID == noRequestID {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.usage[requestID] = append(l.usage[requestID], now)
}

// UsageCount reports how many non-expired usages requestID currently has
// recorded, for building the "N/Limit calls used" diagnostic message.
func (l *Limiter) UsageCount(requestID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evictExpiredLocked(requestID)
	return len(l.usage[requestID])
}

// evictExpiredLocked drops usage timestamps for requestID older than
// Window. Callers must hold l.mu.
func (l *Limiter) evictExpiredLocked(requestID string) {
	cutoff := time.Now().Add(-Window)
	kept := l.usage[requestID][:0]
	for _, ts := range l.usage[requestID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.usage, requestID)
		return
	}
	l.usage[requestID] = kept
}
