package service

import "sync/atomic"

type UsageSnapshot struct {
	Requests      int64 `json:"requests"`
	CacheHits     int64 `json:"cache_hits"`
	Degraded      int64 `json:"degraded"`
	RateLimited   int64 `json:"rate_limited"`
	Unavailable   int64 `json:"unavailable"`
	Misconfigured int64 `json:"misconfigured"`
}

type usageCounters struct {
	requests      atomic.Int64
	cacheHits     atomic.Int64
	degraded      atomic.Int64
	rateLimited   atomic.Int64
	unavailable   atomic.Int64
	misconfigured atomic.Int64
}

func (u *usageCounters) snapshot() UsageSnapshot {
	return UsageSnapshot{
		Requests:      u.requests.Load(),
		CacheHits:     u.cacheHits.Load(),
		Degraded:      u.degraded.Load(),
		RateLimited:   u.rateLimited.Load(),
		Unavailable:   u.unavailable.Load(),
		Misconfigured: u.misconfigured.Load(),
	}
}
