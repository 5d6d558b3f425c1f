package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector keeps process-local counters for the /metrics endpoint.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	clientErrors    uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu   sync.Mutex
	jobs map[string]*JobCounts
}

type JobCounts struct {
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
}

type Snapshot struct {
	RequestsTotal    uint64               `json:"requestsTotal"`
	ErrorsTotal      uint64               `json:"errorsTotal"`
	ClientErrors     uint64               `json:"clientErrorsTotal"`
	RateLimitedTotal uint64               `json:"rateLimitedTotal"`
	AvgDurationMs    float64              `json:"avgDurationMs"`
	TotalDurationMs  uint64               `json:"totalDurationMs"`
	Jobs             map[string]JobCounts `json:"jobs"`
}

func New() *Collector {
	return &Collector{jobs: map[string]*JobCounts{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	switch {
	case status >= 500:
		atomic.AddUint64(&c.errorRequests, 1)
	case status == 429:
		atomic.AddUint64(&c.rateLimited, 1)
		atomic.AddUint64(&c.clientErrors, 1)
	case status >= 400:
		atomic.AddUint64(&c.clientErrors, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordJob(jobType string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts, ok := c.jobs[jobType]
	if !ok {
		counts = &JobCounts{}
		c.jobs[jobType] = counts
	}
	if err != nil {
		counts.Failed++
	} else {
		counts.Completed++
	}
}

func (c *Collector) Snapshot() Snapshot {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	jobs := make(map[string]JobCounts, len(c.jobs))
	for name, counts := range c.jobs {
		jobs[name] = *counts
	}
	c.mu.Unlock()

	return Snapshot{
		RequestsTotal:    total,
		ErrorsTotal:      atomic.LoadUint64(&c.errorRequests),
		ClientErrors:     atomic.LoadUint64(&c.clientErrors),
		RateLimitedTotal: atomic.LoadUint64(&c.rateLimited),
		AvgDurationMs:    avg,
		TotalDurationMs:  totalMs,
		Jobs:             jobs,
	}
}
