package metrics

import (
	"runtime"
	"sync"
	"time"
)

// UsageProvider reports bulk storage usage for metrics
type UsageProvider interface {
	LocalUsage() (bytes int, keys int, err error)
}

// CollectionCounts carries collection sizes for the count gauges
type CollectionCounts struct {
	Templates  int
	Profiles   int
	Signatures int
}

// CountsProvider reports collection sizes for metrics
type CountsProvider interface {
	Counts() CollectionCounts
}

// Collector periodically updates system and storage gauges
type Collector struct {
	metrics  *Metrics
	usage    UsageProvider
	counts   CountsProvider
	interval time.Duration

	startTime time.Time
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewCollector creates a new gauge collector. usage and counts may be
// nil; the corresponding gauges are then left untouched.
func NewCollector(m *Metrics, usage UsageProvider, counts CountsProvider, interval time.Duration) *Collector {
	if interval == 0 {
		interval = 10 * time.Second
	}
	return &Collector{
		metrics:   m,
		usage:     usage,
		counts:    counts,
		interval:  interval,
		startTime: time.Now(),
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background gauge updates
func (c *Collector) Start() {
	c.collect()
	c.wg.Add(1)
	go c.loop()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Collector) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *Collector) collect() {
	c.metrics.UptimeSeconds.Set(time.Since(c.startTime).Seconds())
	c.metrics.Goroutines.Set(float64(runtime.NumGoroutine()))

	if c.usage != nil {
		if bytes, keys, err := c.usage.LocalUsage(); err == nil {
			c.metrics.StorageUsedBytes.Set(float64(bytes))
			c.metrics.StorageKeys.Set(float64(keys))
		}
	}

	if c.counts != nil {
		counts := c.counts.Counts()
		c.metrics.TemplatesCount.Set(float64(counts.Templates))
		c.metrics.ProfilesCount.Set(float64(counts.Profiles))
		c.metrics.SignaturesCount.Set(float64(counts.Signatures))
	}
}
