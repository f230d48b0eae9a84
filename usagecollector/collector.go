// Package usagecollector pulls metered usage from an external feed into
// the console's store. It runs as its own process so an ingest backlog
// never competes with interactive API traffic.
package usagecollector

import (
	"context"
	"sync"
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/metermill/rateplan-console/rateplanio"
)

const (
	DefaultSchedule = time.Duration(15 * time.Minute)
)

type state string

const (
	// Syncing state means that the collector has just started and needs to immediately fetch to catch up
	Syncing state = "sync"
	// Scheduled means that we have caught up with the feed and are scheduled to run again in Schedule time
	Scheduled state = "waiting"
	// Collecting means the collector thinks it probably has more to collect but is rate limited by MinWaitTime
	Collecting state = "collecting"
)

var recordsCollected = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rateplan_usage_records_collected_total",
	Help: "Number of usage records pulled from the metering feed",
})

// Collector periodically fetches usage records via the given UsageFetcher
// and stores them to the given UsageStore
type Collector struct {
	state            state
	schedule         time.Duration
	minWaitTime      time.Duration
	initialWaitTime  time.Duration
	logger           lager.Logger
	fetcher          rateplanio.UsageFetcher
	store            rateplanio.UsageStore
	mu               sync.Mutex
	recordsCollected int
}

// Run executes collect periodically, at a rate dictated by Schedule and MinWaitTime
func (c *Collector) Run(ctx context.Context) error {
	c.logger.Info("started")
	defer c.logger.Info("stopping")
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		c.logger.Info("status", lager.Data{
			"state":             c.state,
			"kind":              c.fetcher.Kind(),
			"next_collection":   c.waitDuration().String(),
			"records_collected": c.recordsCollected,
		})
		select {
		case <-time.After(c.waitDuration()):
			startTime := time.Now()
			collected, err := c.collect(ctx)
			if err != nil {
				c.state = Scheduled
				c.logger.Error("collect-error", err)
				continue
			}
			c.recordsCollected += len(collected)
			recordsCollected.Add(float64(len(collected)))
			elapsed := time.Since(startTime)
			c.logger.Info("collected", lager.Data{
				"count":   len(collected),
				"kind":    c.fetcher.Kind(),
				"elapsed": elapsed.String(),
			})
		case <-ctx.Done():
			return nil
		}
	}
}

// collect reads a batch of UsageRecords from the UsageFetcher and writes them to the UsageStore
func (c *Collector) collect(ctx context.Context) ([]rateplanio.UsageRecord, error) {
	lastRecord, err := c.store.GetLastUsageRecord(ctx)
	if err != nil {
		return nil, err
	}
	records, err := c.fetcher.FetchUsage(ctx, lastRecord)
	if err != nil {
		return nil, err
	}
	c.logger.Info("collecting", lager.Data{
		"kind": c.fetcher.Kind(),
		"after_guid": func() string {
			if lastRecord == nil {
				return ""
			}
			return lastRecord.GUID
		}(),
	})
	if err := c.store.StoreUsage(ctx, records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		c.state = Scheduled
	} else if lastRecord != nil && records[len(records)-1].GUID == lastRecord.GUID {
		c.state = Scheduled
	} else {
		c.state = Collecting
	}
	return records, nil
}

// waitDuration returns how long to sleep before the next collection
func (c *Collector) waitDuration() time.Duration {
	delay := c.schedule
	if c.state == Syncing {
		delay = c.initialWaitTime
	}
	if c.state == Collecting {
		delay = c.minWaitTime
	}
	return delay
}

type Config struct {
	Schedule        time.Duration
	MinWaitTime     time.Duration
	InitialWaitTime time.Duration
	Logger          lager.Logger
	Fetcher         rateplanio.UsageFetcher
	Store           rateplanio.UsageStore
}

func New(cfg Config) *Collector {
	if cfg.Logger == nil {
		cfg.Logger = lager.NewLogger("collector")
	}
	return &Collector{
		schedule:        cfg.Schedule,
		minWaitTime:     cfg.MinWaitTime,
		initialWaitTime: cfg.InitialWaitTime,
		logger:          cfg.Logger,
		fetcher:         cfg.Fetcher,
		store:           cfg.Store,
		state:           Syncing,
	}
}
