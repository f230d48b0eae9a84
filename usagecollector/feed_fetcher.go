package usagecollector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/pkg/errors"

	"github.com/metermill/rateplan-console/rateplanio"
)

const (
	DefaultFetchLimit = 50
	maxFetchLimit     = 500
)

var _ rateplanio.UsageFetcher = &FeedFetcher{}

// FeedFetcher is a UsageFetcher that pages through an HTTP metering
// feed. The feed returns records in insertion order and supports
// resuming with an after_guid cursor.
type FeedFetcher struct {
	feedURL    string
	client     *http.Client
	logger     lager.Logger
	fetchLimit int
}

type feedPage struct {
	Records []rateplanio.UsageRecord `json:"records"`
}

// FetchUsage requests the next page of records after lastRecord
func (f *FeedFetcher) FetchUsage(ctx context.Context, lastRecord *rateplanio.UsageRecord) ([]rateplanio.UsageRecord, error) {
	afterGUID := ""
	if lastRecord != nil {
		if lastRecord.GUID == "" {
			return nil, fmt.Errorf("invalid GUID for lastRecord")
		}
		afterGUID = lastRecord.GUID
	}

	fetchLimit := f.fetchLimit
	if fetchLimit < 1 {
		fetchLimit = DefaultFetchLimit
	}
	if fetchLimit > maxFetchLimit {
		return nil, fmt.Errorf("FetchLimit must be between 1 and %d", maxFetchLimit)
	}

	f.logger.Info("fetching", lager.Data{
		"after_guid": afterGUID,
		"limit":      fetchLimit,
	})
	startTime := time.Now()

	req, err := f.buildRequest(ctx, afterGUID, fetchLimit)
	if err != nil {
		return nil, err
	}
	res, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query usage feed")
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("usage feed responded with status %d", res.StatusCode)
	}
	var page feedPage
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, errors.Wrap(err, "failed to decode usage feed response")
	}

	elapsed := time.Since(startTime)
	f.logger.Info("fetched", lager.Data{
		"after_guid":   afterGUID,
		"record_count": len(page.Records),
		"elapsed":      elapsed.String(),
	})
	return page.Records, nil
}

func (f *FeedFetcher) buildRequest(ctx context.Context, afterGUID string, limit int) (*http.Request, error) {
	u, err := url.Parse(f.feedURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid usage feed url")
	}
	q := u.Query()
	if afterGUID != "" {
		q.Set("after_guid", afterGUID)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	u.RawQuery = q.Encode()
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

// Kind identifies records from this feed
func (f *FeedFetcher) Kind() string {
	return "usage-feed"
}

type FeedConfig struct {
	// FeedURL is the endpoint serving usage record pages
	FeedURL string
	// Client overrides the default HTTP client used to query the feed
	Client *http.Client
	// Logger overrides the default logger
	Logger lager.Logger
	// FetchLimit dictates the max number of records returned per FetchUsage call
	FetchLimit int
}

// NewFeedFetcher creates a FeedFetcher for the given config
func NewFeedFetcher(cfg FeedConfig) (*FeedFetcher, error) {
	if cfg.FeedURL == "" {
		return nil, fmt.Errorf("usagecollector.NewFeedFetcher: must supply FeedURL")
	}
	if cfg.Logger == nil {
		cfg.Logger = lager.NewLogger("usage-feed-fetcher")
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return &FeedFetcher{
		feedURL:    cfg.FeedURL,
		client:     cfg.Client,
		logger:     cfg.Logger.Session("usage-feed-fetcher"),
		fetchLimit: cfg.FetchLimit,
	}, nil
}
