package rateplanio

import (
	"fmt"
	"time"
)

var dateFormats = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate accepts the handful of timestamp shapes the console sends.
func ParseDate(dateString string) (time.Time, error) {
	for _, dateFormat := range dateFormats {
		date, err := time.Parse(dateFormat, dateString)
		if err == nil && !date.IsZero() {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse date %s", dateString)
}

// UsageFilter narrows usage queries to a time range and optionally a
// set of subscriptions.
type UsageFilter struct {
	RangeStart        string
	RangeStop         string
	SubscriptionGUIDs []string
}

func (filter *UsageFilter) Validate() error {
	start, err := ParseDate(filter.RangeStart)
	if err != nil {
		return fmt.Errorf("a valid range_start filter value is required - expected format 2006-01-02 [15:04] [:05] [Z] - got %s", filter.RangeStart)
	}
	stop, err := ParseDate(filter.RangeStop)
	if err != nil {
		return fmt.Errorf("a valid range_stop filter value is required - expected format 2006-01-02 [15:04] [:05] [Z] - got %s", filter.RangeStop)
	}
	if !start.Before(stop) {
		return fmt.Errorf("range_start must be before range_stop")
	}
	return nil
}
