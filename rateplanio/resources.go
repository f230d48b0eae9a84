// Package rateplanio defines the resource shapes and store interfaces
// shared between the API server, the persistence layer and the usage
// collector.
package rateplanio

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/metermill/rateplan-console/pricing"
)

type Product struct {
	GUID        string `json:"product_guid"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type Customer struct {
	GUID      string `json:"customer_guid"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// AggregationType selects how raw usage records roll up into a billable
// quantity for a metric.
type AggregationType string

const (
	AggregateCount AggregationType = "count"
	AggregateSum   AggregationType = "sum"
	AggregateMax   AggregationType = "max"
)

type BillableMetric struct {
	GUID        string          `json:"metric_guid"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	Aggregation AggregationType `json:"aggregation"`
	CreatedAt   string          `json:"created_at"`
}

// RatePlanStatus tracks whether a plan is still being drafted in the
// console or has been activated for billing.
type RatePlanStatus string

const (
	RatePlanDraft  RatePlanStatus = "draft"
	RatePlanActive RatePlanStatus = "active"
)

// RatePlan is a named pricing configuration attached to a product: one
// pricing model plus the optional extras.
type RatePlan struct {
	GUID        string         `json:"rateplan_guid"`
	ProductGUID string         `json:"product_guid"`
	Name        string         `json:"name"`
	Status      RatePlanStatus `json:"status"`
	Model       pricing.Model  `json:"model"`
	Extras      pricing.Extras `json:"extras"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// Scan hydrates a RatePlan from a JSON database value, so the same
// shape serves both freshly drafted and stored plans.
func (p *RatePlan) Scan(src interface{}) error {
	source, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot Scan into RatePlan with: %T", src)
	}
	return json.Unmarshal(source, p)
}

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type Subscription struct {
	GUID         string             `json:"subscription_guid"`
	CustomerGUID string             `json:"customer_guid"`
	RatePlanGUID string             `json:"rateplan_guid"`
	StartDate    string             `json:"start_date"`
	Status       SubscriptionStatus `json:"status"`
}

// UsageRecord is one raw metering event reported for a subscription.
type UsageRecord struct {
	GUID             string          `json:"usage_guid"`
	SubscriptionGUID string          `json:"subscription_guid"`
	MetricGUID       string          `json:"metric_guid"`
	Quantity         decimal.Decimal `json:"quantity"`
	RecordedAt       string          `json:"recorded_at"`
}

// UsageSummary is the per-subscription, per-metric rollup of raw usage
// records over a filtered range.
type UsageSummary struct {
	SubscriptionGUID string          `json:"subscription_guid"`
	MetricGUID       string          `json:"metric_guid"`
	TotalQuantity    decimal.Decimal `json:"total_quantity"`
	RecordCount      int64           `json:"record_count"`
}
