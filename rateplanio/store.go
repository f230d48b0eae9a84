package rateplanio

import (
	"context"
	"errors"

	"github.com/metermill/rateplan-console/pricing"
)

// ErrNotFound is returned (possibly wrapped) by store lookups for
// unknown GUIDs. The API layer maps it to a 404.
var ErrNotFound = errors.New("not found")

type ProductStore interface {
	CreateProduct(ctx context.Context, p Product) (Product, error)
	GetProduct(ctx context.Context, guid string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, guid string) error
}

type CustomerStore interface {
	CreateCustomer(ctx context.Context, c Customer) (Customer, error)
	GetCustomer(ctx context.Context, guid string) (Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	UpdateCustomer(ctx context.Context, c Customer) (Customer, error)
}

type MetricStore interface {
	CreateMetric(ctx context.Context, m BillableMetric) (BillableMetric, error)
	GetMetric(ctx context.Context, guid string) (BillableMetric, error)
	ListMetrics(ctx context.Context) ([]BillableMetric, error)
}

type RatePlanStore interface {
	CreateRatePlan(ctx context.Context, p RatePlan) (RatePlan, error)
	GetRatePlan(ctx context.Context, guid string) (RatePlan, error)
	ListRatePlans(ctx context.Context, productGUID string) ([]RatePlan, error)
	UpdateRatePlanStatus(ctx context.Context, guid string, status RatePlanStatus) error
	AttachPricingModel(ctx context.Context, guid string, model pricing.Model) (RatePlan, error)
	AttachExtras(ctx context.Context, guid string, extras pricing.Extras) (RatePlan, error)
	DeleteRatePlan(ctx context.Context, guid string) error
}

type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, s Subscription) (Subscription, error)
	GetSubscription(ctx context.Context, guid string) (Subscription, error)
	ListSubscriptions(ctx context.Context, customerGUID string) ([]Subscription, error)
}

// UsageWriter ingests raw usage records. StoreUsage must tolerate
// replays: records that already exist (same GUID) are skipped.
type UsageWriter interface {
	StoreUsage(ctx context.Context, records []UsageRecord) error
}

type UsageReader interface {
	GetUsageSummaries(ctx context.Context, filter UsageFilter) ([]UsageSummary, error)
	GetLastUsageRecord(ctx context.Context) (*UsageRecord, error)
}

type UsageStore interface {
	UsageWriter
	UsageReader
}

// UsageFetcher pulls batches of usage records from an external metering
// feed, resuming after the given record.
type UsageFetcher interface {
	FetchUsage(ctx context.Context, lastRecord *UsageRecord) ([]UsageRecord, error)
	Kind() string
}

// AdminStore is everything the console backend needs from persistence.
type AdminStore interface {
	Init() error
	Ping() error
	ProductStore
	CustomerStore
	MetricStore
	RatePlanStore
	SubscriptionStore
	UsageStore
	RecordPeriodicMetrics() error
}
