package rateplanstore_test

import (
	"context"

	"code.cloudfoundry.org/lager"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/metermill/rateplan-console/pricing"
	"github.com/metermill/rateplan-console/rateplanio"
	"github.com/metermill/rateplan-console/testenv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// These tests need a real Postgres reachable via TEST_DATABASE_URL.

var _ = Describe("Store", func() {

	var (
		logger = lager.NewLogger("test")
		ctx    = context.Background()
		db     *testenv.TempDB
	)

	BeforeEach(func() {
		var err error
		db, err = testenv.Open(logger)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		db.Close()
	})

	num := func(s string) decimal.Decimal {
		return decimal.RequireFromString(s)
	}

	createProduct := func() rateplanio.Product {
		product, err := db.Store.CreateProduct(ctx, rateplanio.Product{
			Name:        "API calls",
			Description: "metered API requests",
		})
		Expect(err).ToNot(HaveOccurred())
		return product
	}

	createMetric := func(aggregation rateplanio.AggregationType) rateplanio.BillableMetric {
		metric, err := db.Store.CreateMetric(ctx, rateplanio.BillableMetric{
			Name:        "requests",
			Unit:        "request",
			Aggregation: aggregation,
		})
		Expect(err).ToNot(HaveOccurred())
		return metric
	}

	createSubscription := func(planGUID string) rateplanio.Subscription {
		customer, err := db.Store.CreateCustomer(ctx, rateplanio.Customer{
			Name:  "Acme",
			Email: "billing@acme.example",
		})
		Expect(err).ToNot(HaveOccurred())
		subscription, err := db.Store.CreateSubscription(ctx, rateplanio.Subscription{
			CustomerGUID: customer.GUID,
			RatePlanGUID: planGUID,
			StartDate:    "2026-01-01",
		})
		Expect(err).ToNot(HaveOccurred())
		return subscription
	}

	It("should be idempotent", func() {
		Expect(db.Store.Init()).To(Succeed())
		Expect(db.Store.Init()).To(Succeed())
	})

	It("should round-trip a product", func() {
		product := createProduct()
		Expect(product.GUID).ToNot(BeEmpty())
		Expect(product.CreatedAt).ToNot(BeEmpty())

		got, err := db.Store.GetProduct(ctx, product.GUID)
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(product))
	})

	It("should return ErrNotFound for an unknown product", func() {
		_, err := db.Store.GetProduct(ctx, "4b8b9d55-0000-0000-0000-000000000000")
		Expect(errors.Cause(err)).To(Equal(rateplanio.ErrNotFound))
	})

	It("should take a rate plan from draft to active", func() {
		product := createProduct()
		plan, err := db.Store.CreateRatePlan(ctx, rateplanio.RatePlan{
			ProductGUID: product.GUID,
			Name:        "Standard",
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(plan.Status).To(Equal(rateplanio.RatePlanDraft))

		end := int64(200)
		plan, err = db.Store.AttachPricingModel(ctx, plan.GUID, pricing.Model{
			Kind: pricing.TieredKind,
			Tiered: &pricing.TieredModel{
				Tiers: []pricing.Tier{
					{Start: 1, End: &end, Rate: num("8")},
					{Start: 201, Rate: num("5")},
				},
			},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(plan.Model.Kind).To(Equal(pricing.TieredKind))
		Expect(plan.Model.Tiered.Tiers).To(HaveLen(2))
		Expect(plan.Model.Tiered.Tiers[0].Rate.String()).To(Equal("8"))

		plan, err = db.Store.AttachExtras(ctx, plan.GUID, pricing.Extras{
			SetupFee: &pricing.SetupFee{Amount: num("20")},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(plan.Extras.SetupFee).ToNot(BeNil())

		Expect(db.Store.UpdateRatePlanStatus(ctx, plan.GUID, rateplanio.RatePlanActive)).To(Succeed())

		got, err := db.Store.GetRatePlan(ctx, plan.GUID)
		Expect(err).ToNot(HaveOccurred())
		Expect(got.Status).To(Equal(rateplanio.RatePlanActive))
		Expect(got.Model.Kind).To(Equal(pricing.TieredKind))
		Expect(got.Extras.SetupFee.Amount.String()).To(Equal("20"))
	})

	It("should list rate plans for a single product", func() {
		productA := createProduct()
		productB := createProduct()
		_, err := db.Store.CreateRatePlan(ctx, rateplanio.RatePlan{ProductGUID: productA.GUID, Name: "A1"})
		Expect(err).ToNot(HaveOccurred())
		_, err = db.Store.CreateRatePlan(ctx, rateplanio.RatePlan{ProductGUID: productB.GUID, Name: "B1"})
		Expect(err).ToNot(HaveOccurred())

		plans, err := db.Store.ListRatePlans(ctx, productA.GUID)
		Expect(err).ToNot(HaveOccurred())
		Expect(plans).To(HaveLen(1))
		Expect(plans[0].Name).To(Equal("A1"))
	})

	It("should refuse a rate plan for a product that does not exist", func() {
		_, err := db.Store.CreateRatePlan(ctx, rateplanio.RatePlan{
			ProductGUID: "4b8b9d55-0000-0000-0000-000000000000",
			Name:        "Orphan",
		})
		Expect(err).To(HaveOccurred())
	})

	Describe("usage", func() {

		var subscription rateplanio.Subscription

		record := func(guid string, metricGUID string, quantity string, recordedAt string) rateplanio.UsageRecord {
			return rateplanio.UsageRecord{
				GUID:             guid,
				SubscriptionGUID: subscription.GUID,
				MetricGUID:       metricGUID,
				Quantity:         num(quantity),
				RecordedAt:       recordedAt,
			}
		}

		BeforeEach(func() {
			product := createProduct()
			plan, err := db.Store.CreateRatePlan(ctx, rateplanio.RatePlan{
				ProductGUID: product.GUID,
				Name:        "Standard",
			})
			Expect(err).ToNot(HaveOccurred())
			subscription = createSubscription(plan.GUID)
		})

		It("should skip replayed usage records", func() {
			metric := createMetric(rateplanio.AggregateSum)
			guid := "11111111-1111-1111-1111-111111111111"
			batch := []rateplanio.UsageRecord{record(guid, metric.GUID, "5", "2026-01-15T10:00:00Z")}
			Expect(db.Store.StoreUsage(ctx, batch)).To(Succeed())
			Expect(db.Store.StoreUsage(ctx, batch)).To(Succeed())

			Expect(db.Get(`select count(*) from usage_records`)).To(BeEquivalentTo(1))
		})

		It("should sum quantities for a sum metric", func() {
			metric := createMetric(rateplanio.AggregateSum)
			Expect(db.Store.StoreUsage(ctx, []rateplanio.UsageRecord{
				record("", metric.GUID, "5", "2026-01-15T10:00:00Z"),
				record("", metric.GUID, "7.5", "2026-01-16T10:00:00Z"),
			})).To(Succeed())

			summaries, err := db.Store.GetUsageSummaries(ctx, rateplanio.UsageFilter{
				RangeStart: "2026-01-01",
				RangeStop:  "2026-02-01",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(summaries).To(HaveLen(1))
			Expect(summaries[0].TotalQuantity.String()).To(Equal("12.5"))
			Expect(summaries[0].RecordCount).To(BeEquivalentTo(2))
		})

		It("should count records for a count metric", func() {
			metric := createMetric(rateplanio.AggregateCount)
			Expect(db.Store.StoreUsage(ctx, []rateplanio.UsageRecord{
				record("", metric.GUID, "99", "2026-01-15T10:00:00Z"),
				record("", metric.GUID, "1", "2026-01-16T10:00:00Z"),
			})).To(Succeed())

			summaries, err := db.Store.GetUsageSummaries(ctx, rateplanio.UsageFilter{
				RangeStart: "2026-01-01",
				RangeStop:  "2026-02-01",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(summaries).To(HaveLen(1))
			Expect(summaries[0].TotalQuantity.String()).To(Equal("2"))
		})

		It("should take the peak for a max metric", func() {
			metric := createMetric(rateplanio.AggregateMax)
			Expect(db.Store.StoreUsage(ctx, []rateplanio.UsageRecord{
				record("", metric.GUID, "3", "2026-01-15T10:00:00Z"),
				record("", metric.GUID, "9", "2026-01-16T10:00:00Z"),
				record("", metric.GUID, "4", "2026-01-17T10:00:00Z"),
			})).To(Succeed())

			summaries, err := db.Store.GetUsageSummaries(ctx, rateplanio.UsageFilter{
				RangeStart: "2026-01-01",
				RangeStop:  "2026-02-01",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(summaries).To(HaveLen(1))
			Expect(summaries[0].TotalQuantity.String()).To(Equal("9"))
		})

		It("should exclude records outside the range", func() {
			metric := createMetric(rateplanio.AggregateSum)
			Expect(db.Store.StoreUsage(ctx, []rateplanio.UsageRecord{
				record("", metric.GUID, "5", "2025-12-31T23:00:00Z"),
				record("", metric.GUID, "7", "2026-01-15T10:00:00Z"),
				record("", metric.GUID, "11", "2026-02-01T00:00:00Z"),
			})).To(Succeed())

			summaries, err := db.Store.GetUsageSummaries(ctx, rateplanio.UsageFilter{
				RangeStart: "2026-01-01",
				RangeStop:  "2026-02-01",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(summaries).To(HaveLen(1))
			Expect(summaries[0].TotalQuantity.String()).To(Equal("7"))
		})

		It("should expose the latest record as the collector cursor", func() {
			last, err := db.Store.GetLastUsageRecord(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(last).To(BeNil())

			metric := createMetric(rateplanio.AggregateSum)
			Expect(db.Store.StoreUsage(ctx, []rateplanio.UsageRecord{
				record("11111111-1111-1111-1111-111111111111", metric.GUID, "5", "2026-01-15T10:00:00Z"),
				record("22222222-2222-2222-2222-222222222222", metric.GUID, "7", "2026-01-16T10:00:00Z"),
			})).To(Succeed())

			last, err = db.Store.GetLastUsageRecord(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(last).ToNot(BeNil())
			Expect(last.GUID).To(Equal("22222222-2222-2222-2222-222222222222"))
		})
	})
})
