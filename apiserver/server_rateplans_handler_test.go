package apiserver_test

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/metermill/rateplan-console/pricing"
	"github.com/metermill/rateplan-console/rateplanio"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func rate(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var _ = Describe("rate plan pricing endpoints", func() {

	var store *fakeStore

	BeforeEach(func() {
		store = &fakeStore{}
	})

	It("attaches a tiered model posted by the wizard", func() {
		var gotGUID string
		var gotModel pricing.Model
		store.attachPricingModel = func(ctx context.Context, guid string, model pricing.Model) (rateplanio.RatePlan, error) {
			gotGUID = guid
			gotModel = model
			return rateplanio.RatePlan{GUID: guid, Model: model}, nil
		}
		res := doRequest(newTestConfig(store), http.MethodPost, "/rateplans/rp-1/tiered", adminToken, `{
			"tiered": {
				"tiers": [
					{"start": 1, "end": 200, "rate": "8"},
					{"start": 201, "end": 500, "rate": "5"}
				],
				"overage_rate": "2"
			}
		}`)
		Expect(res.Code).To(Equal(http.StatusOK))
		Expect(gotGUID).To(Equal("rp-1"))
		Expect(gotModel.Kind).To(Equal(pricing.TieredKind))
		Expect(gotModel.Tiered.Tiers).To(HaveLen(2))
	})

	It("rejects a tiered model with a gap, keyed by tier and field", func() {
		res := doRequest(newTestConfig(store), http.MethodPost, "/rateplans/rp-1/tiered", adminToken, `{
			"tiered": {
				"tiers": [
					{"start": 1, "end": 200, "rate": "8"},
					{"start": 300, "end": 500, "rate": "5"}
				]
			}
		}`)
		Expect(res.Code).To(Equal(http.StatusBadRequest))

		var body struct {
			Error      string                    `json:"error"`
			TierErrors []pricing.ValidationError `json:"tier_errors"`
		}
		Expect(json.Unmarshal(res.Body.Bytes(), &body)).To(Succeed())
		Expect(body.TierErrors).To(HaveLen(1))
		Expect(body.TierErrors[0].TierIndex).To(Equal(1))
		Expect(body.TierErrors[0].Field).To(Equal("start"))
	})

	It("rejects a model whose payload is missing", func() {
		res := doRequest(newTestConfig(store), http.MethodPost, "/rateplans/rp-1/volume", adminToken, `{}`)
		Expect(res.Code).To(Equal(http.StatusBadRequest))
	})

	It("merges a discount into existing extras", func() {
		existing := rateplanio.RatePlan{
			GUID: "rp-1",
			Extras: pricing.Extras{
				SetupFee: &pricing.SetupFee{Amount: rate("20")},
			},
		}
		store.getRatePlan = func(ctx context.Context, guid string) (rateplanio.RatePlan, error) {
			return existing, nil
		}
		var gotExtras pricing.Extras
		store.attachExtras = func(ctx context.Context, guid string, extras pricing.Extras) (rateplanio.RatePlan, error) {
			gotExtras = extras
			existing.Extras = extras
			return existing, nil
		}
		res := doRequest(newTestConfig(store), http.MethodPost, "/rateplans/rp-1/discounts", adminToken,
			`{"type": "PERCENTAGE", "value": "10"}`)
		Expect(res.Code).To(Equal(http.StatusOK))
		Expect(gotExtras.SetupFee).ToNot(BeNil(), "existing setup fee must survive")
		Expect(gotExtras.Discount).ToNot(BeNil())
		Expect(gotExtras.Discount.Type).To(Equal(pricing.PercentageDiscount))
	})

	It("rejects an unknown discount type", func() {
		store.getRatePlan = func(ctx context.Context, guid string) (rateplanio.RatePlan, error) {
			return rateplanio.RatePlan{GUID: guid}, nil
		}
		res := doRequest(newTestConfig(store), http.MethodPost, "/rateplans/rp-1/discounts", adminToken,
			`{"type": "HALF", "value": "10"}`)
		Expect(res.Code).To(Equal(http.StatusBadRequest))
	})
})

var _ = Describe("estimate endpoints", func() {

	var store *fakeStore

	BeforeEach(func() {
		store = &fakeStore{}
	})

	It("estimates a stored plan", func() {
		store.getRatePlan = func(ctx context.Context, guid string) (rateplanio.RatePlan, error) {
			return rateplanio.RatePlan{
				GUID: guid,
				Model: pricing.Model{
					Kind: pricing.FlatFeeKind,
					FlatFee: &pricing.FlatFeeModel{
						Amount:        rate("30"),
						IncludedUnits: 500,
						OverageRate:   rate("1"),
					},
				},
				Extras: pricing.Extras{
					Discount: &pricing.Discount{Type: pricing.PercentageDiscount, Value: rate("10")},
				},
			}, nil
		}
		res := doRequest(newTestConfig(store), http.MethodPost, "/rateplans/rp-1/estimate", readerToken,
			`{"usage": 650}`)
		Expect(res.Code).To(Equal(http.StatusOK))

		var result pricing.Result
		Expect(json.Unmarshal(res.Body.Bytes(), &result)).To(Succeed())
		Expect(result.Total.String()).To(Equal("162"))
		Expect(result.Usage).To(Equal(int64(650)))
	})

	It("estimates an unsaved draft model", func() {
		res := doRequest(newTestConfig(store), http.MethodPost, "/estimate", readerToken, `{
			"usage": 300,
			"model": {
				"kind": "volume",
				"volume": {
					"tiers": [
						{"start": 1, "end": 200, "rate": "8"},
						{"start": 201, "end": 500, "rate": "5"}
					],
					"overage_rate": "2"
				}
			}
		}`)
		Expect(res.Code).To(Equal(http.StatusOK))

		var result pricing.Result
		Expect(json.Unmarshal(res.Body.Bytes(), &result)).To(Succeed())
		Expect(result.Total.String()).To(Equal("1500"))
	})

	It("refuses to estimate a malformed tier set", func() {
		res := doRequest(newTestConfig(store), http.MethodPost, "/estimate", readerToken, `{
			"usage": 300,
			"model": {
				"kind": "tiered",
				"tiered": {
					"tiers": [
						{"start": 1, "end": 200, "rate": "8"},
						{"start": 400, "end": 500, "rate": "5"}
					]
				}
			}
		}`)
		Expect(res.Code).To(Equal(http.StatusUnprocessableEntity))
	})
})
