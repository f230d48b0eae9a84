package apiserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/metermill/rateplan-console/pricing"
	"github.com/metermill/rateplan-console/rateplanio"
)

var estimatesComputed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rateplan_estimates_total",
	Help: "Estimates computed, by pricing model kind.",
}, []string{"kind"})

type estimateRequest struct {
	Usage int64 `json:"usage"`
}

// EstimatePlanHandler prices a hypothetical usage value against a
// stored rate plan and returns the full breakdown.
func EstimatePlanHandler(store rateplanio.RatePlanStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req estimateRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		plan, err := store.GetRatePlan(c.Request().Context(), c.Param("guid"))
		if err != nil {
			return err
		}
		result, err := pricing.Estimate(plan.Model, plan.Extras, req.Usage)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		estimatesComputed.WithLabelValues(string(plan.Model.Kind)).Inc()
		return c.JSON(http.StatusOK, result)
	}
}

type adHocEstimateRequest struct {
	Usage  int64          `json:"usage"`
	Model  pricing.Model  `json:"model"`
	Extras pricing.Extras `json:"extras"`
}

// EstimateHandler prices a model that has not been saved yet, which is
// what the wizard's review step uses while a plan is still a draft.
func EstimateHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req adHocEstimateRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		result, err := pricing.Estimate(req.Model, req.Extras, req.Usage)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		estimatesComputed.WithLabelValues(string(req.Model.Kind)).Inc()
		return c.JSON(http.StatusOK, result)
	}
}
