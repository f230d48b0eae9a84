package apiserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/metermill/rateplan-console/rateplanio"
)

type ingestUsageRequest struct {
	Records []rateplanio.UsageRecord `json:"records"`
}

// IngestUsageHandler accepts a batch of raw usage records. Replayed
// records (same GUID) are silently skipped by the store.
func IngestUsageHandler(store rateplanio.UsageWriter) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req ingestUsageRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if len(req.Records) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "records must not be empty")
		}
		for _, record := range req.Records {
			if record.SubscriptionGUID == "" || record.MetricGUID == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "subscription_guid and metric_guid are required on every record")
			}
			if record.Quantity.IsNegative() {
				return echo.NewHTTPError(http.StatusBadRequest, "quantity must not be negative")
			}
			if _, err := rateplanio.ParseDate(record.RecordedAt); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
		}
		if err := store.StoreUsage(c.Request().Context(), req.Records); err != nil {
			return err
		}
		return c.JSON(http.StatusAccepted, map[string]int{
			"accepted": len(req.Records),
		})
	}
}

func UsageSummariesHandler(store rateplanio.UsageReader) echo.HandlerFunc {
	return func(c echo.Context) error {
		filter := rateplanio.UsageFilter{
			RangeStart:        c.QueryParam("range_start"),
			RangeStop:         c.QueryParam("range_stop"),
			SubscriptionGUIDs: c.QueryParams()["subscription_guid"],
		}
		if err := filter.Validate(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		summaries, err := store.GetUsageSummaries(c.Request().Context(), filter)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, summaries)
	}
}
