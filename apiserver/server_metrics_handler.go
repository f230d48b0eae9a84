package apiserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/metermill/rateplan-console/rateplanio"
)

func ListMetricsHandler(store rateplanio.MetricStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		metrics, err := store.ListMetrics(c.Request().Context())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, metrics)
	}
}

func CreateMetricHandler(store rateplanio.MetricStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var metric rateplanio.BillableMetric
		if err := c.Bind(&metric); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if metric.Name == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "name is required")
		}
		if metric.Aggregation == "" {
			metric.Aggregation = rateplanio.AggregateSum
		}
		created, err := store.CreateMetric(c.Request().Context(), metric)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func GetMetricHandler(store rateplanio.MetricStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		metric, err := store.GetMetric(c.Request().Context(), c.Param("guid"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, metric)
	}
}
