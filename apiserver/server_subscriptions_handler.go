package apiserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/metermill/rateplan-console/rateplanio"
)

func ListSubscriptionsHandler(store rateplanio.SubscriptionStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		subs, err := store.ListSubscriptions(c.Request().Context(), c.QueryParam("customer_guid"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, subs)
	}
}

func CreateSubscriptionHandler(store rateplanio.SubscriptionStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var sub rateplanio.Subscription
		if err := c.Bind(&sub); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if sub.CustomerGUID == "" || sub.RatePlanGUID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "customer_guid and rateplan_guid are required")
		}
		if sub.StartDate == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "start_date is required")
		}
		if _, err := rateplanio.ParseDate(sub.StartDate); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		created, err := store.CreateSubscription(c.Request().Context(), sub)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func GetSubscriptionHandler(store rateplanio.SubscriptionStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		sub, err := store.GetSubscription(c.Request().Context(), c.Param("guid"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, sub)
	}
}
