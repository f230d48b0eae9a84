package apiserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/metermill/rateplan-console/rateplanio"
)

func ListCustomersHandler(store rateplanio.CustomerStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		customers, err := store.ListCustomers(c.Request().Context())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, customers)
	}
}

func CreateCustomerHandler(store rateplanio.CustomerStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var customer rateplanio.Customer
		if err := c.Bind(&customer); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if customer.Name == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "name is required")
		}
		created, err := store.CreateCustomer(c.Request().Context(), customer)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func GetCustomerHandler(store rateplanio.CustomerStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		customer, err := store.GetCustomer(c.Request().Context(), c.Param("guid"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, customer)
	}
}

func UpdateCustomerHandler(store rateplanio.CustomerStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var customer rateplanio.Customer
		if err := c.Bind(&customer); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		customer.GUID = c.Param("guid")
		if customer.Name == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "name is required")
		}
		updated, err := store.UpdateCustomer(c.Request().Context(), customer)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, updated)
	}
}
