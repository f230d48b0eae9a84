package apiserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/metermill/rateplan-console/rateplanio"
)

func ListProductsHandler(store rateplanio.ProductStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		products, err := store.ListProducts(c.Request().Context())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, products)
	}
}

func CreateProductHandler(store rateplanio.ProductStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var p rateplanio.Product
		if err := c.Bind(&p); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if p.Name == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "name is required")
		}
		created, err := store.CreateProduct(c.Request().Context(), p)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func GetProductHandler(store rateplanio.ProductStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := store.GetProduct(c.Request().Context(), c.Param("guid"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, p)
	}
}

func UpdateProductHandler(store rateplanio.ProductStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var p rateplanio.Product
		if err := c.Bind(&p); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		p.GUID = c.Param("guid")
		if p.Name == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "name is required")
		}
		updated, err := store.UpdateProduct(c.Request().Context(), p)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, updated)
	}
}

func DeleteProductHandler(store rateplanio.ProductStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.DeleteProduct(c.Request().Context(), c.Param("guid")); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}
