package apiserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/metermill/rateplan-console/pricing"
	"github.com/metermill/rateplan-console/rateplanio"
)

// pricingModelPaths maps each wizard pricing step to its URL segment.
var pricingModelPaths = []pricing.ModelKind{
	pricing.FlatFeeKind,
	pricing.UsageBasedKind,
	pricing.TieredKind,
	pricing.VolumeKind,
	pricing.StairstepKind,
}

func ListRatePlansHandler(store rateplanio.RatePlanStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		plans, err := store.ListRatePlans(c.Request().Context(), c.QueryParam("product_guid"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, plans)
	}
}

func CreateRatePlanHandler(store rateplanio.RatePlanStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var plan rateplanio.RatePlan
		if err := c.Bind(&plan); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if plan.Name == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "name is required")
		}
		if plan.ProductGUID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "product_guid is required")
		}
		created, err := store.CreateRatePlan(c.Request().Context(), plan)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func GetRatePlanHandler(store rateplanio.RatePlanStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		plan, err := store.GetRatePlan(c.Request().Context(), c.Param("guid"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, plan)
	}
}

func DeleteRatePlanHandler(store rateplanio.RatePlanStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.DeleteRatePlan(c.Request().Context(), c.Param("guid")); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// ActivateRatePlanHandler flips a draft plan to active once it carries
// a valid pricing model.
func ActivateRatePlanHandler(store rateplanio.RatePlanStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		guid := c.Param("guid")
		plan, err := store.GetRatePlan(c.Request().Context(), guid)
		if err != nil {
			return err
		}
		if err := plan.Model.Validate(); err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		if err := store.UpdateRatePlanStatus(c.Request().Context(), guid, rateplanio.RatePlanActive); err != nil {
			return err
		}
		plan.Status = rateplanio.RatePlanActive
		return c.JSON(http.StatusOK, plan)
	}
}

// AttachPricingModelHandler stores the pricing model posted by the
// wizard step for the given strategy. Tier errors come back keyed by
// tier index and field so the console can mark the offending inputs.
func AttachPricingModelHandler(store rateplanio.RatePlanStore, kind pricing.ModelKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var model pricing.Model
		if err := c.Bind(&model); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		model.Kind = kind
		if err := model.Validate(); err != nil {
			if errs := pricing.ValidateTiers(model.Tiers()); len(errs) > 0 {
				return c.JSON(http.StatusBadRequest, map[string]interface{}{
					"error":       "invalid tiers",
					"tier_errors": errs,
				})
			}
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		plan, err := store.AttachPricingModel(c.Request().Context(), c.Param("guid"), model)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, plan)
	}
}

func AttachSetupFeeHandler(store rateplanio.RatePlanStore) echo.HandlerFunc {
	return attachExtraHandler(store, func(extras *pricing.Extras, c echo.Context) error {
		var fee pricing.SetupFee
		if err := c.Bind(&fee); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		extras.SetupFee = &fee
		return nil
	})
}

func AttachDiscountHandler(store rateplanio.RatePlanStore) echo.HandlerFunc {
	return attachExtraHandler(store, func(extras *pricing.Extras, c echo.Context) error {
		var discount pricing.Discount
		if err := c.Bind(&discount); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		extras.Discount = &discount
		return nil
	})
}

func AttachFreemiumHandler(store rateplanio.RatePlanStore) echo.HandlerFunc {
	return attachExtraHandler(store, func(extras *pricing.Extras, c echo.Context) error {
		var freemium pricing.Freemium
		if err := c.Bind(&freemium); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		extras.Freemium = &freemium
		return nil
	})
}

func AttachMinimumCommitmentHandler(store rateplanio.RatePlanStore) echo.HandlerFunc {
	return attachExtraHandler(store, func(extras *pricing.Extras, c echo.Context) error {
		var commitment pricing.MinimumCommitment
		if err := c.Bind(&commitment); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		extras.MinimumCommitment = &commitment
		return nil
	})
}

// attachExtraHandler merges one extra into the plan's existing extras
// so the wizard can post them step by step.
func attachExtraHandler(store rateplanio.RatePlanStore, apply func(*pricing.Extras, echo.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		guid := c.Param("guid")
		plan, err := store.GetRatePlan(c.Request().Context(), guid)
		if err != nil {
			return err
		}
		extras := plan.Extras
		if err := apply(&extras, c); err != nil {
			return err
		}
		if err := extras.Validate(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		updated, err := store.AttachExtras(c.Request().Context(), guid, extras)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, updated)
	}
}
