// Package apiserver exposes the rate plan console's REST API: CRUD for
// products, customers, billable metrics, rate plans and subscriptions,
// usage ingestion, and the estimation endpoint backed by the pricing
// package.
package apiserver

import (
	"context"
	"net/http"
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/metermill/rateplan-console/apiserver/auth"
	"github.com/metermill/rateplan-console/rateplanio"
)

type Config struct {
	// Authenticator sets the auth mechanism (required)
	Authenticator auth.Authenticator
	// Store sets the store backing all resource handlers (required)
	Store rateplanio.AdminStore
	// Logger sets the request logger
	Logger lager.Logger
	// EnablePanic will cause the server to crash on panic if set to true
	EnablePanic bool
}

// New creates a new server. Use ListenAndServe to start accepting connections.
func New(cfg Config) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = errorHandler

	if !cfg.EnablePanic {
		e.Use(middleware.Recover())
	}

	if cfg.Logger != nil {
		echoCompatibleLogger := NewLogger(cfg.Logger)
		e.Logger = echoCompatibleLogger
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Output: echoCompatibleLogger,
		}))
	}

	e.Use(echoprometheus.NewMiddleware("rateplan_api"))
	e.GET("/metrics", echoprometheus.NewHandler())

	readable := auth.Authorized(cfg.Authenticator)
	writable := auth.AdminOnly(cfg.Authenticator)

	e.GET("/products", ListProductsHandler(cfg.Store), readable)
	e.POST("/products", CreateProductHandler(cfg.Store), writable)
	e.GET("/products/:guid", GetProductHandler(cfg.Store), readable)
	e.PUT("/products/:guid", UpdateProductHandler(cfg.Store), writable)
	e.DELETE("/products/:guid", DeleteProductHandler(cfg.Store), writable)

	e.GET("/customers", ListCustomersHandler(cfg.Store), readable)
	e.POST("/customers", CreateCustomerHandler(cfg.Store), writable)
	e.GET("/customers/:guid", GetCustomerHandler(cfg.Store), readable)
	e.PUT("/customers/:guid", UpdateCustomerHandler(cfg.Store), writable)

	e.GET("/billablemetrics", ListMetricsHandler(cfg.Store), readable)
	e.POST("/billablemetrics", CreateMetricHandler(cfg.Store), writable)
	e.GET("/billablemetrics/:guid", GetMetricHandler(cfg.Store), readable)

	e.GET("/rateplans", ListRatePlansHandler(cfg.Store), readable)
	e.POST("/rateplans", CreateRatePlanHandler(cfg.Store), writable)
	e.GET("/rateplans/:guid", GetRatePlanHandler(cfg.Store), readable)
	e.DELETE("/rateplans/:guid", DeleteRatePlanHandler(cfg.Store), writable)
	e.POST("/rateplans/:guid/activate", ActivateRatePlanHandler(cfg.Store), writable)

	// one endpoint per pricing strategy, matching the console's wizard steps
	for _, kind := range pricingModelPaths {
		e.POST("/rateplans/:guid/"+string(kind), AttachPricingModelHandler(cfg.Store, kind), writable)
	}
	e.POST("/rateplans/:guid/setupfees", AttachSetupFeeHandler(cfg.Store), writable)
	e.POST("/rateplans/:guid/discounts", AttachDiscountHandler(cfg.Store), writable)
	e.POST("/rateplans/:guid/freemiums", AttachFreemiumHandler(cfg.Store), writable)
	e.POST("/rateplans/:guid/minimumcommitments", AttachMinimumCommitmentHandler(cfg.Store), writable)

	e.POST("/rateplans/:guid/estimate", EstimatePlanHandler(cfg.Store), readable)
	e.POST("/estimate", EstimateHandler(), readable)

	e.GET("/subscriptions", ListSubscriptionsHandler(cfg.Store), readable)
	e.POST("/subscriptions", CreateSubscriptionHandler(cfg.Store), writable)
	e.GET("/subscriptions/:guid", GetSubscriptionHandler(cfg.Store), readable)

	e.POST("/usage", IngestUsageHandler(cfg.Store), writable)
	e.GET("/usage_summaries", UsageSummariesHandler(cfg.Store), readable)

	e.GET("/", status(cfg.Store))

	return e
}

func status(store rateplanio.AdminStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ok := store == nil || store.Ping() == nil
		code := http.StatusOK
		if !ok {
			code = http.StatusServiceUnavailable
		}
		return c.JSONPretty(code, map[string]bool{
			"ok": ok,
		}, "  ")
	}
}

func ListenAndServe(ctx context.Context, logger lager.Logger, e *echo.Echo, addr string) error {
	ctx, shutdown := context.WithCancel(ctx)

	go func() {
		defer shutdown()
		logger.Info("started", lager.Data{
			"addr": addr,
		})
		if err := e.Start(addr); err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				e.Logger.Error("listen-and-serve-error", err)
			}
		}
	}()

	// Wait for parent context to get cancelled then drain with a 10s timeout
	<-ctx.Done()
	e.Logger.Info("stopping")
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelDrain()
	return e.Shutdown(drainCtx)
}
