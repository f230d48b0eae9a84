package apiserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/metermill/rateplan-console/rateplanio"
)

type ErrorResponse struct {
	Error      string `json:"error"`
	Constraint string `json:"constraint,omitempty"`
}

func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	resp := ErrorResponse{
		Error: "internal server error",
	}

	if errors.Is(err, rateplanio.ErrNotFound) {
		code = http.StatusNotFound
		resp.Error = err.Error()
	} else {
		switch v := err.(type) {
		case *echo.HTTPError:
			code = v.Code
			resp.Error = fmt.Sprintf("%s", v.Message)
		case *pq.Error:
			switch v.Code.Name() {
			case "check_violation", "foreign_key_violation", "unique_violation":
				code = http.StatusBadRequest
				resp.Error = "constraint violation"
				resp.Constraint = v.Constraint
			}
		}
	}

	c.Logger().Error(err)
	if err := c.JSON(code, resp); err != nil {
		c.Logger().Error(err)
	}
}
