package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const HeaderUsername = "X-Username"

func uintParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

// username identifies the operator for the audit log of capacity changes.
func username(c echo.Context) (string, error) {
	u := c.Request().Header.Get(HeaderUsername)
	if u == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing "+HeaderUsername+" header")
	}
	return u, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(req)
}
