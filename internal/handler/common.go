package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rewear-exchange/internal/ledger"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// ledgerError translates the ledger's typed errors into an HTTP
// response.  The InsufficientPointsError payload carries the deficit
// so clients can show how many points are missing.  Unrecognized
// errors fall through as a generic 500.
func ledgerError(c echo.Context, err error) error {
	var insufficient *ledger.InsufficientPointsError
	var invalid *ledger.InvalidTransitionError
	var unauthorized *ledger.UnauthorizedError
	var notFound *ledger.NotFoundError
	switch {
	case errors.As(err, &insufficient):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "insufficient points",
			"required":  insufficient.Required,
			"available": insufficient.Available,
			"deficit":   insufficient.Deficit(),
		})
	case errors.As(err, &invalid):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "invalid transition",
			"from":  invalid.From,
			"to":    invalid.To,
		})
	case errors.As(err, &unauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.As(err, &notFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": notFound.Kind + " not found"})
	case errors.Is(err, ledger.ErrItemNotAvailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "item is not available"})
	case errors.Is(err, ledger.ErrBackendUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service temporarily unavailable"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
