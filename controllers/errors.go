package controllers

import (
	"errors"

	"github.com/fundhub/fundhub.go/lib/responses"
	"github.com/fundhub/fundhub.go/lib/service"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

// writeServiceError maps typed ledger errors to their HTTP responses.
// Anything unrecognized is a server error and goes to sentry.
func writeServiceError(c echo.Context, err error) error {
	var validationErr *service.ValidationError
	var invariantErr *service.InvariantViolation
	var notFoundErr *service.NotFoundError
	var conflictErr *service.ConcurrencyConflict

	switch {
	case errors.As(err, &validationErr):
		resp := responses.BadArgumentsError
		resp.Message = validationErr.Error()
		return c.JSON(resp.HttpStatusCode, resp)
	case errors.As(err, &invariantErr):
		resp := responses.GrantOverspendError
		resp.Message = invariantErr.Error()
		return c.JSON(resp.HttpStatusCode, resp)
	case errors.As(err, &notFoundErr):
		resp := responses.NotFoundError
		resp.Message = notFoundErr.Error()
		return c.JSON(resp.HttpStatusCode, resp)
	case errors.As(err, &conflictErr):
		resp := responses.ConcurrentUpdateError
		resp.Message = conflictErr.Error()
		return c.JSON(resp.HttpStatusCode, resp)
	}

	sentry.CaptureException(err)
	return c.JSON(responses.GeneralServerError.HttpStatusCode, responses.GeneralServerError)
}
