package responses

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error          bool   `json:"error"`
	Code           int    `json:"code"`
	Message        string `json:"message"`
	HttpStatusCode int    `json:"-"`
}

var GeneralServerError = ErrorResponse{
	Error:          true,
	Code:           6,
	Message:        "Something went wrong. Please try again later",
	HttpStatusCode: 500,
}

var BadArgumentsError = ErrorResponse{
	Error:          true,
	Code:           8,
	Message:        "Bad arguments",
	HttpStatusCode: 400,
}

var BadAuthError = ErrorResponse{
	Error:          true,
	Code:           1,
	Message:        "bad auth",
	HttpStatusCode: 401,
}

var NotFoundError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "not found",
	HttpStatusCode: 404,
}

var GrantOverspendError = ErrorResponse{
	Error:          true,
	Code:           3,
	Message:        "expense exceeds the grant's remaining balance",
	HttpStatusCode: 400,
}

var SameFundTransferError = ErrorResponse{
	Error:          true,
	Code:           4,
	Message:        "source and destination fund must differ",
	HttpStatusCode: 400,
}

var SplitMismatchError = ErrorResponse{
	Error:          true,
	Code:           5,
	Message:        "split amounts do not sum to the transaction amount",
	HttpStatusCode: 400,
}

var ConcurrentUpdateError = ErrorResponse{
	Error:          true,
	Code:           7,
	Message:        "the record was modified concurrently, please retry",
	HttpStatusCode: 409,
}

func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Logger().Error(err)
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetExtra("RequestID", c.Response().Header().Get(echo.HeaderXRequestID))
			hub.CaptureException(err)
		})
	}
	if he, ok := err.(*echo.HTTPError); ok {
		c.JSON(he.Code, he.Message)
	} else {
		c.JSON(http.StatusInternalServerError, GeneralServerError)
	}
}
