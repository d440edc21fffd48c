package controllers

import (
	"net/http"
	"strconv"

	"github.com/fundhub/fundhub.go/lib/responses"
	"github.com/fundhub/fundhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// UpdateTransactionController : Update transaction controller struct
type UpdateTransactionController struct {
	svc *service.LedgerService
}

func NewUpdateTransactionController(svc *service.LedgerService) *UpdateTransactionController {
	return &UpdateTransactionController{svc: svc}
}

func (controller *UpdateTransactionController) UpdateTransaction(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	reqBody := service.TransactionRequest{}
	if err := c.Bind(&reqBody); err != nil {
		c.Logger().Errorf("Failed to load update transaction request body: transaction_id:%v error: %v", id, err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&reqBody); err != nil {
		c.Logger().Errorf("Invalid update transaction request body: transaction_id:%v error: %v", id, err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	txn, err := controller.svc.UpdateTransaction(c.Request().Context(), id, &reqBody)
	if err != nil {
		c.Logger().Errorf("Failed to update transaction: transaction_id:%v error: %v", id, err)
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, txn)
}
