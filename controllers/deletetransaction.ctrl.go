package controllers

import (
	"net/http"
	"strconv"

	"github.com/fundhub/fundhub.go/lib/responses"
	"github.com/fundhub/fundhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// DeleteTransactionController handles the transaction lifecycle endpoints:
// soft delete, restore and permanent delete.
type DeleteTransactionController struct {
	svc *service.LedgerService
}

func NewDeleteTransactionController(svc *service.LedgerService) *DeleteTransactionController {
	return &DeleteTransactionController{svc: svc}
}

func (controller *DeleteTransactionController) SoftDelete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	txn, err := controller.svc.SoftDeleteTransaction(c.Request().Context(), id)
	if err != nil {
		c.Logger().Errorf("Failed to delete transaction: transaction_id:%v error: %v", id, err)
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, txn)
}

func (controller *DeleteTransactionController) Restore(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	txn, err := controller.svc.RestoreTransaction(c.Request().Context(), id)
	if err != nil {
		c.Logger().Errorf("Failed to restore transaction: transaction_id:%v error: %v", id, err)
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, txn)
}

func (controller *DeleteTransactionController) PermanentDelete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if err := controller.svc.PermanentDeleteTransaction(c.Request().Context(), id); err != nil {
		c.Logger().Errorf("Failed to permanently delete transaction: transaction_id:%v error: %v", id, err)
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
