package controllers

import (
	"net/http"

	"github.com/fundhub/fundhub.go/lib/responses"
	"github.com/fundhub/fundhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// CreateTransactionController : Create transaction controller struct
type CreateTransactionController struct {
	svc *service.LedgerService
}

func NewCreateTransactionController(svc *service.LedgerService) *CreateTransactionController {
	return &CreateTransactionController{svc: svc}
}

func (controller *CreateTransactionController) CreateTransaction(c echo.Context) error {
	reqBody := service.TransactionRequest{}
	if err := c.Bind(&reqBody); err != nil {
		c.Logger().Errorf("Failed to load create transaction request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&reqBody); err != nil {
		c.Logger().Errorf("Invalid create transaction request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	txn, err := controller.svc.CreateTransaction(c.Request().Context(), &reqBody)
	if err != nil {
		c.Logger().Errorf("Failed to create transaction: %v", err)
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, txn)
}
