package controllers

import (
	"net/http"

	"github.com/fundhub/fundhub.go/lib/responses"
	"github.com/fundhub/fundhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// TransferController : Fund transfer controller struct
type TransferController struct {
	svc *service.LedgerService
}

func NewTransferController(svc *service.LedgerService) *TransferController {
	return &TransferController{svc: svc}
}

func (controller *TransferController) CreateTransfer(c echo.Context) error {
	reqBody := service.TransferRequest{}
	if err := c.Bind(&reqBody); err != nil {
		c.Logger().Errorf("Failed to load transfer request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&reqBody); err != nil {
		c.Logger().Errorf("Invalid transfer request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	transfer, err := controller.svc.CreateTransfer(c.Request().Context(), &reqBody)
	if err != nil {
		c.Logger().Errorf("Failed to create transfer: from_fund:%v to_fund:%v error: %v",
			reqBody.FromFundID, reqBody.ToFundID, err)
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, transfer)
}
