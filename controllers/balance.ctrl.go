package controllers

import (
	"net/http"
	"strconv"

	"github.com/fundhub/fundhub.go/lib/responses"
	"github.com/fundhub/fundhub.go/lib/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// BalanceController : Fund balance controller struct
type BalanceController struct {
	svc *service.LedgerService
}

func NewBalanceController(svc *service.LedgerService) *BalanceController {
	return &BalanceController{svc: svc}
}

type BalanceResponse struct {
	FundID          int64           `json:"fund_id"`
	Name            string          `json:"name"`
	StartingBalance decimal.Decimal `json:"starting_balance"`
	Balance         decimal.Decimal `json:"balance"`
}

func (controller *BalanceController) Balance(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	fund, err := controller.svc.GetFund(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, &BalanceResponse{
		FundID:          fund.ID,
		Name:            fund.Name,
		StartingBalance: fund.StartingBalance,
		Balance:         fund.Balance,
	})
}

func (controller *BalanceController) Funds(c echo.Context) error {
	funds, err := controller.svc.ListFunds(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, funds)
}
