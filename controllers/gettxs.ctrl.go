package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fundhub/fundhub.go/lib/responses"
	"github.com/fundhub/fundhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// GetTXSController : GetTXSController struct
type GetTXSController struct {
	svc *service.LedgerService
}

func NewGetTXSController(svc *service.LedgerService) *GetTXSController {
	return &GetTXSController{svc: svc}
}

func (controller *GetTXSController) GetTXS(c echo.Context) error {
	filter := service.TransactionFilter{}

	if v := c.QueryParam("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
		}
		filter.StartDate = &t
	}
	if v := c.QueryParam("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
		}
		filter.EndDate = &t
	}
	filter.Type = c.QueryParam("type")
	for param, target := range map[string]**int64{
		"fund_id":  &filter.FundID,
		"donor_id": &filter.DonorID,
		"grant_id": &filter.GrantID,
	} {
		if v := c.QueryParam(param); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
			}
			*target = &id
		}
	}
	filter.IncludeDeleted = c.QueryParam("include_deleted") == "true"
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
		}
		filter.Limit = limit
	}
	if v := c.QueryParam("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
		}
		filter.Offset = offset
	}

	txns, err := controller.svc.ListTransactions(c.Request().Context(), filter)
	if err != nil {
		c.Logger().Errorf("Failed to list transactions: %v", err)
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, txns)
}

func (controller *GetTXSController) GetTX(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	txn, err := controller.svc.GetTransaction(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, txn)
}
