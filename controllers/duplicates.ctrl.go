package controllers

import (
	"net/http"

	"github.com/fundhub/fundhub.go/lib/responses"
	"github.com/fundhub/fundhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// DuplicatesController : Duplicate detection controller struct
type DuplicatesController struct {
	svc *service.LedgerService
}

func NewDuplicatesController(svc *service.LedgerService) *DuplicatesController {
	return &DuplicatesController{svc: svc}
}

func (controller *DuplicatesController) FindDuplicates(c echo.Context) error {
	criteria := controller.svc.DefaultDuplicateCriteria()
	if err := c.Bind(&criteria); err != nil {
		c.Logger().Errorf("Failed to load duplicate criteria: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	matches, err := controller.svc.FindDuplicates(c.Request().Context(), criteria)
	if err != nil {
		c.Logger().Errorf("Failed to find duplicates: %v", err)
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, matches)
}

type ResolveDuplicateRequestBody struct {
	TransactionID1 int64  `json:"transaction_id_1" validate:"required"`
	TransactionID2 int64  `json:"transaction_id_2" validate:"required"`
	Resolution     string `json:"resolution" validate:"required"`
}

func (controller *DuplicatesController) ResolveDuplicate(c echo.Context) error {
	reqBody := ResolveDuplicateRequestBody{}
	if err := c.Bind(&reqBody); err != nil {
		c.Logger().Errorf("Failed to load resolve duplicate request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&reqBody); err != nil {
		c.Logger().Errorf("Invalid resolve duplicate request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	resolution, err := service.ParseResolution(reqBody.Resolution)
	if err != nil {
		return writeServiceError(c, err)
	}

	err = controller.svc.ResolveDuplicate(c.Request().Context(), reqBody.TransactionID1, reqBody.TransactionID2, resolution)
	if err != nil {
		c.Logger().Errorf("Failed to resolve duplicate pair (%d, %d): %v",
			reqBody.TransactionID1, reqBody.TransactionID2, err)
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
