package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fundhub/fundhub.go/common"
	"github.com/fundhub/fundhub.go/db/models"
	"github.com/google/uuid"
	"github.com/labstack/gommon/random"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type TransferRequest struct {
	FromFundID  int64           `json:"from_fund_id" validate:"required"`
	ToFundID    int64           `json:"to_fund_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description,omitempty"`
	Date        time.Time       `json:"date,omitempty"`
}

// Transfer is the pair of linked transactions representing one fund-to-fund
// money movement.
type Transfer struct {
	PairID          string              `json:"pair_id"`
	FromTransaction *models.Transaction `json:"from_transaction"`
	ToTransaction   *models.Transaction `json:"to_transaction"`
}

// CreateTransfer moves money between two funds as a single atomic unit:
// an expense leg against the source fund and an income leg against the
// destination fund, linked by one shared pair id. Both legs and both
// balance recalculations commit together or not at all.
func (svc *LedgerService) CreateTransfer(ctx context.Context, req *TransferRequest) (*Transfer, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if req.FromFundID == req.ToFundID {
		return nil, &ValidationError{Field: "to_fund_id", Reason: "source and destination fund must differ"}
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	transfer := &Transfer{}
	err := svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		fromFund, err := getFund(ctx, tx, req.FromFundID)
		if err != nil {
			return err
		}
		toFund, err := getFund(ctx, tx, req.ToFundID)
		if err != nil {
			return err
		}

		category, err := svc.transferCategory(ctx, tx)
		if err != nil {
			return err
		}

		pairID := uuid.NewString()
		reference := "TRF-" + random.String(8, random.Uppercase, random.Numeric)

		fromDescription := req.Description
		toDescription := req.Description
		if req.Description == "" {
			fromDescription = fmt.Sprintf("Transfer to %s", toFund.Name)
			toDescription = fmt.Sprintf("Transfer from %s", fromFund.Name)
		}

		fromTxn := &models.Transaction{
			Date:            date,
			Amount:          req.Amount,
			Description:     fromDescription,
			Type:            common.TransactionTypeExpense,
			CategoryID:      category.ID,
			FundID:          &fromFund.ID,
			ToFundID:        &toFund.ID,
			TransferPairID:  pairID,
			ReferenceNumber: reference,
		}
		toTxn := &models.Transaction{
			Date:            date,
			Amount:          req.Amount,
			Description:     toDescription,
			Type:            common.TransactionTypeIncome,
			CategoryID:      category.ID,
			FundID:          &toFund.ID,
			ToFundID:        &fromFund.ID,
			TransferPairID:  pairID,
			ReferenceNumber: reference,
		}

		if _, err := tx.NewInsert().Model(fromTxn).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(toTxn).Exec(ctx); err != nil {
			return err
		}

		if err := svc.RecalculateFundBalance(ctx, tx, fromFund.ID); err != nil {
			return err
		}
		if err := svc.RecalculateFundBalance(ctx, tx, toFund.ID); err != nil {
			return err
		}

		transfer.PairID = pairID
		transfer.FromTransaction = fromTxn
		transfer.ToTransaction = toTxn
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.notifyAudit(ctx, AuditEntry{
		Action:      common.AuditActionTransfer,
		EntityType:  common.EntityTypeTransfer,
		EntityID:    transfer.FromTransaction.ID,
		Description: fmt.Sprintf("Transferred %s from fund %d to fund %d", req.Amount, req.FromFundID, req.ToFundID),
		NewValues:   transfer,
	})
	return transfer, nil
}

// transferCategory resolves the single shared "Transfer" category, creating
// it on first use.
func (svc *LedgerService) transferCategory(ctx context.Context, db bun.IDB) (*models.Category, error) {
	var category models.Category
	err := db.NewSelect().Model(&category).
		Where("name = ?", common.TransferCategoryName).
		Limit(1).Scan(ctx)
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	category = models.Category{
		Name: common.TransferCategoryName,
		Type: common.TransactionTypeTransfer,
	}
	if _, err := db.NewInsert().Model(&category).Exec(ctx); err != nil {
		return nil, err
	}
	return &category, nil
}

func getFund(ctx context.Context, db bun.IDB, id int64) (*models.Fund, error) {
	var fund models.Fund
	err := db.NewSelect().Model(&fund).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "fund", ID: id}
		}
		return nil, err
	}
	return &fund, nil
}
