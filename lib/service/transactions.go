package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fundhub/fundhub.go/common"
	"github.com/fundhub/fundhub.go/db/models"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// splitTolerance is the maximum allowed gap between a transaction amount
// and the sum of its splits.
var splitTolerance = decimal.RequireFromString("0.01")

type SplitRequest struct {
	CategoryID  int64           `json:"category_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description,omitempty"`
}

type TransactionRequest struct {
	Date                time.Time       `json:"date" validate:"required"`
	Amount              decimal.Decimal `json:"amount" validate:"required"`
	Description         string          `json:"description,omitempty"`
	Type                string          `json:"type" validate:"required,oneof=income expense transfer"`
	CategoryID          int64           `json:"category_id"`
	FundID              *int64          `json:"fund_id,omitempty"`
	ToFundID            *int64          `json:"to_fund_id,omitempty"`
	DonorID             *int64          `json:"donor_id,omitempty"`
	GrantID             *int64          `json:"grant_id,omitempty"`
	Payee               string          `json:"payee,omitempty"`
	Tags                string          `json:"tags,omitempty"`
	ReferenceNumber     string          `json:"reference_number,omitempty"`
	PurchaseOrderNumber string          `json:"purchase_order_number,omitempty"`
	Reconciled          bool            `json:"reconciled,omitempty"`
	Splits              []SplitRequest  `json:"splits,omitempty"`
}

func (req *TransactionRequest) validate() error {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if req.CategoryID == 0 {
		return &ValidationError{Field: "category_id", Reason: "is required"}
	}
	switch req.Type {
	case common.TransactionTypeIncome, common.TransactionTypeExpense, common.TransactionTypeTransfer:
	default:
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown transaction type %q", req.Type)}
	}
	return validateSplits(req.Amount, req.Splits)
}

func validateSplits(amount decimal.Decimal, splits []SplitRequest) error {
	if len(splits) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, split := range splits {
		sum = sum.Add(split.Amount)
	}
	if sum.Sub(amount).Abs().GreaterThan(splitTolerance) {
		return &ValidationError{
			Field:  "splits",
			Reason: fmt.Sprintf("split amounts sum to %s, transaction amount is %s", sum, amount),
		}
	}
	return nil
}

// CreateTransaction validates and persists a new transaction together with
// its splits and recalculates every referenced aggregate, all within one
// database transaction.
func (svc *LedgerService) CreateTransaction(ctx context.Context, req *TransactionRequest) (*models.Transaction, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		Date:                req.Date,
		Amount:              req.Amount,
		Description:         req.Description,
		Type:                req.Type,
		CategoryID:          req.CategoryID,
		FundID:              req.FundID,
		ToFundID:            req.ToFundID,
		DonorID:             req.DonorID,
		GrantID:             req.GrantID,
		Payee:               req.Payee,
		Tags:                req.Tags,
		ReferenceNumber:     req.ReferenceNumber,
		PurchaseOrderNumber: req.PurchaseOrderNumber,
		Reconciled:          req.Reconciled,
	}

	err := svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if req.GrantID != nil && req.Type == common.TransactionTypeExpense {
			if err := svc.checkGrantOverspend(ctx, tx, *req.GrantID, req.Amount, decimal.Zero); err != nil {
				return err
			}
		}
		if _, err := tx.NewInsert().Model(txn).Exec(ctx); err != nil {
			return err
		}
		if err := insertSplits(ctx, tx, txn, req.Splits); err != nil {
			return err
		}
		return svc.recalculateFor(ctx, tx, txn.FundID, txn.DonorID, txn.GrantID)
	})
	if err != nil {
		return nil, err
	}

	svc.notifyAudit(ctx, AuditEntry{
		Action:      common.AuditActionCreate,
		EntityType:  common.EntityTypeTransaction,
		EntityID:    txn.ID,
		Description: fmt.Sprintf("Created %s transaction of %s", txn.Type, txn.Amount),
		NewValues:   txn,
	})
	return txn, nil
}

// UpdateTransaction replaces every mutable field and the whole split set.
// Aggregates are recalculated for both the previously and the newly
// referenced fund, donor and grant so no stale total survives a move.
func (svc *LedgerService) UpdateTransaction(ctx context.Context, id int64, req *TransactionRequest) (*models.Transaction, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	txn, err := svc.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *txn

	txn.Date = req.Date
	txn.Amount = req.Amount
	txn.Description = req.Description
	txn.Type = req.Type
	txn.CategoryID = req.CategoryID
	txn.FundID = req.FundID
	txn.ToFundID = req.ToFundID
	txn.DonorID = req.DonorID
	txn.GrantID = req.GrantID
	txn.Payee = req.Payee
	txn.Tags = req.Tags
	txn.ReferenceNumber = req.ReferenceNumber
	txn.PurchaseOrderNumber = req.PurchaseOrderNumber
	txn.Reconciled = req.Reconciled

	err = svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if req.GrantID != nil && req.Type == common.TransactionTypeExpense {
			// the amount the transaction already contributes to the grant's
			// usage is free to be re-spent by this update
			alreadyCounted := decimal.Zero
			if old.GrantID != nil && *old.GrantID == *req.GrantID &&
				old.Type == common.TransactionTypeExpense && !old.Deleted {
				alreadyCounted = old.Amount
			}
			if err := svc.checkGrantOverspend(ctx, tx, *req.GrantID, req.Amount, alreadyCounted); err != nil {
				return err
			}
		}
		if _, err := tx.NewUpdate().Model(txn).WherePK().Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.TransactionSplit)(nil)).
			Where("transaction_id = ?", txn.ID).Exec(ctx); err != nil {
			return err
		}
		txn.Splits = nil
		if err := insertSplits(ctx, tx, txn, req.Splits); err != nil {
			return err
		}
		if err := svc.recalculateFor(ctx, tx, txn.FundID, txn.DonorID, txn.GrantID); err != nil {
			return err
		}
		// previously referenced entities whose reference moved away
		return svc.recalculateFor(ctx, tx,
			staleID(old.FundID, txn.FundID),
			staleID(old.DonorID, txn.DonorID),
			staleID(old.GrantID, txn.GrantID))
	})
	if err != nil {
		return nil, err
	}

	svc.notifyAudit(ctx, AuditEntry{
		Action:      common.AuditActionUpdate,
		EntityType:  common.EntityTypeTransaction,
		EntityID:    txn.ID,
		Description: fmt.Sprintf("Updated transaction %d", txn.ID),
		OldValues:   &old,
		NewValues:   txn,
	})
	return txn, nil
}

// SoftDeleteTransaction flags the row as deleted and removes it from every
// derived aggregate. The row itself is kept so the delete can be undone.
func (svc *LedgerService) SoftDeleteTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	txn, err := svc.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	txn.Deleted = true
	txn.DeletedAt = bun.NullTime{Time: time.Now()}

	err = svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().Model(txn).
			Column("deleted", "deleted_at", "updated_at").
			WherePK().Exec(ctx); err != nil {
			return err
		}
		return svc.recalculateFor(ctx, tx, txn.FundID, txn.DonorID, txn.GrantID)
	})
	if err != nil {
		return nil, err
	}

	svc.notifyAudit(ctx, AuditEntry{
		Action:      common.AuditActionDelete,
		EntityType:  common.EntityTypeTransaction,
		EntityID:    txn.ID,
		Description: fmt.Sprintf("Soft-deleted transaction %d", txn.ID),
		OldValues:   txn,
	})
	return txn, nil
}

// RestoreTransaction clears the delete flag and re-includes the row in
// every derived aggregate.
func (svc *LedgerService) RestoreTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	txn, err := svc.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	txn.Deleted = false
	txn.DeletedAt = bun.NullTime{}

	err = svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().Model(txn).
			Column("deleted", "deleted_at", "updated_at").
			WherePK().Exec(ctx); err != nil {
			return err
		}
		return svc.recalculateFor(ctx, tx, txn.FundID, txn.DonorID, txn.GrantID)
	})
	if err != nil {
		return nil, err
	}

	svc.notifyAudit(ctx, AuditEntry{
		Action:      common.AuditActionRestore,
		EntityType:  common.EntityTypeTransaction,
		EntityID:    txn.ID,
		Description: fmt.Sprintf("Restored transaction %d", txn.ID),
		NewValues:   txn,
	})
	return txn, nil
}

// PermanentDeleteTransaction removes the row and its splits irreversibly.
// The referenced aggregates are recalculated explicitly in the same
// database transaction.
func (svc *LedgerService) PermanentDeleteTransaction(ctx context.Context, id int64) error {
	txn, err := svc.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	err = svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.TransactionSplit)(nil)).
			Where("transaction_id = ?", txn.ID).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model(txn).WherePK().Exec(ctx); err != nil {
			return err
		}
		return svc.recalculateFor(ctx, tx, txn.FundID, txn.DonorID, txn.GrantID)
	})
	if err != nil {
		return err
	}

	svc.notifyAudit(ctx, AuditEntry{
		Action:      common.AuditActionPermanentDelete,
		EntityType:  common.EntityTypeTransaction,
		EntityID:    txn.ID,
		Description: fmt.Sprintf("Permanently deleted transaction %d", txn.ID),
		OldValues:   txn,
	})
	return nil
}

func (svc *LedgerService) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	var txn models.Transaction
	err := svc.DB.NewSelect().Model(&txn).
		Relation("Splits").
		Where("?TableAlias.id = ?", id).
		Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "transaction", ID: id}
		}
		return nil, err
	}
	return &txn, nil
}

type TransactionFilter struct {
	StartDate      *time.Time
	EndDate        *time.Time
	Type           string
	FundID         *int64
	DonorID        *int64
	GrantID        *int64
	IncludeDeleted bool
	Limit          int
	Offset         int
}

func (svc *LedgerService) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	txns := []models.Transaction{}
	q := svc.DB.NewSelect().Model(&txns).Relation("Splits").Order("date DESC", "id DESC")
	if !filter.IncludeDeleted {
		q.Where("deleted = ?", false)
	}
	if filter.StartDate != nil {
		q.Where("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q.Where("date <= ?", *filter.EndDate)
	}
	if filter.Type != "" {
		q.Where("type = ?", filter.Type)
	}
	if filter.FundID != nil {
		q.Where("fund_id = ?", *filter.FundID)
	}
	if filter.DonorID != nil {
		q.Where("donor_id = ?", *filter.DonorID)
	}
	if filter.GrantID != nil {
		q.Where("grant_id = ?", *filter.GrantID)
	}
	if filter.Limit > 0 {
		q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q.Offset(filter.Offset)
	}
	err := q.Scan(ctx)
	return txns, err
}

// checkGrantOverspend rejects an expense that the grant's remaining balance
// cannot cover. alreadyCounted is the amount the mutated transaction itself
// currently contributes to the grant's usage, zero for new transactions.
func (svc *LedgerService) checkGrantOverspend(ctx context.Context, db bun.IDB, grantID int64, amount, alreadyCounted decimal.Decimal) error {
	var grant models.Grant
	err := db.NewSelect().Model(&grant).Where("id = ?", grantID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Entity: "grant", ID: grantID}
		}
		return err
	}
	if amount.GreaterThan(grant.RemainingBalance().Add(alreadyCounted)) {
		return &InvariantViolation{
			GrantID:   grant.ID,
			GrantName: grant.Name,
			Requested: amount,
			Used:      grant.AmountUsed.Sub(alreadyCounted),
			Total:     grant.Amount,
		}
	}
	return nil
}

func insertSplits(ctx context.Context, tx bun.Tx, txn *models.Transaction, splits []SplitRequest) error {
	for _, split := range splits {
		row := models.TransactionSplit{
			TransactionID: txn.ID,
			CategoryID:    split.CategoryID,
			Amount:        split.Amount,
			Description:   split.Description,
		}
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return err
		}
		txn.Splits = append(txn.Splits, row)
	}
	return nil
}

// staleID returns the old id when the reference moved to a different
// entity, nil otherwise.
func staleID(old, current *int64) *int64 {
	if old == nil {
		return nil
	}
	if current != nil && *current == *old {
		return nil
	}
	return old
}
