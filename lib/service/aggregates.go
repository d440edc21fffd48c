package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fundhub/fundhub.go/common"
	"github.com/fundhub/fundhub.go/db/models"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// The recalculators derive every summary field from scratch by scanning
// the entity's non-deleted transactions. No incremental delta tracking.
// They run inside the caller's transaction so a mutation and its derived
// state always commit together.

func (svc *LedgerService) RecalculateFundBalance(ctx context.Context, db bun.IDB, fundID int64) error {
	var fund models.Fund
	err := db.NewSelect().Model(&fund).Where("id = ?", fundID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Entity: "fund", ID: fundID}
		}
		return err
	}

	var txns []models.Transaction
	err = db.NewSelect().Model(&txns).
		Where("fund_id = ? AND deleted = ?", fundID, false).
		Scan(ctx)
	if err != nil {
		return err
	}

	income := sumByType(txns, common.TransactionTypeIncome)
	expenses := sumByType(txns, common.TransactionTypeExpense)
	fund.Balance = fund.StartingBalance.Add(income).Sub(expenses)

	_, err = db.NewUpdate().Model(&fund).Column("balance").WherePK().Exec(ctx)
	return err
}

func (svc *LedgerService) RecalculateDonorTotals(ctx context.Context, db bun.IDB, donorID int64) error {
	var donor models.Donor
	err := db.NewSelect().Model(&donor).Where("id = ?", donorID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Entity: "donor", ID: donorID}
		}
		return err
	}

	var txns []models.Transaction
	err = db.NewSelect().Model(&txns).
		Where("donor_id = ? AND type = ? AND deleted = ?", donorID, common.TransactionTypeIncome, false).
		Scan(ctx)
	if err != nil {
		return err
	}

	donor.TotalDonated = sumByType(txns, common.TransactionTypeIncome)
	first, last := dateRange(txns)
	donor.FirstDonationAt = bun.NullTime{Time: first}
	donor.LastDonationAt = bun.NullTime{Time: last}

	_, err = db.NewUpdate().Model(&donor).
		Column("total_donated", "first_donation_at", "last_donation_at").
		WherePK().Exec(ctx)
	return err
}

// RecalculateGrantUsage recomputes a grant's used amount as the sum of its
// non-deleted expense transactions. The update is conditional on the
// lock_version read here: if a concurrent writer got in between, no row
// matches and the caller's transaction is rolled back with a
// ConcurrencyConflict.
func (svc *LedgerService) RecalculateGrantUsage(ctx context.Context, db bun.IDB, grantID int64) error {
	var grant models.Grant
	err := db.NewSelect().Model(&grant).Where("id = ?", grantID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Entity: "grant", ID: grantID}
		}
		return err
	}

	var txns []models.Transaction
	err = db.NewSelect().Model(&txns).
		Where("grant_id = ? AND type = ? AND deleted = ?", grantID, common.TransactionTypeExpense, false).
		Scan(ctx)
	if err != nil {
		return err
	}

	used := sumByType(txns, common.TransactionTypeExpense)

	res, err := db.NewUpdate().Model((*models.Grant)(nil)).
		Set("amount_used = ?", used).
		Set("lock_version = lock_version + 1").
		Where("id = ? AND lock_version = ?", grant.ID, grant.LockVersion).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &ConcurrencyConflict{Entity: "grant", ID: grantID}
	}
	return nil
}

// recalculateFor recomputes the aggregates of every referenced entity.
// Nil ids are skipped.
func (svc *LedgerService) recalculateFor(ctx context.Context, db bun.IDB, fundID, donorID, grantID *int64) error {
	if fundID != nil {
		if err := svc.RecalculateFundBalance(ctx, db, *fundID); err != nil {
			return err
		}
	}
	if donorID != nil {
		if err := svc.RecalculateDonorTotals(ctx, db, *donorID); err != nil {
			return err
		}
	}
	if grantID != nil {
		if err := svc.RecalculateGrantUsage(ctx, db, *grantID); err != nil {
			return err
		}
	}
	return nil
}

func sumByType(txns []models.Transaction, txnType string) decimal.Decimal {
	sum := decimal.Zero
	for _, txn := range txns {
		if txn.Type == txnType {
			sum = sum.Add(txn.Amount)
		}
	}
	return sum
}

func dateRange(txns []models.Transaction) (first, last time.Time) {
	for _, txn := range txns {
		if first.IsZero() || txn.Date.Before(first) {
			first = txn.Date
		}
		if last.IsZero() || txn.Date.After(last) {
			last = txn.Date
		}
	}
	return first, last
}
