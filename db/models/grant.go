package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Grant : Grant Model
//
// LockVersion is an optimistic concurrency token. Every recalculation of
// AmountUsed increments it and the update is conditional on the version
// read at validation time, so two concurrent expenses cannot both pass the
// overspend check and commit.
type Grant struct {
	ID          int64           `json:"id" bun:",pk,autoincrement"`
	Name        string          `json:"name" bun:",notnull" validate:"required"`
	Grantor     string          `json:"grantor,omitempty" bun:",nullzero"`
	Amount      decimal.Decimal `json:"amount" bun:"type:numeric,notnull"`
	AmountUsed  decimal.Decimal `json:"amount_used" bun:"type:numeric,notnull"`
	StartDate   bun.NullTime    `json:"start_date,omitempty" bun:",nullzero"`
	EndDate     bun.NullTime    `json:"end_date,omitempty" bun:",nullzero"`
	LockVersion int64           `json:"-" bun:",notnull,default:0"`
	CreatedAt   time.Time       `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}

// RemainingBalance is the amount still available to spend against the grant.
func (g *Grant) RemainingBalance() decimal.Decimal {
	return g.Amount.Sub(g.AmountUsed)
}
