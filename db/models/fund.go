package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fund : Fund Model
//
// Balance is derived state: it is recomputed from the fund's non-deleted
// transactions on every mutation and must never be written directly.
type Fund struct {
	ID              int64            `json:"id" bun:",pk,autoincrement"`
	Name            string           `json:"name" bun:",notnull,unique" validate:"required"`
	Type            string           `json:"type" bun:",notnull"`
	Description     string           `json:"description,omitempty" bun:",nullzero"`
	StartingBalance decimal.Decimal  `json:"starting_balance" bun:"type:numeric,notnull"`
	Balance         decimal.Decimal  `json:"balance" bun:"type:numeric,notnull"`
	TargetBalance   *decimal.Decimal `json:"target_balance,omitempty" bun:"type:numeric,nullzero"`
	Active          bool             `json:"active" bun:",notnull,default:true"`
	CreatedAt       time.Time        `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}
