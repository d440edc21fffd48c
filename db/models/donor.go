package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Donor : Donor Model
type Donor struct {
	ID              int64           `json:"id" bun:",pk,autoincrement"`
	Name            string          `json:"name" bun:",notnull" validate:"required"`
	Email           string          `json:"email,omitempty" bun:",nullzero"`
	Phone           string          `json:"phone,omitempty" bun:",nullzero"`
	Address         string          `json:"address,omitempty" bun:",nullzero"`
	TotalDonated    decimal.Decimal `json:"total_donated" bun:"type:numeric,notnull"`
	FirstDonationAt bun.NullTime    `json:"first_donation_at,omitempty" bun:",nullzero"`
	LastDonationAt  bun.NullTime    `json:"last_donation_at,omitempty" bun:",nullzero"`
	CreatedAt       time.Time       `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}
