package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Transaction : Ledger Transaction Model
type Transaction struct {
	ID                  int64              `json:"id" bun:",pk,autoincrement"`
	Date                time.Time          `json:"date" bun:",notnull" validate:"required"`
	Amount              decimal.Decimal    `json:"amount" bun:"type:numeric,notnull"`
	Description         string             `json:"description" bun:",nullzero"`
	Type                string             `json:"type" bun:",notnull" validate:"required"`
	CategoryID          int64              `json:"category_id" bun:",notnull" validate:"required"`
	Category            *Category          `json:"-" bun:"rel:belongs-to,join:category_id=id"`
	FundID              *int64             `json:"fund_id,omitempty" bun:",nullzero"`
	Fund                *Fund              `json:"-" bun:"rel:belongs-to,join:fund_id=id"`
	ToFundID            *int64             `json:"to_fund_id,omitempty" bun:",nullzero"`
	TransferPairID      string             `json:"transfer_pair_id,omitempty" bun:",nullzero"`
	DonorID             *int64             `json:"donor_id,omitempty" bun:",nullzero"`
	Donor               *Donor             `json:"-" bun:"rel:belongs-to,join:donor_id=id"`
	GrantID             *int64             `json:"grant_id,omitempty" bun:",nullzero"`
	Grant               *Grant             `json:"-" bun:"rel:belongs-to,join:grant_id=id"`
	Payee               string             `json:"payee,omitempty" bun:",nullzero"`
	Tags                string             `json:"tags,omitempty" bun:",nullzero"`
	ReferenceNumber     string             `json:"reference_number,omitempty" bun:",nullzero"`
	PurchaseOrderNumber string             `json:"purchase_order_number,omitempty" bun:",nullzero"`
	Reconciled          bool               `json:"reconciled" bun:",nullzero"`
	Deleted             bool               `json:"deleted"`
	DeletedAt           bun.NullTime       `json:"deleted_at,omitempty" bun:",nullzero"`
	CreatedAt           time.Time          `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt           bun.NullTime       `json:"updated_at"`
	Splits              []TransactionSplit `json:"splits,omitempty" bun:"rel:has-many,join:id=transaction_id"`
}

func (t *Transaction) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		t.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Transaction)(nil)

// TransactionSplit : Split line item belonging to a transaction
type TransactionSplit struct {
	ID            int64           `json:"id" bun:",pk,autoincrement"`
	TransactionID int64           `json:"transaction_id" bun:",notnull"`
	CategoryID    int64           `json:"category_id" bun:",notnull" validate:"required"`
	Amount        decimal.Decimal `json:"amount" bun:"type:numeric,notnull"`
	Description   string          `json:"description,omitempty" bun:",nullzero"`
}
