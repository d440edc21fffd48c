package service

import (
	"context"

	"github.com/fundhub/fundhub.go/db/models"
)

func (svc *LedgerService) GetFund(ctx context.Context, id int64) (*models.Fund, error) {
	return getFund(ctx, svc.DB, id)
}

func (svc *LedgerService) ListFunds(ctx context.Context) ([]models.Fund, error) {
	funds := []models.Fund{}
	err := svc.DB.NewSelect().Model(&funds).Order("name ASC").Scan(ctx)
	return funds, err
}
