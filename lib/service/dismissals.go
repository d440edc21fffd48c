package service

import (
	"context"
	"fmt"

	"github.com/fundhub/fundhub.go/common"
	"github.com/fundhub/fundhub.go/db/models"
)

// ResolveDuplicate applies the reviewer's decision on a duplicate pair.
// Ledger changes delegate to the mutation engine so aggregates stay
// consistent; keep/dismiss only records the pair as reviewed.
func (svc *LedgerService) ResolveDuplicate(ctx context.Context, id1, id2 int64, resolution Resolution) error {
	switch resolution {
	case ResolutionKeep, ResolutionDismiss:
		return svc.DismissPair(ctx, id1, id2)
	case ResolutionDelete1:
		_, err := svc.SoftDeleteTransaction(ctx, id1)
		return err
	case ResolutionDelete2:
		_, err := svc.SoftDeleteTransaction(ctx, id2)
		return err
	case ResolutionMergeInto1:
		_, err := svc.SoftDeleteTransaction(ctx, id2)
		return err
	case ResolutionMergeInto2:
		_, err := svc.SoftDeleteTransaction(ctx, id1)
		return err
	}
	return &ValidationError{Field: "resolution", Reason: fmt.Sprintf("unknown resolution %d", resolution)}
}

// DismissPair marks a pair as reviewed. The key is order independent, so
// the pair stays dismissed no matter which id comes first on a later scan.
func (svc *LedgerService) DismissPair(ctx context.Context, id1, id2 int64) error {
	row := models.DismissedDuplicate{PairKey: models.PairKey(id1, id2)}
	_, err := svc.DB.NewInsert().Model(&row).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}

	svc.notifyAudit(ctx, AuditEntry{
		Action:      common.AuditActionDismiss,
		EntityType:  common.EntityTypeDuplicate,
		EntityID:    id1,
		Description: fmt.Sprintf("Dismissed duplicate pair %s", row.PairKey),
	})
	return nil
}

func (svc *LedgerService) IsDismissedPair(ctx context.Context, id1, id2 int64) (bool, error) {
	return svc.DB.NewSelect().Model((*models.DismissedDuplicate)(nil)).
		Where("pair_key = ?", models.PairKey(id1, id2)).
		Exists(ctx)
}

func (svc *LedgerService) dismissedPairKeys(ctx context.Context) (map[string]struct{}, error) {
	var rows []models.DismissedDuplicate
	if err := svc.DB.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		keys[row.PairKey] = struct{}{}
	}
	return keys, nil
}
