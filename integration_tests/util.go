package integration_tests

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fundhub/fundhub.go/common"
	"github.com/fundhub/fundhub.go/db"
	"github.com/fundhub/fundhub.go/db/migrations"
	"github.com/fundhub/fundhub.go/db/models"
	"github.com/fundhub/fundhub.go/lib/logging"
	"github.com/fundhub/fundhub.go/lib/service"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun/migrate"
)

// LedgerTestServiceInit sets up a LedgerService backed by an in-memory
// sqlite database with all migrations applied.
func LedgerTestServiceInit() (*service.LedgerService, *recordingAuditSink, error) {
	c := &service.Config{
		DatabaseUri:              "sqlite://:memory:",
		DuplicateDateWindowDays:  3,
		DuplicateAmountTolerance: 1,
	}

	dbConn, err := db.Open(c)
	if err != nil {
		return nil, nil, err
	}

	ctx := context.Background()
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, nil, err
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return nil, nil, err
	}

	sink := &recordingAuditSink{}
	svc := &service.LedgerService{
		Config:    c,
		DB:        dbConn,
		Logger:    logging.Logger(""),
		AuditSink: sink,
	}
	return svc, sink, nil
}

// recordingAuditSink captures audit entries and can be flipped to fail on
// demand to verify that sink failures never abort a mutation.
type recordingAuditSink struct {
	mu      sync.Mutex
	entries []service.AuditEntry
	fail    bool
}

func (s *recordingAuditSink) Log(ctx context.Context, entry service.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("audit sink unavailable")
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *recordingAuditSink) Entries() []service.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]service.AuditEntry{}, s.entries...)
}

func (s *recordingAuditSink) SetFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func createTestFund(svc *service.LedgerService, name string, startingBalance decimal.Decimal) (*models.Fund, error) {
	fund := &models.Fund{
		Name:            name,
		Type:            common.FundTypeUnrestricted,
		StartingBalance: startingBalance,
		Balance:         startingBalance,
		Active:          true,
	}
	_, err := svc.DB.NewInsert().Model(fund).Exec(context.Background())
	return fund, err
}

func createTestCategory(svc *service.LedgerService, name string) (*models.Category, error) {
	category := &models.Category{Name: name}
	_, err := svc.DB.NewInsert().Model(category).Exec(context.Background())
	return category, err
}

func createTestDonor(svc *service.LedgerService, name string) (*models.Donor, error) {
	donor := &models.Donor{Name: name}
	_, err := svc.DB.NewInsert().Model(donor).Exec(context.Background())
	return donor, err
}

func createTestGrant(svc *service.LedgerService, name string, amount decimal.Decimal) (*models.Grant, error) {
	grant := &models.Grant{Name: name, Amount: amount}
	_, err := svc.DB.NewInsert().Model(grant).Exec(context.Background())
	return grant, err
}

func reloadFund(svc *service.LedgerService, id int64) (*models.Fund, error) {
	fund := &models.Fund{}
	err := svc.DB.NewSelect().Model(fund).Where("id = ?", id).Scan(context.Background())
	return fund, err
}

func reloadDonor(svc *service.LedgerService, id int64) (*models.Donor, error) {
	donor := &models.Donor{}
	err := svc.DB.NewSelect().Model(donor).Where("id = ?", id).Scan(context.Background())
	return donor, err
}

func reloadGrant(svc *service.LedgerService, id int64) (*models.Grant, error) {
	grant := &models.Grant{}
	err := svc.DB.NewSelect().Model(grant).Where("id = ?", id).Scan(context.Background())
	return grant, err
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
