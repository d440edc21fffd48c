package integration_tests

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/fundhub/fundhub.go/common"
	"github.com/fundhub/fundhub.go/db/models"
	"github.com/fundhub/fundhub.go/lib/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type TransactionTestSuite struct {
	suite.Suite
	svc      *service.LedgerService
	sink     *recordingAuditSink
	fund     *models.Fund
	donor    *models.Donor
	grant    *models.Grant
	category *models.Category
}

func (suite *TransactionTestSuite) SetupTest() {
	svc, sink, err := LedgerTestServiceInit()
	if err != nil {
		log.Fatalf("Error initializing test service: %v", err)
	}
	suite.svc = svc
	suite.sink = sink

	suite.fund, err = createTestFund(svc, "General Fund", decimal.NewFromInt(1000))
	assert.NoError(suite.T(), err)
	suite.donor, err = createTestDonor(svc, "Jane Miller")
	assert.NoError(suite.T(), err)
	suite.grant, err = createTestGrant(svc, "Community Grant", decimal.NewFromInt(1000))
	assert.NoError(suite.T(), err)
	suite.category, err = createTestCategory(svc, "Donations")
	assert.NoError(suite.T(), err)
}

func (suite *TransactionTestSuite) TearDownTest() {
	suite.svc.DB.Close()
}

// Scenario: fund starts at $1,000, a $200 income moves it to $1,200.
func (suite *TransactionTestSuite) TestIncomeUpdatesFundBalance() {
	_, err := suite.svc.CreateTransaction(context.Background(), &service.TransactionRequest{
		Date:       date(2024, time.January, 10),
		Amount:     decimal.NewFromInt(200),
		Type:       common.TransactionTypeIncome,
		CategoryID: suite.category.ID,
		FundID:     &suite.fund.ID,
	})
	assert.NoError(suite.T(), err)

	fund, err := reloadFund(suite.svc, suite.fund.ID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), fund.Balance.Equal(decimal.NewFromInt(1200)),
		"expected balance 1200, got %s", fund.Balance)
}

func (suite *TransactionTestSuite) TestRejectsNonPositiveAmount() {
	_, err := suite.svc.CreateTransaction(context.Background(), &service.TransactionRequest{
		Date:       date(2024, time.January, 10),
		Amount:     decimal.Zero,
		Type:       common.TransactionTypeIncome,
		CategoryID: suite.category.ID,
	})
	assert.Error(suite.T(), err)
	var validationErr *service.ValidationError
	assert.ErrorAs(suite.T(), err, &validationErr)
}

func (suite *TransactionTestSuite) TestRejectsMissingCategory() {
	_, err := suite.svc.CreateTransaction(context.Background(), &service.TransactionRequest{
		Date:   date(2024, time.January, 10),
		Amount: decimal.NewFromInt(50),
		Type:   common.TransactionTypeExpense,
	})
	var validationErr *service.ValidationError
	assert.ErrorAs(suite.T(), err, &validationErr)
	assert.Equal(suite.T(), "category_id", validationErr.Field)
}

// Scenario: grant of $1,000 with nothing used rejects a $1,500 expense and
// stays untouched.
func (suite *TransactionTestSuite) TestGrantOverspendRejected() {
	_, err := suite.svc.CreateTransaction(context.Background(), &service.TransactionRequest{
		Date:       date(2024, time.February, 1),
		Amount:     decimal.NewFromInt(1500),
		Type:       common.TransactionTypeExpense,
		CategoryID: suite.category.ID,
		GrantID:    &suite.grant.ID,
	})
	var invariantErr *service.InvariantViolation
	assert.ErrorAs(suite.T(), err, &invariantErr)
	assert.Equal(suite.T(), "Community Grant", invariantErr.GrantName)
	assert.True(suite.T(), invariantErr.Total.Equal(decimal.NewFromInt(1000)))
	assert.True(suite.T(), invariantErr.Used.IsZero())

	grant, err := reloadGrant(suite.svc, suite.grant.ID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), grant.AmountUsed.IsZero())

	count, err := suite.svc.DB.NewSelect().Model((*models.Transaction)(nil)).Count(context.Background())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, count)
}

func (suite *TransactionTestSuite) TestGrantUsageAccumulates() {
	_, err := suite.svc.CreateTransaction(context.Background(), &service.TransactionRequest{
		Date:       date(2024, time.February, 1),
		Amount:     decimal.NewFromInt(400),
		Type:       common.TransactionTypeExpense,
		CategoryID: suite.category.ID,
		GrantID:    &suite.grant.ID,
	})
	assert.NoError(suite.T(), err)

	grant, err := reloadGrant(suite.svc, suite.grant.ID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), grant.AmountUsed.Equal(decimal.NewFromInt(400)))
	assert.True(suite.T(), grant.RemainingBalance().Equal(decimal.NewFromInt(600)))

	// a second expense beyond the remaining balance is rejected
	_, err = suite.svc.CreateTransaction(context.Background(), &service.TransactionRequest{
		Date:       date(2024, time.February, 2),
		Amount:     decimal.NewFromInt(700),
		Type:       common.TransactionTypeExpense,
		CategoryID: suite.category.ID,
		GrantID:    &suite.grant.ID,
	})
	var invariantErr *service.InvariantViolation
	assert.ErrorAs(suite.T(), err, &invariantErr)
}

// Raising an existing grant expense beyond the grant total must be
// rejected, the transaction's own current contribution is free to be
// re-spent.
func (suite *TransactionTestSuite) TestUpdateCannotOverspendGrant() {
	txn, err := suite.svc.CreateTransaction(context.Background(), &service.TransactionRequest{
		Date:       date(2024, time.February, 1),
		Amount:     decimal.NewFromInt(800),
		Type:       common.TransactionTypeExpense,
		CategoryID: suite.category.ID,
		GrantID:    &suite.grant.ID,
	})
	assert.NoError(suite.T(), err)

	_, err = suite.svc.UpdateTransaction(context.Background(), txn.ID, &service.TransactionRequest{
		Date:       txn.Date,
		Amount:     decimal.NewFromInt(1500),
		Type:       common.TransactionTypeExpense,
		CategoryID: suite.category.ID,
		GrantID:    &suite.grant.ID,
	})
	var invariantErr *service.InvariantViolation
	assert.ErrorAs(suite.T(), err, &invariantErr)
	assert.True(suite.T(), invariantErr.Used.Equal(decimal.Zero),
		"the updated expense's own 800 must not count against itself")

	// nothing committed: amount and usage are untouched
	unchanged, err := suite.svc.GetTransaction(context.Background(), txn.ID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), unchanged.Amount.Equal(decimal.NewFromInt(800)))
	grant, err := reloadGrant(suite.svc, suite.grant.ID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), grant.AmountUsed.Equal(decimal.NewFromInt(800)))

	// raising to exactly the grant total is still within bounds
	_, err = suite.svc.UpdateTransaction(context.Background(), txn.ID, &service.TransactionRequest{
		Date:       txn.Date,
		Amount:     decimal.NewFromInt(1000),
		Type:       common.TransactionTypeExpense,
		CategoryID: suite.category.ID,
		GrantID:    &suite.grant.ID,
	})
	assert.NoError(suite.T(), err)
	grant, err = reloadGrant(suite.svc, suite.grant.ID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), grant.AmountUsed.Equal(decimal.NewFromInt(1000)))
	assert.True(suite.T(), grant.RemainingBalance().IsZero())
}

func (suite *TransactionTestSuite) TestSplitSumMismatchRejected() {
	_, err := suite.svc.CreateTransaction(context.Background(), &service.TransactionRequest{
		Date:       date(2024, time.March, 5),
		Amount:     decimal.NewFromInt(100),
		Type:       common.TransactionTypeExpense,
		CategoryID: suite.category.ID,
		FundID:     &suite.fund.ID,
		Splits: []service.SplitRequest{
			{CategoryID: suite.category.ID, Amount: decimal.NewFromInt(60)},
			{CategoryID: suite.category.ID, Amount: decimal.NewFromInt(30)},
		},
	})
	var validationErr *service.ValidationError
	assert.ErrorAs(suite.T(), err, &validationErr)

	count, err := suite.svc.DB.NewSelect().Model((*models.Transaction)(nil)).Count(context.Background())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, count)
}

func (suite *TransactionTestSuite) TestSplitWithinToleranceAccepted() {
	txn, err := suite.svc.CreateTransaction(context.Background(), &service.TransactionRequest{
		Date:       date(2024, time.March, 5),
		Amount:     decimal.NewFromInt(100),
		Type:       common.TransactionTypeExpense,
		CategoryID: suite.category.ID,
		FundID:     &suite.fund.ID,
		Splits: []service.SplitRequest{
			{CategoryID: suite.category.ID, Amount: decimal.RequireFromString("60.00")},
			{CategoryID: suite.category.ID, Amount: decimal.RequireFromString("39.99")},
		},
	})
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), txn.Splits, 2)
}

// Soft delete then restore must return every aggregate to its pre-delete
// value.
func (suite *TransactionTestSuite) TestSoftDeleteRestoreRoundTrip() {
	txn, err := suite.svc.CreateTransaction(context.Background(), &service.TransactionRequest{
		Date:       date(2024, time.January, 15),
		Amount:     decimal.NewFromInt(250),
		Type:       common.TransactionTypeIncome,
		CategoryID: suite.category.ID,
		FundID:     &suite.fund.ID,
		DonorID:    &suite.donor.ID,
	})
	assert.NoError(suite.T(), err)

	fundBefore, _ := reloadFund(suite.svc, suite.fund.ID)
	donorBefore, _ := reloadDonor(suite.svc, suite.donor.ID)
	assert.True(suite.T(), fundBefore.Balance.Equal(decimal.NewFromInt(1250)))
	assert.True(suite.T(), donorBefore.TotalDonated.Equal(decimal.NewFromInt(250)))

	deleted, err := suite.svc.SoftDeleteTransaction(context.Background(), txn.ID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), deleted.Deleted)

	fundDeleted, _ := reloadFund(suite.svc, suite.fund.ID)
	donorDeleted, _ := reloadDonor(suite.svc, suite.donor.ID)
	assert.True(suite.T(), fundDeleted.Balance.Equal(decimal.NewFromInt(1000)))
	assert.True(suite.T(), donorDeleted.TotalDonated.IsZero())
	assert.True(suite.T(), donorDeleted.FirstDonationAt.IsZero())

	restored, err := suite.svc.RestoreTransaction(context.Background(), txn.ID)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), restored.Deleted)

	fundAfter, _ := reloadFund(suite.svc, suite.fund.ID)
	donorAfter, _ := reloadDonor(suite.svc, suite.donor.ID)
	assert.True(suite.T(), fundAfter.Balance.Equal(fundBefore.Balance))
	assert.True(suite.T(), donorAfter.TotalDonated.Equal(donorBefore.TotalDonated))
	assert.Equal(suite.T(), donorBefore.FirstDonationAt.Time.Unix(), donorAfter.FirstDonationAt.Time.Unix())
	assert.Equal(suite.T(), donorBefore.LastDonationAt.Time.Unix(), donorAfter.LastDonationAt.Time.Unix())
}

func (suite *TransactionTestSuite) TestUpdateMovesAggregatesBetweenFunds() {
	otherFund, err := createTestFund(suite.svc, "Building Fund", decimal.NewFromInt(500))
	assert.NoError(suite.T(), err)

	txn, err := suite.svc.CreateTransaction(context.Background(), &service.TransactionRequest{
		Date:       date(2024, time.April, 1),
		Amount:     decimal.NewFromInt(300),
		Type:       common.TransactionTypeIncome,
		CategoryID: suite.category.ID,
		FundID:     &suite.fund.ID,
	})
	assert.NoError(suite.T(), err)

	_, err = suite.svc.UpdateTransaction(context.Background(), txn.ID, &service.TransactionRequest{
		Date:       txn.Date,
		Amount:     txn.Amount,
		Type:       txn.Type,
		CategoryID: txn.CategoryID,
		FundID:     &otherFund.ID,
	})
	assert.NoError(suite.T(), err)

	oldFund, _ := reloadFund(suite.svc, suite.fund.ID)
	newFund, _ := reloadFund(suite.svc, otherFund.ID)
	assert.True(suite.T(), oldFund.Balance.Equal(decimal.NewFromInt(1000)),
		"old fund should no longer carry the moved income, got %s", oldFund.Balance)
	assert.True(suite.T(), newFund.Balance.Equal(decimal.NewFromInt(800)))
}

func (suite *TransactionTestSuite) TestUpdateUnknownTransaction() {
	_, err := suite.svc.UpdateTransaction(context.Background(), 99999, &service.TransactionRequest{
		Date:       date(2024, time.April, 1),
		Amount:     decimal.NewFromInt(10),
		Type:       common.TransactionTypeExpense,
		CategoryID: suite.category.ID,
	})
	var notFoundErr *service.NotFoundError
	assert.ErrorAs(suite.T(), err, &notFoundErr)
	assert.Equal(suite.T(), "transaction", notFoundErr.Entity)
}

func (suite *TransactionTestSuite) TestPermanentDeleteRemovesRowAndRecalculates() {
	txn, err := suite.svc.CreateTransaction(context.Background(), &service.TransactionRequest{
		Date:       date(2024, time.May, 1),
		Amount:     decimal.NewFromInt(150),
		Type:       common.TransactionTypeIncome,
		CategoryID: suite.category.ID,
		FundID:     &suite.fund.ID,
		Splits: []service.SplitRequest{
			{CategoryID: suite.category.ID, Amount: decimal.NewFromInt(150)},
		},
	})
	assert.NoError(suite.T(), err)

	err = suite.svc.PermanentDeleteTransaction(context.Background(), txn.ID)
	assert.NoError(suite.T(), err)

	_, err = suite.svc.GetTransaction(context.Background(), txn.ID)
	var notFoundErr *service.NotFoundError
	assert.ErrorAs(suite.T(), err, &notFoundErr)

	splitCount, err := suite.svc.DB.NewSelect().Model((*models.TransactionSplit)(nil)).Count(context.Background())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, splitCount)

	fund, _ := reloadFund(suite.svc, suite.fund.ID)
	assert.True(suite.T(), fund.Balance.Equal(decimal.NewFromInt(1000)))
}

// A failing audit sink must never abort or fail a mutation.
func (suite *TransactionTestSuite) TestAuditSinkFailureDoesNotAbortMutation() {
	suite.sink.SetFail(true)

	txn, err := suite.svc.CreateTransaction(context.Background(), &service.TransactionRequest{
		Date:       date(2024, time.June, 1),
		Amount:     decimal.NewFromInt(75),
		Type:       common.TransactionTypeIncome,
		CategoryID: suite.category.ID,
		FundID:     &suite.fund.ID,
	})
	assert.NoError(suite.T(), err)
	assert.NotZero(suite.T(), txn.ID)

	fund, _ := reloadFund(suite.svc, suite.fund.ID)
	assert.True(suite.T(), fund.Balance.Equal(decimal.NewFromInt(1075)))
}

func (suite *TransactionTestSuite) TestMutationsAreAudited() {
	txn, err := suite.svc.CreateTransaction(context.Background(), &service.TransactionRequest{
		Date:       date(2024, time.June, 2),
		Amount:     decimal.NewFromInt(20),
		Type:       common.TransactionTypeIncome,
		CategoryID: suite.category.ID,
	})
	assert.NoError(suite.T(), err)
	_, err = suite.svc.SoftDeleteTransaction(context.Background(), txn.ID)
	assert.NoError(suite.T(), err)

	entries := suite.sink.Entries()
	assert.Len(suite.T(), entries, 2)
	assert.Equal(suite.T(), common.AuditActionCreate, entries[0].Action)
	assert.Equal(suite.T(), common.AuditActionDelete, entries[1].Action)
	assert.Equal(suite.T(), txn.ID, entries[1].EntityID)
}

func TestTransactionSuite(t *testing.T) {
	suite.Run(t, new(TransactionTestSuite))
}
