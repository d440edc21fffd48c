package integration_tests

import (
	"context"
	"log"
	"testing"

	"github.com/fundhub/fundhub.go/common"
	"github.com/fundhub/fundhub.go/db/models"
	"github.com/fundhub/fundhub.go/lib/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type TransferTestSuite struct {
	suite.Suite
	svc      *service.LedgerService
	sink     *recordingAuditSink
	fromFund *models.Fund
	toFund   *models.Fund
}

func (suite *TransferTestSuite) SetupTest() {
	svc, sink, err := LedgerTestServiceInit()
	if err != nil {
		log.Fatalf("Error initializing test service: %v", err)
	}
	suite.svc = svc
	suite.sink = sink

	suite.fromFund, err = createTestFund(svc, "General Fund", decimal.NewFromInt(1000))
	assert.NoError(suite.T(), err)
	suite.toFund, err = createTestFund(svc, "Building Fund", decimal.NewFromInt(200))
	assert.NoError(suite.T(), err)
}

func (suite *TransferTestSuite) TearDownTest() {
	suite.svc.DB.Close()
}

func (suite *TransferTestSuite) TestTransferMovesBalanceAtomically() {
	transfer, err := suite.svc.CreateTransfer(context.Background(), &service.TransferRequest{
		FromFundID: suite.fromFund.ID,
		ToFundID:   suite.toFund.ID,
		Amount:     decimal.NewFromInt(300),
	})
	assert.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), transfer.PairID)

	// exactly two transactions share the pair id, with opposite types and
	// equal amounts
	var legs []models.Transaction
	err = suite.svc.DB.NewSelect().Model(&legs).
		Where("transfer_pair_id = ?", transfer.PairID).
		Order("id ASC").Scan(context.Background())
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), legs, 2)
	assert.Equal(suite.T(), common.TransactionTypeExpense, legs[0].Type)
	assert.Equal(suite.T(), common.TransactionTypeIncome, legs[1].Type)
	assert.True(suite.T(), legs[0].Amount.Equal(legs[1].Amount))
	assert.Equal(suite.T(), legs[0].ReferenceNumber, legs[1].ReferenceNumber)
	assert.Equal(suite.T(), suite.toFund.ID, *legs[0].ToFundID)
	assert.Equal(suite.T(), suite.fromFund.ID, *legs[1].ToFundID)

	fromFund, _ := reloadFund(suite.svc, suite.fromFund.ID)
	toFund, _ := reloadFund(suite.svc, suite.toFund.ID)
	assert.True(suite.T(), fromFund.Balance.Equal(decimal.NewFromInt(700)))
	assert.True(suite.T(), toFund.Balance.Equal(decimal.NewFromInt(500)))
}

func (suite *TransferTestSuite) TestTransferSharesOneCategory() {
	for i := 0; i < 2; i++ {
		_, err := suite.svc.CreateTransfer(context.Background(), &service.TransferRequest{
			FromFundID: suite.fromFund.ID,
			ToFundID:   suite.toFund.ID,
			Amount:     decimal.NewFromInt(10),
		})
		assert.NoError(suite.T(), err)
	}

	count, err := suite.svc.DB.NewSelect().Model((*models.Category)(nil)).
		Where("name = ?", common.TransferCategoryName).
		Count(context.Background())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, count)
}

func (suite *TransferTestSuite) TestSameFundTransferRejected() {
	_, err := suite.svc.CreateTransfer(context.Background(), &service.TransferRequest{
		FromFundID: suite.fromFund.ID,
		ToFundID:   suite.fromFund.ID,
		Amount:     decimal.NewFromInt(50),
	})
	var validationErr *service.ValidationError
	assert.ErrorAs(suite.T(), err, &validationErr)
}

// A failing transfer must leave no leg and no balance change behind.
func (suite *TransferTestSuite) TestFailedTransferLeavesNothingBehind() {
	_, err := suite.svc.CreateTransfer(context.Background(), &service.TransferRequest{
		FromFundID: suite.fromFund.ID,
		ToFundID:   99999,
		Amount:     decimal.NewFromInt(50),
	})
	var notFoundErr *service.NotFoundError
	assert.ErrorAs(suite.T(), err, &notFoundErr)

	count, err := suite.svc.DB.NewSelect().Model((*models.Transaction)(nil)).Count(context.Background())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, count)

	fromFund, _ := reloadFund(suite.svc, suite.fromFund.ID)
	assert.True(suite.T(), fromFund.Balance.Equal(decimal.NewFromInt(1000)))
}

func TestTransferSuite(t *testing.T) {
	suite.Run(t, new(TransferTestSuite))
}
