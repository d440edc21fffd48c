package service

import (
	"testing"
	"time"

	"github.com/fundhub/fundhub.go/common"
	"github.com/fundhub/fundhub.go/db/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSumByType(t *testing.T) {
	txns := []models.Transaction{
		{Type: common.TransactionTypeIncome, Amount: decimal.RequireFromString("100")},
		{Type: common.TransactionTypeIncome, Amount: decimal.RequireFromString("25.50")},
		{Type: common.TransactionTypeExpense, Amount: decimal.RequireFromString("40")},
	}

	assert.True(t, decimal.RequireFromString("125.50").Equal(sumByType(txns, common.TransactionTypeIncome)))
	assert.True(t, decimal.RequireFromString("40").Equal(sumByType(txns, common.TransactionTypeExpense)))
	assert.True(t, decimal.Zero.Equal(sumByType(nil, common.TransactionTypeIncome)))
}

func TestDateRange(t *testing.T) {
	early := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	mid := time.Date(2023, time.September, 15, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)

	first, last := dateRange([]models.Transaction{{Date: mid}, {Date: late}, {Date: early}})
	assert.Equal(t, early, first)
	assert.Equal(t, late, last)
}

func TestDateRangeEmpty(t *testing.T) {
	first, last := dateRange(nil)
	assert.True(t, first.IsZero())
	assert.True(t, last.IsZero())
}
