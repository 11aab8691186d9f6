package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fincept/analytics/internal/contracts"
)

func TestPriceRepository_GetRange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPriceRepository(mock)

	rows := pgxmock.NewRows([]string{"trade_date", "close_price"}).
		AddRow("2024-01-02", "472.65").
		AddRow("2024-01-03", "468.79")
	mock.ExpectQuery("SELECT trade_date::text, close_price::text FROM market.daily_prices").
		WithArgs("SPY", "2024-01-01", "2024-01-31").
		WillReturnRows(rows)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	prices, err := repo.GetRange(context.Background(), "SPY", from, to)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "2024-01-02", prices[0].Timestamp)
	assert.True(t, prices[0].Price.Equal(decimal.RequireFromString("472.65")))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceRepository_GetRange_BadNumeric(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"trade_date", "close_price"}).AddRow("2024-01-02", "NaN")
	mock.ExpectQuery("SELECT trade_date::text, close_price::text FROM market.daily_prices").
		WithArgs("SPY", "2024-01-01", "2024-01-31").
		WillReturnRows(rows)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	_, err = NewPriceRepository(mock).GetRange(context.Background(), "SPY", from, to)
	assert.Error(t, err)
}

func TestPriceRepository_GetRange_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT trade_date::text, close_price::text FROM market.daily_prices").
		WithArgs("SPY", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	_, err = NewPriceRepository(mock).GetRange(context.Background(), "SPY", time.Now(), time.Now())
	assert.ErrorContains(t, err, "connection refused")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceRepository_SaveBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO market.daily_prices").
		WithArgs("QQQ", "2024-01-02", "409.52").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO market.daily_prices").
		WithArgs("QQQ", "2024-01-03", "402.5").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = NewPriceRepository(mock).SaveBatch(context.Background(), "QQQ", []contracts.PricePoint{
		{Timestamp: "2024-01-02", Price: decimal.RequireFromString("409.52")},
		{Timestamp: "2024-01-03T21:00:00Z", Price: decimal.RequireFromString("402.50")},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCashFlowRepository_GetByPortfolio(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"flow_date", "amount"}).
		AddRow("2020-01-01", "-1000000").
		AddRow("2022-06-30", "250000.50").
		AddRow("2024-12-31", "1400000")
	mock.ExpectQuery("SELECT flow_date::text, amount::text FROM portfolio.cash_flows").
		WithArgs("fund-1").
		WillReturnRows(rows)

	flows, err := NewCashFlowRepository(mock).GetByPortfolio(context.Background(), "fund-1")
	require.NoError(t, err)
	require.Len(t, flows, 3)
	assert.True(t, flows[0].Amount.IsNegative())
	assert.True(t, flows[1].Amount.Equal(decimal.RequireFromString("250000.5")))
	assert.Equal(t, "2024-12-31", flows[2].Timestamp)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCashFlowRepository_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT flow_date::text, amount::text FROM portfolio.cash_flows").
		WithArgs("none").
		WillReturnRows(pgxmock.NewRows([]string{"flow_date", "amount"}))

	flows, err := NewCashFlowRepository(mock).GetByPortfolio(context.Background(), "none")
	require.NoError(t, err)
	assert.Empty(t, flows)
}
