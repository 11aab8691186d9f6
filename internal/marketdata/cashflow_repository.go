package marketdata

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/pkg/database"
)

// CashFlowRepository reads investor cash flows per portfolio
type CashFlowRepository struct {
	pool database.Querier
}

// NewCashFlowRepository creates a new cash-flow repository
func NewCashFlowRepository(pool database.Querier) *CashFlowRepository {
	return &CashFlowRepository{pool: pool}
}

// GetByPortfolio returns every flow of the portfolio in date order.
// Contributions are stored negative, distributions and the terminal
// valuation positive.
func (r *CashFlowRepository) GetByPortfolio(ctx context.Context, portfolioID string) ([]contracts.CashFlow, error) {
	query := `
		SELECT flow_date::text, amount::text
		FROM portfolio.cash_flows
		WHERE portfolio_id = $1
		ORDER BY flow_date ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("query cash flows for %s: %w", portfolioID, err)
	}
	defer rows.Close()

	var flows []contracts.CashFlow
	for rows.Next() {
		var date, amount string
		if err := rows.Scan(&date, &amount); err != nil {
			return nil, fmt.Errorf("scan cash flow row: %w", err)
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q on %s: %w", amount, date, err)
		}
		flows = append(flows, contracts.CashFlow{Timestamp: date, Amount: value})
	}
	return flows, rows.Err()
}
