package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/pkg/database"
)

const dateLayout = "2006-01-02"

// PriceRepository reads and writes daily closing prices
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceRepository struct {
	pool database.Querier
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool database.Querier) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// GetRange returns the closes of symbol between from and to (inclusive),
// oldest first. NUMERIC is read as text to keep full precision.
func (r *PriceRepository) GetRange(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error) {
	query := `
		SELECT trade_date::text, close_price::text
		FROM market.daily_prices
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query prices for %s: %w", symbol, err)
	}
	defer rows.Close()

	var prices []contracts.PricePoint
	for rows.Next() {
		var date, closePrice string
		if err := rows.Scan(&date, &closePrice); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		price, err := decimal.NewFromString(closePrice)
		if err != nil {
			return nil, fmt.Errorf("parse close %q on %s: %w", closePrice, date, err)
		}
		prices = append(prices, contracts.PricePoint{Timestamp: date, Price: price})
	}
	return prices, rows.Err()
}

// Save upserts a single close
func (r *PriceRepository) Save(ctx context.Context, symbol string, p contracts.PricePoint) error {
	query := `
		INSERT INTO market.daily_prices (symbol, trade_date, close_price)
		VALUES ($1, $2::date, $3::numeric)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			close_price = EXCLUDED.close_price
	`

	date, err := contracts.TimestampDate(p.Timestamp)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, query, symbol, date.Format(dateLayout), p.Price.String()); err != nil {
		return fmt.Errorf("save price %s %s: %w", symbol, p.Timestamp, err)
	}
	return nil
}

// SaveBatch upserts closes one by one
func (r *PriceRepository) SaveBatch(ctx context.Context, symbol string, prices []contracts.PricePoint) error {
	for _, p := range prices {
		if err := r.Save(ctx, symbol, p); err != nil {
			return err
		}
	}
	return nil
}
