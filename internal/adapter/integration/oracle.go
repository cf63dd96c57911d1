package integration

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// OracleClient fetches collateral valuations. Staleness is the oracle's
// problem; the ledger takes the reported price as-is.
type OracleClient struct{ c *client }

func NewOracleClient(baseURL string) *OracleClient {
	return &OracleClient{c: newClient(baseURL)}
}

func (a *OracleClient) Valuation(ctx context.Context, collateralID uint64) (decimal.Decimal, error) {
	var out struct {
		CollateralID uint64          `json:"collateral_id"`
		Valuation    decimal.Decimal `json:"valuation"`
	}
	if err := a.c.get(ctx, fmt.Sprintf("/valuation/%d", collateralID), &out); err != nil {
		return decimal.Zero, err
	}
	return out.Valuation, nil
}
