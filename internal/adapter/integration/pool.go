package integration

import (
	"context"

	"github.com/shopspring/decimal"
)

// PoolClient moves funds: disbursements go through the liquidity pool,
// repayment transfers through the stable-value token service. Amounts
// travel as decimal strings so no precision is lost on the wire.
type PoolClient struct {
	pool  *client
	token *client
}

func NewPoolClient(poolURL, tokenURL string) *PoolClient {
	return &PoolClient{pool: newClient(poolURL), token: newClient(tokenURL)}
}

type disburseReq struct {
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type transferReq struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

func (a *PoolClient) Disburse(ctx context.Context, to string, amount decimal.Decimal) error {
	return a.pool.post(ctx, "/disburse", disburseReq{To: to, Amount: amount}, nil)
}

func (a *PoolClient) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	return a.token.post(ctx, "/transfer", transferReq{From: from, To: to, Amount: amount}, nil)
}
