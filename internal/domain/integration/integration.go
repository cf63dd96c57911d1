package integration

import (
	"context"

	"github.com/shopspring/decimal"
)

// Capability interfaces for the external collaborators. The lifecycle
// controller depends only on these; concrete adapters live in
// internal/adapter/integration and test doubles in internal/testutil.
// Calls are synchronous, perform no retries, and report failures with
// enough detail for the controller to map them onto its error taxonomy.

// Custody is the collateral-custody contract holding pledged NFTs.
type Custody interface {
	Lock(ctx context.Context, collateralID, loanID uint64) error
	Release(ctx context.Context, collateralID uint64) error
	TransferOwnership(ctx context.Context, collateralID uint64, newOwner string) error
	// Owner reports the account currently controlling the collateral,
	// used to distinguish defaulted-but-not-yet-liquidated loans.
	Owner(ctx context.Context, collateralID uint64) (string, error)
}

// Pool moves stable-value funds: disbursement from the liquidity pool and
// repayment transfers through the token contract. Amounts are integral
// base units, the same fixed-point unit as loan balances.
type Pool interface {
	Disburse(ctx context.Context, to string, amount decimal.Decimal) error
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error
}

// Oracle supplies a current best-effort collateral valuation. Staleness
// handling is the oracle's concern, not the ledger's.
type Oracle interface {
	Valuation(ctx context.Context, collateralID uint64) (decimal.Decimal, error)
}
