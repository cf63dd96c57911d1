package integrationmock

import (
	"context"
	"errors"

	"nftlend-backend/internal/domain/integration"

	"github.com/shopspring/decimal"
)

// Compile-time compliance
var (
	_ integration.Custody = (*Custody)(nil)
	_ integration.Pool    = (*Pool)(nil)
	_ integration.Oracle  = (*Oracle)(nil)
)

var errUnimplemented = errors.New("integrationmock: method not implemented")

// Custody is a function-backed mock of the custody capability. Unfilled
// write methods succeed; an unfilled Owner lookup fails loudly.
type Custody struct {
	LockFn              func(ctx context.Context, collateralID, loanID uint64) error
	ReleaseFn           func(ctx context.Context, collateralID uint64) error
	TransferOwnershipFn func(ctx context.Context, collateralID uint64, newOwner string) error
	OwnerFn             func(ctx context.Context, collateralID uint64) (string, error)
}

func (m *Custody) Lock(ctx context.Context, collateralID, loanID uint64) error {
	if m.LockFn != nil {
		return m.LockFn(ctx, collateralID, loanID)
	}
	return nil
}

func (m *Custody) Release(ctx context.Context, collateralID uint64) error {
	if m.ReleaseFn != nil {
		return m.ReleaseFn(ctx, collateralID)
	}
	return nil
}

func (m *Custody) TransferOwnership(ctx context.Context, collateralID uint64, newOwner string) error {
	if m.TransferOwnershipFn != nil {
		return m.TransferOwnershipFn(ctx, collateralID, newOwner)
	}
	return nil
}

func (m *Custody) Owner(ctx context.Context, collateralID uint64) (string, error) {
	if m.OwnerFn != nil {
		return m.OwnerFn(ctx, collateralID)
	}
	return "", errUnimplemented
}

// Pool mocks disbursement and repayment transfers.
type Pool struct {
	DisburseFn func(ctx context.Context, to string, amount decimal.Decimal) error
	TransferFn func(ctx context.Context, from, to string, amount decimal.Decimal) error
}

func (m *Pool) Disburse(ctx context.Context, to string, amount decimal.Decimal) error {
	if m.DisburseFn != nil {
		return m.DisburseFn(ctx, to, amount)
	}
	return nil
}

func (m *Pool) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	if m.TransferFn != nil {
		return m.TransferFn(ctx, from, to, amount)
	}
	return nil
}

// Oracle mocks the valuation feed.
type Oracle struct {
	ValuationFn func(ctx context.Context, collateralID uint64) (decimal.Decimal, error)
}

func (m *Oracle) Valuation(ctx context.Context, collateralID uint64) (decimal.Decimal, error) {
	if m.ValuationFn != nil {
		return m.ValuationFn(ctx, collateralID)
	}
	return decimal.Zero, errUnimplemented
}
