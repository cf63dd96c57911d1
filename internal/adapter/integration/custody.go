package integration

import (
	"context"
	"fmt"
)

// CustodyClient speaks to the collateral-custody service.
type CustodyClient struct{ c *client }

func NewCustodyClient(baseURL string) *CustodyClient {
	return &CustodyClient{c: newClient(baseURL)}
}

type custodyLockReq struct {
	CollateralID uint64 `json:"collateral_id"`
	LoanID       uint64 `json:"loan_id"`
}

type custodyTransferReq struct {
	CollateralID uint64 `json:"collateral_id"`
	NewOwner     string `json:"new_owner"`
}

func (a *CustodyClient) Lock(ctx context.Context, collateralID, loanID uint64) error {
	return a.c.post(ctx, "/collateral/lock", custodyLockReq{CollateralID: collateralID, LoanID: loanID}, nil)
}

func (a *CustodyClient) Release(ctx context.Context, collateralID uint64) error {
	return a.c.post(ctx, "/collateral/release", custodyLockReq{CollateralID: collateralID}, nil)
}

func (a *CustodyClient) TransferOwnership(ctx context.Context, collateralID uint64, newOwner string) error {
	return a.c.post(ctx, "/collateral/transfer", custodyTransferReq{CollateralID: collateralID, NewOwner: newOwner}, nil)
}

func (a *CustodyClient) Owner(ctx context.Context, collateralID uint64) (string, error) {
	var out struct {
		Owner string `json:"owner"`
	}
	if err := a.c.get(ctx, fmt.Sprintf("/collateral/%d/owner", collateralID), &out); err != nil {
		return "", err
	}
	return out.Owner, nil
}
