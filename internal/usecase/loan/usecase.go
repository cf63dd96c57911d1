package loan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"nftlend-backend/internal/domain/integration"
	domainLoan "nftlend-backend/internal/domain/loan"
	"nftlend-backend/internal/domain/uow"
	"nftlend-backend/pkg/amortize"

	"github.com/shopspring/decimal"
)

var bpsDenominator = decimal.NewFromInt(10_000)

// Usecase is the loan lifecycle controller. It owns every mutation of
// loan records; the custody/pool/oracle collaborators are reached only
// through their capability interfaces.
type Usecase struct {
	repo    domainLoan.Repository
	uow     uow.UnitOfWork
	custody integration.Custody
	pool    integration.Pool
	oracle  integration.Oracle
	params  domainLoan.Params

	now func() time.Time
}

func NewUsecase(
	repo domainLoan.Repository,
	tx uow.UnitOfWork,
	custody integration.Custody,
	pool integration.Pool,
	oracle integration.Oracle,
	params domainLoan.Params,
) *Usecase {
	return &Usecase{
		repo:    repo,
		uow:     tx,
		custody: custody,
		pool:    pool,
		oracle:  oracle,
		params:  params,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Originate locks collateral, disburses the principal and persists the new
// active loan in one all-or-nothing invocation. A disbursement failure
// unwinds the collateral lock before returning; nothing is persisted
// unless every step succeeded.
func (u *Usecase) Originate(ctx context.Context, in OriginateInput) (*LoanDTO, error) {
	if len(in.Borrower) != 32 {
		return nil, errors.New("invalid borrower id")
	}
	if in.LoanAmount.Sign() <= 0 || !in.LoanAmount.IsInteger() {
		return nil, domainLoan.ErrInvalidAmount
	}
	if in.DurationMonths == 0 {
		return nil, errors.New("duration_months must be positive")
	}

	valuation, err := u.oracle.Valuation(ctx, in.NFTCollateralID)
	if err != nil {
		return nil, fmt.Errorf("oracle valuation for collateral %d: %w", in.NFTCollateralID, err)
	}
	// required = amount * ratioBps / 10000, rounded half-up
	required := in.LoanAmount.
		Mul(decimal.NewFromInt(int64(u.params.CollateralRatioBps))).
		DivRound(bpsDenominator, 0)
	if valuation.LessThan(required) {
		return nil, fmt.Errorf("%w: valuation %s below required %s",
			domainLoan.ErrInsufficientCollateral, valuation, required)
	}

	monthly, totalInterest, err := amortize.Schedule(in.LoanAmount, in.InterestRateBps, in.DurationMonths)
	if err != nil {
		return nil, err
	}

	var dto *LoanDTO
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		loanID, err := r.Loans.NextID(ctx)
		if err != nil {
			return err
		}
		if err := u.custody.Lock(ctx, in.NFTCollateralID, loanID); err != nil {
			return fmt.Errorf("%w: %v", domainLoan.ErrCollateralLockFailed, err)
		}
		if err := u.pool.Disburse(ctx, in.Borrower, in.LoanAmount); err != nil {
			u.unwindLock(ctx, in.NFTCollateralID, loanID)
			return fmt.Errorf("%w: %v", domainLoan.ErrDisbursementFailed, err)
		}

		now := u.now()
		l := &domainLoan.Loan{
			LoanID:             loanID,
			Borrower:           in.Borrower,
			NFTCollateralID:    in.NFTCollateralID,
			LoanAmount:         in.LoanAmount,
			OutstandingBalance: in.LoanAmount.Add(totalInterest),
			TotalRepaid:        decimal.Zero,
			InterestRateBps:    in.InterestRateBps,
			DurationMonths:     in.DurationMonths,
			MonthlyPayment:     monthly,
			StartedAt:          now,
			NextPaymentDue:     now.Add(u.params.PaymentInterval),
			Status:             domainLoan.StatusActive,
		}
		if err := u.storeOriginated(ctx, r, l); err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// storeOriginated persists the freshly originated loan. At this point the
// disbursement already happened, so a storage failure unwinds the lock and
// leaves the moved funds as a logged reconciliation obligation.
func (u *Usecase) storeOriginated(ctx context.Context, r uow.Repos, l *domainLoan.Loan) error {
	if err := r.Loans.Create(ctx, l); err != nil {
		u.unwindLock(ctx, l.NFTCollateralID, l.LoanID)
		log.Printf("reconcile: disbursement of %s to %s has no persisted loan: %v",
			l.LoanAmount, l.Borrower, err)
		return err
	}
	return nil
}

func (u *Usecase) unwindLock(ctx context.Context, collateralID, loanID uint64) {
	if err := u.custody.Release(ctx, collateralID); err != nil {
		log.Printf("reconcile: collateral %d still locked for aborted loan %d: %v",
			collateralID, loanID, err)
	}
}

// MakePayment applies one repayment. The token transfer runs first; only
// after it succeeds is the ledger mutated. A payment above the remaining
// balance is rejected outright, never truncated.
func (u *Usecase) MakePayment(ctx context.Context, loanID uint64, amount decimal.Decimal) (*LoanDTO, error) {
	if amount.Sign() <= 0 || !amount.IsInteger() {
		return nil, domainLoan.ErrInvalidAmount
	}

	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusActive {
			return domainLoan.ErrInvalidState
		}
		if amount.GreaterThan(l.OutstandingBalance) {
			return domainLoan.ErrOverpaymentRejected
		}
		if err := u.pool.Transfer(ctx, l.Borrower, u.params.PoolAccount, amount); err != nil {
			return fmt.Errorf("%w: %v", domainLoan.ErrTransferFailed, err)
		}

		l.OutstandingBalance = l.OutstandingBalance.Sub(amount)
		l.TotalRepaid = l.TotalRepaid.Add(amount)
		l.PaymentsMade++
		l.NextPaymentDue = l.NextPaymentDue.Add(u.params.PaymentInterval)

		if l.OutstandingBalance.IsZero() {
			l.Status = domainLoan.StatusRepaid
			// Debt is extinguished; a failed release must not revert the
			// repayment. Surface it as a reconciliation obligation instead.
			if err := u.custody.Release(ctx, l.NFTCollateralID); err != nil {
				log.Printf("reconcile: release of collateral %d for repaid loan %d failed: %v",
					l.NFTCollateralID, l.LoanID, err)
			}
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// CheckDefault is the pull-based missed-payment probe: anyone may call it.
// One overdue period is counted at most once because the due date advances
// together with the counter. Reaching the configured threshold defaults
// the loan and attempts liquidation; the default is persisted even when
// the liquidation transfer fails, which is then retryable via Liquidate.
func (u *Usecase) CheckDefault(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	var dto *LoanDTO
	var liquidationErr error

	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusActive {
			return domainLoan.ErrInvalidState
		}
		if !u.now().After(l.NextPaymentDue) {
			dto = toDTO(l)
			return nil
		}

		l.PaymentsMissed++
		l.NextPaymentDue = l.NextPaymentDue.Add(u.params.PaymentInterval)
		if l.PaymentsMissed >= u.params.MissedPaymentThreshold {
			l.Status = domainLoan.StatusDefaulted
			if err := u.custody.TransferOwnership(ctx, l.NFTCollateralID, u.params.PoolAccount); err != nil {
				liquidationErr = fmt.Errorf("%w: %v", domainLoan.ErrLiquidationFailed, err)
			}
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if liquidationErr != nil {
		return dto, liquidationErr
	}
	return dto, nil
}

// Liquidate retries the collateral transfer for a defaulted loan whose
// collateral the pool does not yet own. Idempotent: a second call after a
// successful liquidation is a no-op.
func (u *Usecase) Liquidate(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l.Status != domainLoan.StatusDefaulted {
		return nil, domainLoan.ErrInvalidState
	}

	owner, err := u.custody.Owner(ctx, l.NFTCollateralID)
	if err != nil {
		return nil, fmt.Errorf("%w: owner lookup: %v", domainLoan.ErrLiquidationFailed, err)
	}
	if owner == u.params.PoolAccount {
		return toDTO(l), nil // already liquidated
	}
	if err := u.custody.TransferOwnership(ctx, l.NFTCollateralID, u.params.PoolAccount); err != nil {
		return nil, fmt.Errorf("%w: %v", domainLoan.ErrLiquidationFailed, err)
	}
	return toDTO(l), nil
}

func (u *Usecase) Get(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

func (u *Usecase) ListByBorrower(ctx context.Context, borrower string) ([]*LoanDTO, error) {
	loans, err := u.repo.ListByBorrower(ctx, borrower)
	if err != nil {
		return nil, err
	}
	out := make([]*LoanDTO, 0, len(loans))
	for _, l := range loans {
		out = append(out, toDTO(l))
	}
	return out, nil
}

func toDTO(l *domainLoan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:             l.LoanID,
		Borrower:           l.Borrower,
		NFTCollateralID:    l.NFTCollateralID,
		LoanAmount:         l.LoanAmount,
		OutstandingBalance: l.OutstandingBalance,
		TotalRepaid:        l.TotalRepaid,
		InterestRateBps:    l.InterestRateBps,
		DurationMonths:     l.DurationMonths,
		MonthlyPayment:     l.MonthlyPayment,
		StartTimestamp:     l.StartedAt.Unix(),
		NextPaymentDue:     l.NextPaymentDue.Unix(),
		Status:             string(l.Status),
		PaymentsMade:       l.PaymentsMade,
		PaymentsMissed:     l.PaymentsMissed,
	}
}
