package loan

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "nftlend-backend/internal/domain/loan"
	"nftlend-backend/internal/testutil/integrationmock"
	"nftlend-backend/internal/testutil/loanmock"
	"nftlend-backend/internal/testutil/uowmock"

	"github.com/shopspring/decimal"
)

// ----- fixtures -----

var (
	testBorrower = strings.Repeat("b", 32)
	testPool     = strings.Repeat("f", 32)
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testParams() domain.Params {
	return domain.Params{
		CollateralRatioBps:     15000,
		MissedPaymentThreshold: 3,
		PaymentInterval:        30 * 24 * time.Hour,
		PoolAccount:            testPool,
	}
}

func activeLoan(id uint64, due time.Time) *domain.Loan {
	return &domain.Loan{
		LoanID:             id,
		Borrower:           testBorrower,
		NFTCollateralID:    42,
		LoanAmount:         dec("10000"),
		OutstandingBalance: dec("10000"),
		TotalRepaid:        decimal.Zero,
		InterestRateBps:    0,
		DurationMonths:     10,
		MonthlyPayment:     dec("1000"),
		StartedAt:          due.Add(-30 * 24 * time.Hour),
		NextPaymentDue:     due,
		Status:             domain.StatusActive,
	}
}

// newTestUsecase wires the controller against the given doubles with a
// passthrough unit of work.
func newTestUsecase(repo *loanmock.Repo, custody *integrationmock.Custody, pool *integrationmock.Pool, oracle *integrationmock.Oracle) *Usecase {
	return NewUsecase(repo, uowmock.Passthrough(repo), custody, pool, oracle, testParams())
}

// ----- Originate -----

func TestOriginate_Success(t *testing.T) {
	var created *domain.Loan
	var lockedCollateral, lockedLoan uint64
	var disbursed decimal.Decimal

	repo := &loanmock.Repo{
		NextIDFn: func(ctx context.Context) (uint64, error) { return 7, nil },
		CreateFn: func(ctx context.Context, l *domain.Loan) error { created = l; return nil },
	}
	custody := &integrationmock.Custody{
		LockFn: func(ctx context.Context, collateralID, loanID uint64) error {
			lockedCollateral, lockedLoan = collateralID, loanID
			return nil
		},
	}
	pool := &integrationmock.Pool{
		DisburseFn: func(ctx context.Context, to string, amount decimal.Decimal) error {
			if to != testBorrower {
				t.Fatalf("disburse to %s, want borrower", to)
			}
			disbursed = amount
			return nil
		},
	}
	oracle := &integrationmock.Oracle{
		ValuationFn: func(ctx context.Context, collateralID uint64) (decimal.Decimal, error) {
			return dec("20000"), nil
		},
	}
	uc := newTestUsecase(repo, custody, pool, oracle)

	dto, err := uc.Originate(context.Background(), OriginateInput{
		Borrower:        testBorrower,
		NFTCollateralID: 42,
		LoanAmount:      dec("10000"),
		InterestRateBps: 0,
		DurationMonths:  10,
	})
	if err != nil {
		t.Fatalf("Originate: %v", err)
	}
	if dto.LoanID != 7 {
		t.Fatalf("loan_id = %d, want 7", dto.LoanID)
	}
	if dto.Status != string(domain.StatusActive) {
		t.Fatalf("status = %s, want active", dto.Status)
	}
	if !dto.MonthlyPayment.Equal(dec("1000")) {
		t.Fatalf("monthly_payment = %s, want 1000", dto.MonthlyPayment)
	}
	if !dto.OutstandingBalance.Equal(dec("10000")) {
		t.Fatalf("outstanding = %s, want 10000", dto.OutstandingBalance)
	}
	if created == nil || !created.NextPaymentDue.After(created.StartedAt) {
		t.Fatalf("next_payment_due not ahead of start: %+v", created)
	}
	if lockedCollateral != 42 || lockedLoan != 7 {
		t.Fatalf("lock(%d,%d), want lock(42,7)", lockedCollateral, lockedLoan)
	}
	if !disbursed.Equal(dec("10000")) {
		t.Fatalf("disbursed %s, want 10000", disbursed)
	}
}

func TestOriginate_InsufficientCollateral(t *testing.T) {
	custody := &integrationmock.Custody{
		LockFn: func(ctx context.Context, collateralID, loanID uint64) error {
			t.Fatalf("Lock must not be called when collateral is insufficient")
			return nil
		},
	}
	oracle := &integrationmock.Oracle{
		ValuationFn: func(ctx context.Context, collateralID uint64) (decimal.Decimal, error) {
			// required is 15000 for a 10000 loan at 150%
			return dec("14999"), nil
		},
	}
	uc := newTestUsecase(&loanmock.Repo{}, custody, &integrationmock.Pool{}, oracle)

	_, err := uc.Originate(context.Background(), OriginateInput{
		Borrower:        testBorrower,
		NFTCollateralID: 42,
		LoanAmount:      dec("10000"),
		InterestRateBps: 1200,
		DurationMonths:  12,
	})
	if !errors.Is(err, domain.ErrInsufficientCollateral) {
		t.Fatalf("err = %v, want ErrInsufficientCollateral", err)
	}
}

func TestOriginate_LockFailure_NothingPersisted(t *testing.T) {
	repo := &loanmock.Repo{
		CreateFn: func(ctx context.Context, l *domain.Loan) error {
			t.Fatalf("Create must not be called when the lock fails")
			return nil
		},
	}
	custody := &integrationmock.Custody{
		LockFn: func(ctx context.Context, collateralID, loanID uint64) error {
			return errors.New("custody unavailable")
		},
	}
	oracle := &integrationmock.Oracle{
		ValuationFn: func(ctx context.Context, collateralID uint64) (decimal.Decimal, error) {
			return dec("20000"), nil
		},
	}
	uc := newTestUsecase(repo, custody, &integrationmock.Pool{}, oracle)

	_, err := uc.Originate(context.Background(), OriginateInput{
		Borrower:        testBorrower,
		NFTCollateralID: 42,
		LoanAmount:      dec("10000"),
		DurationMonths:  10,
	})
	if !errors.Is(err, domain.ErrCollateralLockFailed) {
		t.Fatalf("err = %v, want ErrCollateralLockFailed", err)
	}
}

func TestOriginate_DisbursementFailure_UnwindsLock(t *testing.T) {
	released := false
	repo := &loanmock.Repo{
		CreateFn: func(ctx context.Context, l *domain.Loan) error {
			t.Fatalf("Create must not be called when disbursement fails")
			return nil
		},
	}
	custody := &integrationmock.Custody{
		ReleaseFn: func(ctx context.Context, collateralID uint64) error {
			if collateralID != 42 {
				t.Fatalf("released %d, want 42", collateralID)
			}
			released = true
			return nil
		},
	}
	pool := &integrationmock.Pool{
		DisburseFn: func(ctx context.Context, to string, amount decimal.Decimal) error {
			return errors.New("pool dry")
		},
	}
	oracle := &integrationmock.Oracle{
		ValuationFn: func(ctx context.Context, collateralID uint64) (decimal.Decimal, error) {
			return dec("20000"), nil
		},
	}
	uc := newTestUsecase(repo, custody, pool, oracle)

	_, err := uc.Originate(context.Background(), OriginateInput{
		Borrower:        testBorrower,
		NFTCollateralID: 42,
		LoanAmount:      dec("10000"),
		DurationMonths:  10,
	})
	if !errors.Is(err, domain.ErrDisbursementFailed) {
		t.Fatalf("err = %v, want ErrDisbursementFailed", err)
	}
	if !released {
		t.Fatalf("collateral lock was not unwound after failed disbursement")
	}
}

func TestOriginate_InvalidInputs(t *testing.T) {
	uc := newTestUsecase(&loanmock.Repo{}, &integrationmock.Custody{}, &integrationmock.Pool{}, &integrationmock.Oracle{})

	if _, err := uc.Originate(context.Background(), OriginateInput{
		Borrower: "short", LoanAmount: dec("10000"), DurationMonths: 10,
	}); err == nil {
		t.Fatal("want error for bad borrower id")
	}
	if _, err := uc.Originate(context.Background(), OriginateInput{
		Borrower: testBorrower, LoanAmount: dec("0"), DurationMonths: 10,
	}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("zero amount: err = %v", err)
	}
	if _, err := uc.Originate(context.Background(), OriginateInput{
		Borrower: testBorrower, LoanAmount: dec("10000"), DurationMonths: 0,
	}); err == nil {
		t.Fatal("want error for zero duration")
	}
}

// ----- MakePayment -----

func paymentFixture(t *testing.T, l *domain.Loan) (*loanmock.Repo, *[]domain.Loan) {
	t.Helper()
	var saves []domain.Loan
	repo := &loanmock.Repo{
		GetByLoanIDForUpdateFn: func(ctx context.Context, loanID uint64) (*domain.Loan, error) {
			if l == nil || loanID != l.LoanID {
				return nil, domain.ErrNotFound
			}
			cp := *l
			return &cp, nil
		},
		SaveFn: func(ctx context.Context, saved *domain.Loan) error {
			saves = append(saves, *saved)
			return nil
		},
	}
	return repo, &saves
}

func TestMakePayment_Success(t *testing.T) {
	due := time.Now().UTC().Add(24 * time.Hour)
	l := activeLoan(1, due)
	repo, saves := paymentFixture(t, l)

	var transferred decimal.Decimal
	pool := &integrationmock.Pool{
		TransferFn: func(ctx context.Context, from, to string, amount decimal.Decimal) error {
			if from != testBorrower || to != testPool {
				t.Fatalf("transfer %s -> %s, want borrower -> pool", from, to)
			}
			transferred = amount
			return nil
		},
	}
	uc := newTestUsecase(repo, &integrationmock.Custody{}, pool, &integrationmock.Oracle{})

	dto, err := uc.MakePayment(context.Background(), 1, dec("1000"))
	if err != nil {
		t.Fatalf("MakePayment: %v", err)
	}
	if !transferred.Equal(dec("1000")) {
		t.Fatalf("transferred %s, want 1000", transferred)
	}
	if !dto.OutstandingBalance.Equal(dec("9000")) || !dto.TotalRepaid.Equal(dec("1000")) {
		t.Fatalf("balance=%s repaid=%s", dto.OutstandingBalance, dto.TotalRepaid)
	}
	if dto.PaymentsMade != 1 {
		t.Fatalf("payments_made = %d, want 1", dto.PaymentsMade)
	}
	if got := time.Unix(dto.NextPaymentDue, 0).UTC(); !got.Equal(due.Add(30 * 24 * time.Hour).Truncate(time.Second)) {
		t.Fatalf("next_payment_due = %s, want one interval later", got)
	}
	if len(*saves) != 1 {
		t.Fatalf("saves = %d, want 1", len(*saves))
	}
}

func TestMakePayment_Overpayment_Rejected_NoMutation(t *testing.T) {
	l := activeLoan(1, time.Now().UTC())
	l.OutstandingBalance = dec("500")
	repo, saves := paymentFixture(t, l)

	pool := &integrationmock.Pool{
		TransferFn: func(ctx context.Context, from, to string, amount decimal.Decimal) error {
			t.Fatalf("Transfer must not be called for a rejected overpayment")
			return nil
		},
	}
	uc := newTestUsecase(repo, &integrationmock.Custody{}, pool, &integrationmock.Oracle{})

	_, err := uc.MakePayment(context.Background(), 1, dec("501"))
	if !errors.Is(err, domain.ErrOverpaymentRejected) {
		t.Fatalf("err = %v, want ErrOverpaymentRejected", err)
	}
	if len(*saves) != 0 {
		t.Fatalf("loan persisted despite rejection")
	}
}

func TestMakePayment_TransferFailure_NoMutation(t *testing.T) {
	l := activeLoan(1, time.Now().UTC())
	repo, saves := paymentFixture(t, l)

	pool := &integrationmock.Pool{
		TransferFn: func(ctx context.Context, from, to string, amount decimal.Decimal) error {
			return errors.New("token halted")
		},
	}
	uc := newTestUsecase(repo, &integrationmock.Custody{}, pool, &integrationmock.Oracle{})

	_, err := uc.MakePayment(context.Background(), 1, dec("1000"))
	if !errors.Is(err, domain.ErrTransferFailed) {
		t.Fatalf("err = %v, want ErrTransferFailed", err)
	}
	if len(*saves) != 0 {
		t.Fatalf("loan persisted despite failed transfer")
	}
}

func TestMakePayment_FinalPayment_RepaysAndReleases(t *testing.T) {
	l := activeLoan(1, time.Now().UTC())
	l.OutstandingBalance = dec("1000")
	l.TotalRepaid = dec("9000")
	l.PaymentsMade = 9
	repo, saves := paymentFixture(t, l)

	released := false
	custody := &integrationmock.Custody{
		ReleaseFn: func(ctx context.Context, collateralID uint64) error {
			released = true
			return nil
		},
	}
	uc := newTestUsecase(repo, custody, &integrationmock.Pool{}, &integrationmock.Oracle{})

	dto, err := uc.MakePayment(context.Background(), 1, dec("1000"))
	if err != nil {
		t.Fatalf("MakePayment: %v", err)
	}
	if dto.Status != string(domain.StatusRepaid) {
		t.Fatalf("status = %s, want repaid", dto.Status)
	}
	if !dto.OutstandingBalance.IsZero() || !dto.TotalRepaid.Equal(dec("10000")) {
		t.Fatalf("balance=%s repaid=%s", dto.OutstandingBalance, dto.TotalRepaid)
	}
	if !released {
		t.Fatalf("collateral not released on full repayment")
	}
	if len(*saves) != 1 || (*saves)[0].Status != domain.StatusRepaid {
		t.Fatalf("repaid status not persisted: %+v", *saves)
	}
}

func TestMakePayment_ReleaseFailure_DoesNotRevertRepayment(t *testing.T) {
	l := activeLoan(1, time.Now().UTC())
	l.OutstandingBalance = dec("1000")
	repo, saves := paymentFixture(t, l)

	custody := &integrationmock.Custody{
		ReleaseFn: func(ctx context.Context, collateralID uint64) error {
			return errors.New("custody down")
		},
	}
	uc := newTestUsecase(repo, custody, &integrationmock.Pool{}, &integrationmock.Oracle{})

	dto, err := uc.MakePayment(context.Background(), 1, dec("1000"))
	if err != nil {
		t.Fatalf("MakePayment: %v", err)
	}
	if dto.Status != string(domain.StatusRepaid) {
		t.Fatalf("status = %s, want repaid despite failed release", dto.Status)
	}
	if len(*saves) != 1 {
		t.Fatalf("repayment not persisted")
	}
}

func TestMakePayment_Guards(t *testing.T) {
	repaid := activeLoan(1, time.Now().UTC())
	repaid.Status = domain.StatusRepaid
	repo, _ := paymentFixture(t, repaid)
	uc := newTestUsecase(repo, &integrationmock.Custody{}, &integrationmock.Pool{}, &integrationmock.Oracle{})

	if _, err := uc.MakePayment(context.Background(), 1, dec("1000")); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("repaid loan: err = %v, want ErrInvalidState", err)
	}
	if _, err := uc.MakePayment(context.Background(), 99, dec("1000")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown loan: err = %v, want ErrNotFound", err)
	}
	if _, err := uc.MakePayment(context.Background(), 1, dec("0")); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("zero amount: err = %v, want ErrInvalidAmount", err)
	}
	if _, err := uc.MakePayment(context.Background(), 1, dec("-5")); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("negative amount: err = %v, want ErrInvalidAmount", err)
	}
}

// ----- CheckDefault -----

func TestCheckDefault_NotOverdue_NoChange(t *testing.T) {
	l := activeLoan(1, time.Now().UTC().Add(time.Hour))
	repo, saves := paymentFixture(t, l)
	uc := newTestUsecase(repo, &integrationmock.Custody{}, &integrationmock.Pool{}, &integrationmock.Oracle{})

	dto, err := uc.CheckDefault(context.Background(), 1)
	if err != nil {
		t.Fatalf("CheckDefault: %v", err)
	}
	if dto.PaymentsMissed != 0 || dto.Status != string(domain.StatusActive) {
		t.Fatalf("unexpected change: %+v", dto)
	}
	if len(*saves) != 0 {
		t.Fatalf("save on a no-op check")
	}
}

func TestCheckDefault_Overdue_CountsOncePerPeriod(t *testing.T) {
	l := activeLoan(1, time.Now().UTC().Add(-time.Hour))
	repo := &loanmock.Repo{
		GetByLoanIDForUpdateFn: func(ctx context.Context, loanID uint64) (*domain.Loan, error) {
			cp := *l
			return &cp, nil
		},
		SaveFn: func(ctx context.Context, saved *domain.Loan) error {
			cp := *saved
			l = &cp
			return nil
		},
	}
	custody := &integrationmock.Custody{
		TransferOwnershipFn: func(ctx context.Context, collateralID uint64, newOwner string) error {
			t.Fatalf("liquidation below threshold")
			return nil
		},
	}
	uc := newTestUsecase(repo, custody, &integrationmock.Pool{}, &integrationmock.Oracle{})

	dto, err := uc.CheckDefault(context.Background(), 1)
	if err != nil {
		t.Fatalf("CheckDefault: %v", err)
	}
	if dto.PaymentsMissed != 1 || dto.Status != string(domain.StatusActive) {
		t.Fatalf("missed=%d status=%s, want 1/active", dto.PaymentsMissed, dto.Status)
	}

	// The due date advanced with the counter: a second probe in the same
	// period is a no-op.
	dto, err = uc.CheckDefault(context.Background(), 1)
	if err != nil {
		t.Fatalf("CheckDefault: %v", err)
	}
	if dto.PaymentsMissed != 1 {
		t.Fatalf("missed = %d after repeat probe, want 1", dto.PaymentsMissed)
	}
}

func TestCheckDefault_ThresholdCrossing_DefaultsAndLiquidatesOnce(t *testing.T) {
	l := activeLoan(1, time.Now().UTC().Add(-time.Hour))
	l.PaymentsMissed = 2 // threshold-1
	repo, saves := paymentFixture(t, l)

	liquidations := 0
	custody := &integrationmock.Custody{
		TransferOwnershipFn: func(ctx context.Context, collateralID uint64, newOwner string) error {
			if collateralID != 42 || newOwner != testPool {
				t.Fatalf("liquidate(%d,%s), want (42,pool)", collateralID, newOwner)
			}
			liquidations++
			return nil
		},
	}
	uc := newTestUsecase(repo, custody, &integrationmock.Pool{}, &integrationmock.Oracle{})

	dto, err := uc.CheckDefault(context.Background(), 1)
	if err != nil {
		t.Fatalf("CheckDefault: %v", err)
	}
	if dto.Status != string(domain.StatusDefaulted) || dto.PaymentsMissed != 3 {
		t.Fatalf("status=%s missed=%d, want defaulted/3", dto.Status, dto.PaymentsMissed)
	}
	if liquidations != 1 {
		t.Fatalf("liquidations = %d, want exactly 1", liquidations)
	}
	if len(*saves) != 1 || (*saves)[0].Status != domain.StatusDefaulted {
		t.Fatalf("default not persisted: %+v", *saves)
	}
}

func TestCheckDefault_AfterDefault_InvalidState(t *testing.T) {
	l := activeLoan(1, time.Now().UTC().Add(-time.Hour))
	l.Status = domain.StatusDefaulted
	repo, _ := paymentFixture(t, l)

	custody := &integrationmock.Custody{
		TransferOwnershipFn: func(ctx context.Context, collateralID uint64, newOwner string) error {
			t.Fatalf("repeated check must not double-liquidate")
			return nil
		},
	}
	uc := newTestUsecase(repo, custody, &integrationmock.Pool{}, &integrationmock.Oracle{})

	if _, err := uc.CheckDefault(context.Background(), 1); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestCheckDefault_LiquidationFailure_DefaultStands(t *testing.T) {
	l := activeLoan(1, time.Now().UTC().Add(-time.Hour))
	l.PaymentsMissed = 2
	repo, saves := paymentFixture(t, l)

	custody := &integrationmock.Custody{
		TransferOwnershipFn: func(ctx context.Context, collateralID uint64, newOwner string) error {
			return errors.New("custody rejected transfer")
		},
	}
	uc := newTestUsecase(repo, custody, &integrationmock.Pool{}, &integrationmock.Oracle{})

	dto, err := uc.CheckDefault(context.Background(), 1)
	if !errors.Is(err, domain.ErrLiquidationFailed) {
		t.Fatalf("err = %v, want ErrLiquidationFailed", err)
	}
	if dto == nil || dto.Status != string(domain.StatusDefaulted) {
		t.Fatalf("default not reported alongside the failure: %+v", dto)
	}
	if len(*saves) != 1 || (*saves)[0].Status != domain.StatusDefaulted {
		t.Fatalf("default not persisted despite failed liquidation")
	}
}

// ----- Liquidate -----

func TestLiquidate_RetriesPendingTransfer(t *testing.T) {
	l := activeLoan(1, time.Now().UTC())
	l.Status = domain.StatusDefaulted
	repo := &loanmock.Repo{
		GetByLoanIDFn: func(ctx context.Context, loanID uint64) (*domain.Loan, error) {
			cp := *l
			return &cp, nil
		},
	}

	transferred := false
	custody := &integrationmock.Custody{
		OwnerFn: func(ctx context.Context, collateralID uint64) (string, error) {
			return testBorrower, nil // pool does not own it yet
		},
		TransferOwnershipFn: func(ctx context.Context, collateralID uint64, newOwner string) error {
			transferred = true
			return nil
		},
	}
	uc := newTestUsecase(repo, custody, &integrationmock.Pool{}, &integrationmock.Oracle{})

	if _, err := uc.Liquidate(context.Background(), 1); err != nil {
		t.Fatalf("Liquidate: %v", err)
	}
	if !transferred {
		t.Fatalf("pending liquidation was not retried")
	}
}

func TestLiquidate_AlreadyOwned_NoOp(t *testing.T) {
	l := activeLoan(1, time.Now().UTC())
	l.Status = domain.StatusDefaulted
	repo := &loanmock.Repo{
		GetByLoanIDFn: func(ctx context.Context, loanID uint64) (*domain.Loan, error) {
			cp := *l
			return &cp, nil
		},
	}
	custody := &integrationmock.Custody{
		OwnerFn: func(ctx context.Context, collateralID uint64) (string, error) {
			return testPool, nil
		},
		TransferOwnershipFn: func(ctx context.Context, collateralID uint64, newOwner string) error {
			t.Fatalf("must not re-liquidate owned collateral")
			return nil
		},
	}
	uc := newTestUsecase(repo, custody, &integrationmock.Pool{}, &integrationmock.Oracle{})

	if _, err := uc.Liquidate(context.Background(), 1); err != nil {
		t.Fatalf("Liquidate: %v", err)
	}
}

func TestLiquidate_Guards(t *testing.T) {
	active := activeLoan(1, time.Now().UTC())
	repo := &loanmock.Repo{
		GetByLoanIDFn: func(ctx context.Context, loanID uint64) (*domain.Loan, error) {
			if loanID != 1 {
				return nil, domain.ErrNotFound
			}
			cp := *active
			return &cp, nil
		},
	}
	uc := newTestUsecase(repo, &integrationmock.Custody{}, &integrationmock.Pool{}, &integrationmock.Oracle{})

	if _, err := uc.Liquidate(context.Background(), 1); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("active loan: err = %v, want ErrInvalidState", err)
	}
	if _, err := uc.Liquidate(context.Background(), 2); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown loan: err = %v, want ErrNotFound", err)
	}
}

// ----- full lifecycle -----

// In-memory store for the end-to-end walk: zero-rate loan, ten payments,
// balance non-increasing and never negative, terminal repaid.
func TestLifecycle_ZeroRateLoan_FullRepayment(t *testing.T) {
	store := map[uint64]*domain.Loan{}
	next := uint64(1)
	repo := &loanmock.Repo{
		NextIDFn: func(ctx context.Context) (uint64, error) { id := next; next++; return id, nil },
		CreateFn: func(ctx context.Context, l *domain.Loan) error {
			cp := *l
			store[l.LoanID] = &cp
			return nil
		},
		SaveFn: func(ctx context.Context, l *domain.Loan) error {
			cp := *l
			store[l.LoanID] = &cp
			return nil
		},
		GetByLoanIDForUpdateFn: func(ctx context.Context, loanID uint64) (*domain.Loan, error) {
			l, ok := store[loanID]
			if !ok {
				return nil, domain.ErrNotFound
			}
			cp := *l
			return &cp, nil
		},
	}
	oracle := &integrationmock.Oracle{
		ValuationFn: func(ctx context.Context, collateralID uint64) (decimal.Decimal, error) {
			return dec("15000"), nil
		},
	}
	uc := newTestUsecase(repo, &integrationmock.Custody{}, &integrationmock.Pool{}, oracle)

	dto, err := uc.Originate(context.Background(), OriginateInput{
		Borrower:        testBorrower,
		NFTCollateralID: 42,
		LoanAmount:      dec("10000"),
		InterestRateBps: 0,
		DurationMonths:  10,
	})
	if err != nil {
		t.Fatalf("Originate: %v", err)
	}
	if !dto.MonthlyPayment.Equal(dec("1000")) {
		t.Fatalf("monthly = %s, want 1000", dto.MonthlyPayment)
	}

	prev := dto.OutstandingBalance
	for i := 0; i < 10; i++ {
		dto, err = uc.MakePayment(context.Background(), dto.LoanID, dec("1000"))
		if err != nil {
			t.Fatalf("payment %d: %v", i+1, err)
		}
		if dto.OutstandingBalance.GreaterThan(prev) || dto.OutstandingBalance.Sign() < 0 {
			t.Fatalf("balance not non-increasing/non-negative: %s -> %s", prev, dto.OutstandingBalance)
		}
		prev = dto.OutstandingBalance
	}
	if dto.Status != string(domain.StatusRepaid) {
		t.Fatalf("status = %s, want repaid", dto.Status)
	}
	if !dto.TotalRepaid.Equal(dec("10000")) || !dto.OutstandingBalance.IsZero() {
		t.Fatalf("repaid=%s balance=%s", dto.TotalRepaid, dto.OutstandingBalance)
	}
	if dto.PaymentsMade != 10 {
		t.Fatalf("payments_made = %d, want 10", dto.PaymentsMade)
	}

	// Terminal: further payments are rejected.
	if _, err := uc.MakePayment(context.Background(), dto.LoanID, dec("1000")); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("payment on repaid loan: err = %v, want ErrInvalidState", err)
	}
}
