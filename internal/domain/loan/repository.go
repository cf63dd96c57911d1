package loan

import "context"

// Repository is the loan store: loans keyed by id plus the id counter and
// the per-borrower index. Implementations run inside the caller's
// transaction when obtained through the unit of work.
type Repository interface {
	// NextID increments and returns the loan-id counter (first call yields 1).
	NextID(ctx context.Context) (uint64, error)
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID uint64) (*Loan, error)
	GetByLoanIDForUpdate(ctx context.Context, loanID uint64) (*Loan, error)
	// ListByBorrower returns every loan the borrower ever originated,
	// ordered by loan id. Terminal loans stay listed for audit.
	ListByBorrower(ctx context.Context, borrower string) ([]*Loan, error)
}
