package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusRepaid    Status = "repaid"
	StatusDefaulted Status = "defaulted"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool { return s == StatusRepaid || s == StatusDefaulted }

var (
	ErrNotFound               = errors.New("loan not found")
	ErrInvalidState           = errors.New("operation not valid for current loan status")
	ErrInvalidAmount          = errors.New("amount must be a positive integer")
	ErrInsufficientCollateral = errors.New("collateral valuation does not cover requested amount")
	ErrCollateralLockFailed   = errors.New("collateral lock failed")
	ErrDisbursementFailed     = errors.New("loan disbursement failed")
	ErrTransferFailed         = errors.New("repayment transfer failed")
	ErrOverpaymentRejected    = errors.New("payment exceeds outstanding balance")
	ErrLiquidationFailed      = errors.New("collateral liquidation failed")
)

// Loan is one origination-to-resolution credit relationship. Monetary
// columns hold integral base units in the same fixed-point unit the pool
// and token collaborators use; decimal(38,0) covers the 128-bit range.
type Loan struct {
	LoanID             uint64          `gorm:"primaryKey;autoIncrement:false;column:loan_id" json:"loan_id"`
	Borrower           string          `gorm:"size:32;index:idx_loans_borrower" json:"borrower"`
	NFTCollateralID    uint64          `gorm:"column:nft_collateral_id" json:"nft_collateral_id"`
	LoanAmount         decimal.Decimal `gorm:"type:decimal(38,0)" json:"loan_amount"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(38,0)" json:"outstanding_balance"`
	TotalRepaid        decimal.Decimal `gorm:"type:decimal(38,0)" json:"total_repaid"`
	InterestRateBps    uint32          `gorm:"column:interest_rate_bps" json:"interest_rate_bps"`
	DurationMonths     uint32          `json:"duration_months"`
	MonthlyPayment     decimal.Decimal `gorm:"type:decimal(38,0)" json:"monthly_payment"`
	StartedAt          time.Time       `json:"started_at"`
	NextPaymentDue     time.Time       `gorm:"index" json:"next_payment_due"`
	Status             Status          `gorm:"type:enum('pending','active','repaid','defaulted');default:'pending'" json:"status"`
	PaymentsMade       uint32          `json:"payments_made"`
	PaymentsMissed     uint32          `json:"payments_missed"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Counter backs the monotonic loan-id assignment; a single row holds the
// next unassigned id (starts at 1, never reused once a loan persists).
type Counter struct {
	ID     uint64 `gorm:"primaryKey;column:id"`
	NextID uint64 `gorm:"column:next_id"`
}

func (Counter) TableName() string { return "loan_counters" }

// Params are the deployment-time configuration slots: initialized once at
// startup, read-only thereafter, held by the lifecycle controller.
type Params struct {
	// CollateralRatioBps is the minimum oracle valuation required to
	// originate, as basis points of the requested amount (15000 = 150%).
	CollateralRatioBps uint32
	// MissedPaymentThreshold is the number of missed periods at which an
	// active loan defaults.
	MissedPaymentThreshold uint32
	// PaymentInterval is the month-equivalent between scheduled payments.
	PaymentInterval time.Duration
	// PoolAccount is the liquidity pool's ledger account: repayment
	// destination and liquidation beneficiary.
	PoolAccount string
}
