package loan

import (
	"github.com/shopspring/decimal"
)

type OriginateInput struct {
	Borrower        string          `json:"borrower"`
	NFTCollateralID uint64          `json:"nft_collateral_id"`
	LoanAmount      decimal.Decimal `json:"loan_amount"`
	InterestRateBps uint32          `json:"interest_rate_bps"`
	DurationMonths  uint32          `json:"duration_months"`
}

type LoanDTO struct {
	LoanID             uint64          `json:"loan_id"`
	Borrower           string          `json:"borrower"`
	NFTCollateralID    uint64          `json:"nft_collateral_id"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	TotalRepaid        decimal.Decimal `json:"total_repaid"`
	InterestRateBps    uint32          `json:"interest_rate_bps"`
	DurationMonths     uint32          `json:"duration_months"`
	MonthlyPayment     decimal.Decimal `json:"monthly_payment"`
	StartTimestamp     int64           `json:"start_timestamp"`
	NextPaymentDue     int64           `json:"next_payment_due"`
	Status             string          `json:"status"`
	PaymentsMade       uint32          `json:"payments_made"`
	PaymentsMissed     uint32          `json:"payments_missed"`
}
