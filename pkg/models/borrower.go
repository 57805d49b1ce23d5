package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanHistoryEntry is one row of a borrower's loan history view
type LoanHistoryEntry struct {
	LoanID      string          `json:"loan_id"`
	ProductName string          `json:"product_name"`
	Principal   decimal.Decimal `json:"principal"`
	Disbursed   decimal.Decimal `json:"disbursed"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	DaysPastDue int             `json:"days_past_due"`
	Status      LoanStatus      `json:"status"`
	DisbursedAt time.Time       `json:"disbursed_at"`
}

// BorrowerTotals aggregates one borrower's loans. RiskLevel is driven by the
// maximum days past due across the borrower's loans, not the average.
type BorrowerTotals struct {
	BorrowerID       string          `json:"borrower_id"`
	LoanCount        int             `json:"loan_count"`
	TotalBorrowed    decimal.Decimal `json:"total_borrowed"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	MaxDaysPastDue   int             `json:"max_days_past_due"`
	RiskLevel        RiskLevel       `json:"risk_level"`
}

// TrendPoint is one period bucket of a borrower disbursement trend series.
// Series are dense: periods with no disbursements still appear with a zero
// amount so chart axes never drop categories.
type TrendPoint struct {
	Label       string          `json:"label"`
	PeriodStart time.Time       `json:"period_start"`
	Amount      decimal.Decimal `json:"amount"`
}
