// Package models contains the canonical and derived data model for the
// lending analytics engine. LoanRecord and LoanApplication are the only
// externally-owned entities; everything else is recomputed in full from a
// snapshot of them.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus represents the lifecycle state of a disbursed loan
type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "active"
	LoanStatusCompleted LoanStatus = "completed"
	LoanStatusDefaulted LoanStatus = "defaulted"
	LoanStatusCancelled LoanStatus = "cancelled"
)

// ApplicationStatus represents the review state of a loan application
type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "pending"
	ApplicationStatusUnderReview ApplicationStatus = "under_review"
	ApplicationStatusApproved    ApplicationStatus = "approved"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
	ApplicationStatusDisbursed   ApplicationStatus = "disbursed"
)

// BorrowerRef is the identity record handed over by the borrower-import
// collaborator. The engine never fetches these itself.
type BorrowerRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// LoanRecord is a disbursed loan. Invariant: OutstandingBalance equals
// DisbursedAmount minus TotalPaid and is never negative.
type LoanRecord struct {
	ID                 string          `json:"id"`
	BorrowerID         string          `json:"borrower_id"`
	BorrowerName       string          `json:"borrower_name"`
	BorrowerPhone      string          `json:"borrower_phone"`
	ProductName        string          `json:"product_name"`
	PrincipalAmount    decimal.Decimal `json:"principal_amount"`
	InterestRate       float64         `json:"interest_rate"`
	TermMonths         int             `json:"term_months"`
	DisbursedAmount    decimal.Decimal `json:"disbursed_amount"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	DaysPastDue        int             `json:"days_past_due"`
	Status             LoanStatus      `json:"status"`
	DisbursedAt        time.Time       `json:"disbursed_at"`
}

// LoanApplication is a credit application under review. CreditScoreSeed is an
// optional externally-supplied starting score.
type LoanApplication struct {
	ID              string            `json:"id"`
	ApplicantID     string            `json:"applicant_id"`
	ApplicantName   string            `json:"applicant_name"`
	ApplicantPhone  string            `json:"applicant_phone"`
	CreditScoreSeed *int              `json:"credit_score_seed,omitempty"`
	Status          ApplicationStatus `json:"status"`
	Documents       []string          `json:"documents"`
	SubmittedAt     time.Time         `json:"submitted_at"`
}

// LoanSnapshot is the complete collection state delivered atomically to every
// subscriber on each store emission. Never a delta.
type LoanSnapshot struct {
	Loans        []LoanRecord      `json:"loans"`
	Applications []LoanApplication `json:"applications"`
}

// Clone returns a deep copy so that no subscriber can mutate another's view.
func (s LoanSnapshot) Clone() LoanSnapshot {
	out := LoanSnapshot{
		Loans:        make([]LoanRecord, len(s.Loans)),
		Applications: make([]LoanApplication, len(s.Applications)),
	}
	copy(out.Loans, s.Loans)
	for i, app := range s.Applications {
		cp := app
		cp.Documents = append([]string(nil), app.Documents...)
		if app.CreditScoreSeed != nil {
			seed := *app.CreditScoreSeed
			cp.CreditScoreSeed = &seed
		}
		out.Applications[i] = cp
	}
	return out
}
