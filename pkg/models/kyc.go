package models

import "time"

// DocumentStatus is the per-document verification state. Verified and
// rejected are terminal.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusVerified DocumentStatus = "verified"
	DocumentStatusRejected DocumentStatus = "rejected"
)

// VerificationStatus is the verification-level state, derived from the
// document set plus the reviewer actions on every recomputation.
type VerificationStatus string

const (
	VerificationStatusPending    VerificationStatus = "pending"
	VerificationStatusInProgress VerificationStatus = "in_progress"
	VerificationStatusVerified   VerificationStatus = "verified"
	VerificationStatusRejected   VerificationStatus = "rejected"
	VerificationStatusExpired    VerificationStatus = "expired"
)

// KYCDocument is one submitted identity/income document
type KYCDocument struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Name            string         `json:"name"`
	Status          DocumentStatus `json:"status"`
	VerifiedBy      string         `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time     `json:"verified_at,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
}

// KYCVerification is the document-verification case for one application.
// Status and OverallScore are derived, never independently stored.
type KYCVerification struct {
	ID              string             `json:"id"`
	ApplicationID   string             `json:"application_id"`
	BorrowerID      string             `json:"borrower_id"`
	BorrowerName    string             `json:"borrower_name"`
	Documents       []KYCDocument      `json:"documents"`
	Status          VerificationStatus `json:"status"`
	OverallScore    float64            `json:"overall_score"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	SubmittedAt     time.Time          `json:"submitted_at"`
	VerifiedAt      *time.Time         `json:"verified_at,omitempty"`
	ExpiresAt       time.Time          `json:"expires_at"`
}

// Clone deep-copies the verification including its document list
func (v KYCVerification) Clone() KYCVerification {
	cp := v
	cp.Documents = make([]KYCDocument, len(v.Documents))
	copy(cp.Documents, v.Documents)
	if v.VerifiedAt != nil {
		at := *v.VerifiedAt
		cp.VerifiedAt = &at
	}
	return cp
}
