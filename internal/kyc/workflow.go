// Package kyc implements the document-verification workflow. Verification
// status is never stored on its own: it is re-derived from the document set
// and the reviewer actions on every read, so the views can never disagree.
package kyc

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	domainerrors "github.com/creamline/lendcore/common/errors"
	"github.com/creamline/lendcore/pkg/metrics"
	"github.com/creamline/lendcore/pkg/models"
)

// expiryDays is how long a verification case stays actionable after
// submission. Past that the case is terminally expired.
const expiryDays = 365

// verificationCase carries the mutable workflow state alongside the derived
// verification view. Only documents and the reviewer flags are stored; the
// status is recomputed from them.
type verificationCase struct {
	verification    models.KYCVerification
	started         bool
	completed       bool
	rejected        bool
	rejectionReason string
}

// Workflow owns the verification cases, rebuilt from the application set on
// every store emission. Document decisions survive rebuilds: cases are keyed
// by application id and kept while their application exists.
type Workflow struct {
	mu     sync.RWMutex
	logger *zap.Logger
	now    func() time.Time

	order []string                     // application ids, emission order
	cases map[string]*verificationCase // keyed by application id
}

// NewWorkflow creates an empty verification workflow
func NewWorkflow(logger *zap.Logger) *Workflow {
	return &Workflow{
		logger: logger.Named("kyc"),
		now:    time.Now,
		cases:  make(map[string]*verificationCase),
	}
}

// OnSnapshot is the store subscription callback
func (w *Workflow) OnSnapshot(snap models.LoanSnapshot) {
	timer := prometheus.NewTimer(metrics.RecomputeDuration.WithLabelValues("kyc"))
	defer timer.ObserveDuration()
	w.Rebuild(snap.Applications)
}

// Rebuild syncs the case set with the application set. New applications get
// a pending case with one pending document per submitted document name;
// cases whose application disappeared are dropped; existing cases keep their
// document decisions.
func (w *Workflow) Rebuild(apps []models.LoanApplication) {
	w.mu.Lock()
	defer w.mu.Unlock()

	seen := make(map[string]bool, len(apps))
	order := make([]string, 0, len(apps))
	for _, app := range apps {
		seen[app.ID] = true
		order = append(order, app.ID)
		if _, ok := w.cases[app.ID]; ok {
			continue
		}
		w.cases[app.ID] = newCase(app)
	}
	for id := range w.cases {
		if !seen[id] {
			delete(w.cases, id)
		}
	}
	w.order = order
	w.logger.Debug("verification cases rebuilt", zap.Int("cases", len(w.cases)))
}

func newCase(app models.LoanApplication) *verificationCase {
	docs := make([]models.KYCDocument, 0, len(app.Documents))
	for i, name := range app.Documents {
		docs = append(docs, models.KYCDocument{
			ID:     fmt.Sprintf("DOC-%s-%d", app.ID, i+1),
			Type:   docType(name),
			Name:   name,
			Status: models.DocumentStatusPending,
		})
	}
	return &verificationCase{
		verification: models.KYCVerification{
			ID:            "KYC-" + app.ID,
			ApplicationID: app.ID,
			BorrowerID:    app.ApplicantID,
			BorrowerName:  app.ApplicantName,
			Documents:     docs,
			SubmittedAt:   app.SubmittedAt,
			ExpiresAt:     app.SubmittedAt.AddDate(0, 0, expiryDays),
		},
	}
}

func docType(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// List returns all verifications in application order with derived status
func (w *Workflow) List() []models.KYCVerification {
	w.mu.RLock()
	defer w.mu.RUnlock()
	now := w.now()
	out := make([]models.KYCVerification, 0, len(w.order))
	for _, id := range w.order {
		if c, ok := w.cases[id]; ok {
			out = append(out, c.derive(now))
		}
	}
	return out
}

// Get returns one verification by its verification id
func (w *Workflow) Get(verificationID string) (models.KYCVerification, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, err := w.findLocked(verificationID)
	if err != nil {
		return models.KYCVerification{}, err
	}
	return c.derive(w.now()), nil
}

func (w *Workflow) findLocked(verificationID string) (*verificationCase, error) {
	for _, c := range w.cases {
		if c.verification.ID == verificationID {
			return c, nil
		}
	}
	return nil, fmt.Errorf("verification %s: %w", verificationID, domainerrors.ErrNotFound)
}

// StartVerification moves a pending case to in_progress. Any other current
// state is an invalid transition and changes nothing.
func (w *Workflow) StartVerification(verificationID string) (models.KYCVerification, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, err := w.findLocked(verificationID)
	if err != nil {
		return models.KYCVerification{}, err
	}
	now := w.now()
	if status := c.status(now); status != models.VerificationStatusPending {
		return models.KYCVerification{}, &domainerrors.TransitionError{
			Entity: "verification", ID: verificationID, From: string(status), Action: "start",
		}
	}
	c.started = true
	w.logger.Info("verification started", zap.String("verification_id", verificationID))
	return c.derive(now), nil
}

// CompleteVerification finalizes a case whose documents are all verified.
// Completing a case with any undecided or rejected document, or completing
// twice, is an invalid transition.
func (w *Workflow) CompleteVerification(verificationID string) (models.KYCVerification, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, err := w.findLocked(verificationID)
	if err != nil {
		return models.KYCVerification{}, err
	}
	now := w.now()
	status := c.status(now)
	if status != models.VerificationStatusVerified || c.completed {
		return models.KYCVerification{}, &domainerrors.TransitionError{
			Entity: "verification", ID: verificationID, From: string(status), Action: "complete",
		}
	}
	c.completed = true
	if c.verification.VerifiedAt == nil {
		at := now
		c.verification.VerifiedAt = &at
	}
	w.logger.Info("verification completed", zap.String("verification_id", verificationID))
	return c.derive(now), nil
}

// RejectVerification finalizes an in_progress case as rejected. An empty
// reason fails validation before any mutation.
func (w *Workflow) RejectVerification(verificationID, reason string) (models.KYCVerification, error) {
	if strings.TrimSpace(reason) == "" {
		return models.KYCVerification{}, domainerrors.NewValidation("rejection_reason", "a rejection reason is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	c, err := w.findLocked(verificationID)
	if err != nil {
		return models.KYCVerification{}, err
	}
	now := w.now()
	if status := c.status(now); status != models.VerificationStatusInProgress {
		return models.KYCVerification{}, &domainerrors.TransitionError{
			Entity: "verification", ID: verificationID, From: string(status), Action: "reject",
		}
	}
	c.rejected = true
	c.rejectionReason = reason
	w.logger.Info("verification rejected",
		zap.String("verification_id", verificationID),
		zap.String("reason", reason))
	return c.derive(now), nil
}

// VerifyDocument marks a pending document verified. A verifying identity is
// required; document decisions are terminal.
func (w *Workflow) VerifyDocument(verificationID, documentID, verifiedBy string) (models.KYCVerification, error) {
	if strings.TrimSpace(verifiedBy) == "" {
		return models.KYCVerification{}, domainerrors.NewValidation("verified_by", "a verifying identity is required")
	}
	return w.decideDocument(verificationID, documentID, "verify", func(doc *models.KYCDocument, now time.Time) {
		doc.Status = models.DocumentStatusVerified
		doc.VerifiedBy = verifiedBy
		at := now
		doc.VerifiedAt = &at
	})
}

// RejectDocument marks a pending document rejected with a non-empty reason
func (w *Workflow) RejectDocument(verificationID, documentID, reason string) (models.KYCVerification, error) {
	if strings.TrimSpace(reason) == "" {
		return models.KYCVerification{}, domainerrors.NewValidation("rejection_reason", "a rejection reason is required")
	}
	return w.decideDocument(verificationID, documentID, "reject", func(doc *models.KYCDocument, _ time.Time) {
		doc.Status = models.DocumentStatusRejected
		doc.RejectionReason = reason
	})
}

func (w *Workflow) decideDocument(verificationID, documentID, action string, apply func(*models.KYCDocument, time.Time)) (models.KYCVerification, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, err := w.findLocked(verificationID)
	if err != nil {
		return models.KYCVerification{}, err
	}
	now := w.now()
	if status := c.status(now); status == models.VerificationStatusExpired {
		return models.KYCVerification{}, &domainerrors.TransitionError{
			Entity: "verification", ID: verificationID, From: string(status), Action: action,
		}
	}
	for i := range c.verification.Documents {
		doc := &c.verification.Documents[i]
		if doc.ID != documentID {
			continue
		}
		if doc.Status != models.DocumentStatusPending {
			return models.KYCVerification{}, &domainerrors.TransitionError{
				Entity: "document", ID: documentID, From: string(doc.Status), Action: action,
			}
		}
		apply(doc, now)
		// the decision that verifies the last document pins the timestamp
		if c.status(now) == models.VerificationStatusVerified && c.verification.VerifiedAt == nil {
			at := now
			c.verification.VerifiedAt = &at
		}
		w.logger.Info("document decided",
			zap.String("verification_id", verificationID),
			zap.String("document_id", documentID),
			zap.String("action", action))
		return c.derive(now), nil
	}
	return models.KYCVerification{}, fmt.Errorf("document %s: %w", documentID, domainerrors.ErrNotFound)
}

// status derives the verification-level state from the document set and the
// reviewer flags:
//
//	expired        — past ExpiresAt, regardless of documents
//	rejected       — any rejected document, or reviewer rejection
//	verified       — all documents verified
//	in_progress    — at least one verified document, or started
//	pending        — otherwise
func (c *verificationCase) status(now time.Time) models.VerificationStatus {
	if now.After(c.verification.ExpiresAt) {
		return models.VerificationStatusExpired
	}
	if c.rejected {
		return models.VerificationStatusRejected
	}
	var verified, rejected int
	for _, doc := range c.verification.Documents {
		switch doc.Status {
		case models.DocumentStatusVerified:
			verified++
		case models.DocumentStatusRejected:
			rejected++
		}
	}
	switch {
	case rejected > 0:
		return models.VerificationStatusRejected
	case len(c.verification.Documents) > 0 && verified == len(c.verification.Documents):
		return models.VerificationStatusVerified
	case verified > 0 || c.started:
		return models.VerificationStatusInProgress
	default:
		return models.VerificationStatusPending
	}
}

// derive produces the externally visible verification with status and score
func (c *verificationCase) derive(now time.Time) models.KYCVerification {
	out := c.verification.Clone()
	out.Status = c.status(now)
	out.RejectionReason = c.rejectionReason
	var verified int
	for _, doc := range out.Documents {
		if doc.Status == models.DocumentStatusVerified {
			verified++
		}
	}
	if len(out.Documents) > 0 {
		out.OverallScore = float64(verified) / float64(len(out.Documents)) * 100
	}
	return out
}
