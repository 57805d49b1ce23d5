// Package loanstore holds the canonical loan and application collections and
// pushes full snapshots to subscribers. It is the only mutable state in the
// engine; every derived view recomputes from its emissions.
package loanstore

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/creamline/lendcore/pkg/metrics"
	"github.com/creamline/lendcore/pkg/models"
)

// Config bounds the synthetic seeding generator
type Config struct {
	// LoansPerBorrower is the fixed number of synthetic loans generated per
	// borrower when seeding an empty store.
	LoansPerBorrower int
	// SeedSource seeds the pseudo-random attribute generator. The same
	// source and borrower list always produce identical records.
	SeedSource int64
	// DelinquencyCutoffDays is the days-past-due bound beyond which a
	// synthetic loan may carry the defaulted status.
	DelinquencyCutoffDays int
}

func (c *Config) applyDefaults() {
	if c.LoansPerBorrower <= 0 {
		c.LoansPerBorrower = 2
	}
	if c.SeedSource == 0 {
		c.SeedSource = 1
	}
	if c.DelinquencyCutoffDays <= 0 {
		c.DelinquencyCutoffDays = 90
	}
}

// Store is the reactive holder of the loan/application collections.
// Emissions are synchronous, in registration order, and always carry the
// full collections, never a delta.
type Store struct {
	mu     sync.RWMutex
	logger *zap.Logger
	cfg    Config
	now    func() time.Time

	loans []models.LoanRecord
	apps  []models.LoanApplication

	subs   []*Subscription
	nextID int
}

// Subscription is a cancellable registration on the store. Unsubscribe stops
// further deliveries; it is safe to call more than once.
type Subscription struct {
	id    int
	store *Store
	fn    func(models.LoanSnapshot)
}

// Unsubscribe removes the subscription from the store
func (s *Subscription) Unsubscribe() {
	if s.store == nil {
		return
	}
	s.store.remove(s.id)
	s.store = nil
}

// NewStore creates an empty store
func NewStore(logger *zap.Logger, cfg Config) *Store {
	cfg.applyDefaults()
	return &Store{
		logger: logger.Named("loanstore"),
		cfg:    cfg,
		now:    time.Now,
	}
}

// Snapshot returns a deep copy of the current collections
func (s *Store) Snapshot() models.LoanSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() models.LoanSnapshot {
	return models.LoanSnapshot{Loans: s.loans, Applications: s.apps}.Clone()
}

// Subscribe registers fn and immediately delivers the current snapshot so a
// late subscriber never renders from nothing.
func (s *Store) Subscribe(fn func(models.LoanSnapshot)) *Subscription {
	s.mu.Lock()
	s.nextID++
	sub := &Subscription{id: s.nextID, store: s, fn: fn}
	s.subs = append(s.subs, sub)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	metrics.StoreSubscribers.Inc()
	fn(snap)
	return sub
}

func (s *Store) remove(id int) {
	s.mu.Lock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			metrics.StoreSubscribers.Dec()
			break
		}
	}
	s.mu.Unlock()
}

// notify emits the current snapshot to all subscribers in registration
// order. Delivery happens outside the lock so subscribers may read the store.
func (s *Store) notify() {
	s.mu.RLock()
	subs := make([]*Subscription, len(s.subs))
	copy(subs, s.subs)
	snap := s.snapshotLocked()
	s.mu.RUnlock()

	metrics.StoreEmissions.Inc()
	for _, sub := range subs {
		sub.fn(snap)
	}
}

// Replace swaps both collections atomically and emits once. This is the
// all-or-nothing mutation used by the import path.
func (s *Store) Replace(loans []models.LoanRecord, apps []models.LoanApplication) {
	s.mu.Lock()
	s.loans = append([]models.LoanRecord(nil), loans...)
	s.apps = append([]models.LoanApplication(nil), apps...)
	s.mu.Unlock()

	s.logger.Info("collections replaced",
		zap.Int("loans", len(loans)),
		zap.Int("applications", len(apps)))
	s.notify()
}

// SeedFromBorrowers generates synthetic loans and applications for the given
// borrower identities. It is a no-op on a non-empty store and returns the
// number of loan records generated.
func (s *Store) SeedFromBorrowers(borrowers []models.BorrowerRef) int {
	s.mu.Lock()
	if len(s.loans) > 0 {
		s.mu.Unlock()
		s.logger.Debug("seed skipped, store already holds records")
		return 0
	}

	rng := rand.New(rand.NewSource(s.cfg.SeedSource))
	now := s.now()
	loans := make([]models.LoanRecord, 0, len(borrowers)*s.cfg.LoansPerBorrower)
	apps := make([]models.LoanApplication, 0, len(borrowers))
	for _, b := range borrowers {
		for i := 0; i < s.cfg.LoansPerBorrower; i++ {
			loans = append(loans, s.syntheticLoan(rng, b, i+1, now))
		}
		apps = append(apps, syntheticApplication(rng, b, now))
	}
	s.loans = loans
	s.apps = apps
	s.mu.Unlock()

	metrics.SeededLoans.Add(float64(len(loans)))
	s.logger.Info("store seeded from borrower list",
		zap.Int("borrowers", len(borrowers)),
		zap.Int("loans", len(loans)),
		zap.Int("applications", len(apps)))
	s.notify()
	return len(loans)
}

var seedProducts = []string{
	"Dairy Equipment Loan",
	"Livestock Purchase Loan",
	"Working Capital Advance",
	"Feed and Supplies Credit",
}

var seedTerms = []int{6, 12, 18, 24, 36}

var seedDocuments = []string{
	"Valid Government ID",
	"Proof of Income",
	"Bank Statement",
	"Milk Delivery Summary",
}

func (s *Store) syntheticLoan(rng *rand.Rand, b models.BorrowerRef, seq int, now time.Time) models.LoanRecord {
	principal := decimal.NewFromInt(int64(20000 + rng.Intn(23)*5000))
	loan := models.LoanRecord{
		ID:              fmt.Sprintf("LN-%s-%d", b.ID, seq),
		BorrowerID:      b.ID,
		BorrowerName:    b.Name,
		BorrowerPhone:   b.Phone,
		ProductName:     seedProducts[rng.Intn(len(seedProducts))],
		PrincipalAmount: principal,
		InterestRate:    8 + float64(rng.Intn(33))*0.5,
		TermMonths:      seedTerms[rng.Intn(len(seedTerms))],
		DisbursedAt:     now.AddDate(0, 0, -rng.Intn(360)),
	}

	switch pick := rng.Intn(100); {
	case pick < 60:
		loan.Status = models.LoanStatusActive
		loan.DisbursedAmount = principal
		paidPct := int64(rng.Intn(91))
		loan.TotalPaid = principal.Mul(decimal.NewFromInt(paidPct)).Div(decimal.NewFromInt(100))
		if rng.Intn(100) < 30 {
			loan.DaysPastDue = 1 + rng.Intn(45)
		}
	case pick < 85:
		loan.Status = models.LoanStatusCompleted
		loan.DisbursedAmount = principal
		loan.TotalPaid = principal
	case pick < 95:
		loan.Status = models.LoanStatusDefaulted
		loan.DisbursedAmount = principal
		paidPct := int64(rng.Intn(51))
		loan.TotalPaid = principal.Mul(decimal.NewFromInt(paidPct)).Div(decimal.NewFromInt(100))
		loan.DaysPastDue = s.cfg.DelinquencyCutoffDays + 1 + rng.Intn(90)
	default:
		loan.Status = models.LoanStatusCancelled
		loan.DisbursedAmount = decimal.Zero
		loan.TotalPaid = decimal.Zero
	}

	loan.OutstandingBalance = loan.DisbursedAmount.Sub(loan.TotalPaid)
	return loan
}

func syntheticApplication(rng *rand.Rand, b models.BorrowerRef, now time.Time) models.LoanApplication {
	statuses := []models.ApplicationStatus{
		models.ApplicationStatusPending,
		models.ApplicationStatusUnderReview,
		models.ApplicationStatusApproved,
		models.ApplicationStatusRejected,
		models.ApplicationStatusDisbursed,
	}
	seed := 520 + rng.Intn(281)
	return models.LoanApplication{
		ID:              fmt.Sprintf("APP-%s", b.ID),
		ApplicantID:     b.ID,
		ApplicantName:   b.Name,
		ApplicantPhone:  b.Phone,
		CreditScoreSeed: &seed,
		Status:          statuses[rng.Intn(len(statuses))],
		Documents:       append([]string(nil), seedDocuments[:3+rng.Intn(2)]...),
		SubmittedAt:     now.AddDate(0, 0, -rng.Intn(60)),
	}
}
