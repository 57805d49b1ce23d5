// Package portfolio derives the dashboard summary from the loan snapshot.
package portfolio

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/creamline/lendcore/pkg/metrics"
	"github.com/creamline/lendcore/pkg/models"
)

// Aggregator recomputes the PortfolioSnapshot on every store emission.
// Compute is a pure function of the loan set; the aggregator only caches the
// latest result for the display layer.
type Aggregator struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	now     func() time.Time
	current models.PortfolioSnapshot
}

// NewAggregator creates a portfolio aggregator
func NewAggregator(logger *zap.Logger) *Aggregator {
	return &Aggregator{
		logger: logger.Named("portfolio"),
		now:    time.Now,
	}
}

// OnSnapshot is the store subscription callback
func (a *Aggregator) OnSnapshot(snap models.LoanSnapshot) {
	timer := prometheus.NewTimer(metrics.RecomputeDuration.WithLabelValues("portfolio"))
	defer timer.ObserveDuration()

	out := a.Compute(snap.Loans)
	a.mu.Lock()
	a.current = out
	a.mu.Unlock()
	a.logger.Debug("portfolio recomputed", zap.Int("loans", out.TotalLoans))
}

// Current returns the latest computed snapshot
func (a *Aggregator) Current() models.PortfolioSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// Compute derives the full portfolio summary from a loan set. An empty set
// yields an all-zero summary; no ratio ever divides by zero.
func (a *Aggregator) Compute(loans []models.LoanRecord) models.PortfolioSnapshot {
	now := a.now()
	out := models.PortfolioSnapshot{
		TotalPortfolio:     decimal.Zero,
		TotalDisbursed:     decimal.Zero,
		TotalCollected:     decimal.Zero,
		AverageLoanSize:    decimal.Zero,
		ThisMonthDisbursed: decimal.Zero,
		ByProduct:          []models.DistributionBucket{},
		ByStatus:           []models.DistributionBucket{},
		ComputedAt:         now,
	}
	if len(loans) == 0 {
		return out
	}

	totalPrincipal := decimal.Zero
	byProduct := make(map[string]*models.DistributionBucket)
	byStatus := make(map[string]*models.DistributionBucket)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	for _, loan := range loans {
		out.TotalPortfolio = out.TotalPortfolio.Add(loan.OutstandingBalance)
		out.TotalDisbursed = out.TotalDisbursed.Add(loan.DisbursedAmount)
		out.TotalCollected = out.TotalCollected.Add(loan.TotalPaid)
		totalPrincipal = totalPrincipal.Add(loan.PrincipalAmount)

		switch loan.Status {
		case models.LoanStatusActive:
			out.ActiveLoans++
		case models.LoanStatusCompleted:
			out.CompletedLoans++
		case models.LoanStatusDefaulted:
			out.DefaultedLoans++
		}

		if !loan.DisbursedAt.Before(monthStart) && loan.DisbursedAt.Before(monthStart.AddDate(0, 1, 0)) {
			out.ThisMonthDisbursed = out.ThisMonthDisbursed.Add(loan.DisbursedAmount)
		}

		accumulate(byProduct, loan.ProductName, loan.OutstandingBalance)
		accumulate(byStatus, string(loan.Status), loan.OutstandingBalance)
	}

	out.TotalLoans = len(loans)
	out.CollectionRate = clampRate(out.TotalCollected, out.TotalDisbursed)
	out.DefaultRate = clampPct(float64(out.DefaultedLoans) / float64(out.TotalLoans) * 100)
	out.AverageLoanSize = totalPrincipal.Div(decimal.NewFromInt(int64(out.TotalLoans)))
	out.ByProduct = sortBuckets(byProduct)
	out.ByStatus = sortBuckets(byStatus)
	return out
}

func accumulate(m map[string]*models.DistributionBucket, key string, amount decimal.Decimal) {
	bucket, ok := m[key]
	if !ok {
		bucket = &models.DistributionBucket{Key: key, Amount: decimal.Zero}
		m[key] = bucket
	}
	bucket.Amount = bucket.Amount.Add(amount)
	bucket.Count++
}

// sortBuckets orders by descending amount, then key, for stable output
func sortBuckets(m map[string]*models.DistributionBucket) []models.DistributionBucket {
	out := make([]models.DistributionBucket, 0, len(m))
	for _, b := range m {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// clampRate computes collected/disbursed as a percentage clamped to [0,100].
// A zero denominator is defined as zero.
func clampRate(collected, disbursed decimal.Decimal) float64 {
	if disbursed.IsZero() {
		return 0
	}
	rate, _ := collected.Div(disbursed).Mul(decimal.NewFromInt(100)).Float64()
	return clampPct(rate)
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
