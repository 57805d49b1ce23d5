// Package borrower projects the loan snapshot into per-borrower profile,
// history and trend views.
package borrower

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/creamline/lendcore/pkg/models"
)

// Window selects the lookback of a disbursement trend series
type Window string

const (
	Window7D  Window = "7d"
	Window30D Window = "30d"
	Window90D Window = "90d"
)

// borrower risk edges over the MAXIMUM days past due across the borrower's
// loans. A single severely delinquent loan dominates the classification.
const (
	mediumDPDEdge = 30
	highDPDEdge   = 60
)

// Projector groups loans by borrower. All methods are pure in the snapshot.
type Projector struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewProjector creates a borrower projector
func NewProjector(logger *zap.Logger) *Projector {
	return &Projector{
		logger: logger.Named("borrower"),
		now:    time.Now,
	}
}

// History returns the borrower's loans, most recently disbursed first,
// alongside their aggregate totals.
func (p *Projector) History(loans []models.LoanRecord, borrowerID string) ([]models.LoanHistoryEntry, models.BorrowerTotals) {
	totals := models.BorrowerTotals{
		BorrowerID:       borrowerID,
		TotalBorrowed:    decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
		RiskLevel:        models.RiskLevelLow,
	}
	var rows []models.LoanHistoryEntry
	for _, loan := range loans {
		if loan.BorrowerID != borrowerID {
			continue
		}
		rows = append(rows, models.LoanHistoryEntry{
			LoanID:      loan.ID,
			ProductName: loan.ProductName,
			Principal:   loan.PrincipalAmount,
			Disbursed:   loan.DisbursedAmount,
			Paid:        loan.TotalPaid,
			Outstanding: loan.OutstandingBalance,
			DaysPastDue: loan.DaysPastDue,
			Status:      loan.Status,
			DisbursedAt: loan.DisbursedAt,
		})
		totals.LoanCount++
		totals.TotalBorrowed = totals.TotalBorrowed.Add(loan.DisbursedAmount)
		totals.TotalPaid = totals.TotalPaid.Add(loan.TotalPaid)
		totals.TotalOutstanding = totals.TotalOutstanding.Add(loan.OutstandingBalance)
		if loan.DaysPastDue > totals.MaxDaysPastDue {
			totals.MaxDaysPastDue = loan.DaysPastDue
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].DisbursedAt.After(rows[j].DisbursedAt)
	})
	totals.RiskLevel = classifyDPD(totals.MaxDaysPastDue)
	return rows, totals
}

// RiskLevel classifies a borrower from the max days past due of their loans
func (p *Projector) RiskLevel(loans []models.LoanRecord, borrowerID string) models.RiskLevel {
	maxDPD := 0
	for _, loan := range loans {
		if loan.BorrowerID == borrowerID && loan.DaysPastDue > maxDPD {
			maxDPD = loan.DaysPastDue
		}
	}
	return classifyDPD(maxDPD)
}

func classifyDPD(dpd int) models.RiskLevel {
	switch {
	case dpd > highDPDEdge:
		return models.RiskLevelHigh
	case dpd > mediumDPDEdge:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelLow
	}
}

// TrendSeries buckets the borrower's disbursement amounts over the window:
// daily buckets for 7d and 30d, weekly buckets for 90d. The series is dense;
// periods without disbursements carry a zero amount.
func (p *Projector) TrendSeries(loans []models.LoanRecord, borrowerID string, window Window) []models.TrendPoint {
	now := p.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var buckets int
	var step func(start time.Time, i int) time.Time
	switch window {
	case Window7D:
		buckets = 7
		step = func(start time.Time, i int) time.Time { return start.AddDate(0, 0, i) }
	case Window90D:
		buckets = 13
		step = func(start time.Time, i int) time.Time { return start.AddDate(0, 0, i*7) }
	default: // 30d
		buckets = 30
		step = func(start time.Time, i int) time.Time { return start.AddDate(0, 0, i) }
	}

	var start time.Time
	switch window {
	case Window90D:
		start = today.AddDate(0, 0, -7*(buckets-1))
	default:
		start = today.AddDate(0, 0, -(buckets - 1))
	}

	series := make([]models.TrendPoint, buckets)
	for i := 0; i < buckets; i++ {
		periodStart := step(start, i)
		series[i] = models.TrendPoint{
			Label:       periodStart.Format("Jan 02"),
			PeriodStart: periodStart,
			Amount:      decimal.Zero,
		}
	}

	end := step(start, buckets) // exclusive upper bound of the last bucket
	for _, loan := range loans {
		if loan.BorrowerID != borrowerID {
			continue
		}
		if loan.DisbursedAt.Before(start) || !loan.DisbursedAt.Before(end) {
			continue
		}
		idx := bucketIndex(start, loan.DisbursedAt, window)
		if idx >= 0 && idx < buckets {
			series[idx].Amount = series[idx].Amount.Add(loan.DisbursedAmount)
		}
	}
	return series
}

func bucketIndex(start, at time.Time, window Window) int {
	days := int(at.Sub(start).Hours() / 24)
	if window == Window90D {
		return days / 7
	}
	return days
}
