// Package risk computes portfolio-level risk category metrics and mitigation
// recommendations from the loan snapshot.
package risk

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/creamline/lendcore/pkg/metrics"
	"github.com/creamline/lendcore/pkg/models"
)

// category edges: value < Low ⇒ low, < Medium ⇒ medium, < High ⇒ high,
// otherwise critical. Threshold reported to displays is the High edge.
type categorySpec struct {
	name    string
	low     float64
	medium  float64
	high    float64
	message string
}

// categories are evaluated in this fixed order on every recomputation
var categories = []categorySpec{
	{
		name: "default_rate", low: 3, medium: 5, high: 8,
		message: "Default rate is elevated; tighten approval criteria and review collection follow-ups",
	},
	{
		name: "delinquency_rate", low: 5, medium: 10, high: 15,
		message: "Delinquency rate is elevated; increase payment reminders and early-stage collection calls",
	},
	{
		name: "high_risk_exposure", low: 2, medium: 5, high: 10,
		message: "Exposure to severely past-due loans is elevated; escalate accounts over 60 days past due",
	},
	{
		name: "concentration_risk", low: 20, medium: 30, high: 40,
		message: "Portfolio is concentrated in a single product; diversify the product mix",
	},
}

// overall classification edges for the mean metric value
const (
	overallMediumEdge   = 5
	overallHighEdge     = 10
	overallCriticalEdge = 15
)

// highRiskDPD is the days-past-due bound for the high-risk exposure metric
const highRiskDPD = 60

// Engine derives a RiskAssessment from each store emission. Assess is pure;
// the engine only caches the latest result.
type Engine struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	now     func() time.Time
	current models.RiskAssessment
}

// NewEngine creates a risk scoring engine
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		logger: logger.Named("risk"),
		now:    time.Now,
	}
}

// OnSnapshot is the store subscription callback
func (e *Engine) OnSnapshot(snap models.LoanSnapshot) {
	timer := prometheus.NewTimer(metrics.RecomputeDuration.WithLabelValues("risk"))
	defer timer.ObserveDuration()

	out := e.Assess(snap.Loans)
	e.mu.Lock()
	e.current = out
	e.mu.Unlock()
	e.logger.Debug("risk assessment recomputed",
		zap.Float64("overall_score", out.OverallScore),
		zap.String("overall_level", string(out.OverallLevel)))
}

// Current returns the latest assessment
func (e *Engine) Current() models.RiskAssessment {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Assess computes every risk category for the given loan set. An empty set
// yields an empty metric list and a zero overall score, not an error.
func (e *Engine) Assess(loans []models.LoanRecord) models.RiskAssessment {
	out := models.RiskAssessment{
		Metrics:         []models.RiskMetric{},
		Recommendations: []models.RiskRecommendation{},
		OverallLevel:    models.RiskLevelLow,
		ComputedAt:      e.now(),
	}
	if len(loans) == 0 {
		return out
	}

	values := map[string]float64{
		"default_rate":       statusRate(loans, models.LoanStatusDefaulted),
		"delinquency_rate":   dpdRate(loans, 0),
		"high_risk_exposure": dpdRate(loans, highRiskDPD),
		"concentration_risk": concentration(loans),
	}

	var sum float64
	for _, spec := range categories {
		value := values[spec.name]
		sum += value
		status := spec.classify(value)
		out.Metrics = append(out.Metrics, models.RiskMetric{
			Category:  spec.name,
			Value:     value,
			Threshold: spec.high,
			Status:    status,
			Trend:     spec.trend(value),
		})
		if status == models.RiskLevelHigh || status == models.RiskLevelCritical {
			priority := "medium"
			if status == models.RiskLevelCritical {
				priority = "high"
			}
			out.Recommendations = append(out.Recommendations, models.RiskRecommendation{
				Category: spec.name,
				Priority: priority,
				Message:  spec.message,
			})
		}
	}

	out.OverallScore = sum / float64(len(categories))
	out.OverallLevel = classifyOverall(out.OverallScore)
	if out.OverallScore > overallCriticalEdge {
		out.Recommendations = append(out.Recommendations, models.RiskRecommendation{
			Category: "portfolio",
			Priority: "high",
			Message:  "Overall portfolio risk is critical; freeze new disbursements pending a portfolio review",
		})
	}
	return out
}

func (c categorySpec) classify(value float64) models.RiskLevel {
	switch {
	case value < c.low:
		return models.RiskLevelLow
	case value < c.medium:
		return models.RiskLevelMedium
	case value < c.high:
		return models.RiskLevelHigh
	default:
		return models.RiskLevelCritical
	}
}

// trend is pure in the snapshot: above the high edge trends up, below the low
// edge trends down, in between is stable.
func (c categorySpec) trend(value float64) models.Trend {
	switch {
	case value > c.high:
		return models.TrendUp
	case value < c.low:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

func classifyOverall(score float64) models.RiskLevel {
	switch {
	case score < overallMediumEdge:
		return models.RiskLevelLow
	case score < overallHighEdge:
		return models.RiskLevelMedium
	case score < overallCriticalEdge:
		return models.RiskLevelHigh
	default:
		return models.RiskLevelCritical
	}
}

func statusRate(loans []models.LoanRecord, status models.LoanStatus) float64 {
	var n int
	for _, loan := range loans {
		if loan.Status == status {
			n++
		}
	}
	return float64(n) / float64(len(loans)) * 100
}

func dpdRate(loans []models.LoanRecord, over int) float64 {
	var n int
	for _, loan := range loans {
		if loan.DaysPastDue > over {
			n++
		}
	}
	return float64(n) / float64(len(loans)) * 100
}

// concentration is the largest single product's share of total outstanding
func concentration(loans []models.LoanRecord) float64 {
	total := decimal.Zero
	byProduct := make(map[string]decimal.Decimal)
	for _, loan := range loans {
		total = total.Add(loan.OutstandingBalance)
		byProduct[loan.ProductName] = byProduct[loan.ProductName].Add(loan.OutstandingBalance)
	}
	if total.IsZero() {
		return 0
	}
	max := decimal.Zero
	for _, amount := range byProduct {
		if amount.GreaterThan(max) {
			max = amount
		}
	}
	pct, _ := max.Div(total).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}
