package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel classifies a metric, score or borrower into a severity band
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Trend indicates the direction of a risk metric relative to its band edges
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// DistributionBucket is one group-by bucket of the portfolio (by product or
// by status). Amount is the summed outstanding balance of the bucket.
type DistributionBucket struct {
	Key    string          `json:"key"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// PortfolioSnapshot is the dashboard aggregate derived from one loan snapshot.
// Both distribution slices partition the same loan set, so each sums to
// TotalPortfolio.
type PortfolioSnapshot struct {
	TotalPortfolio     decimal.Decimal      `json:"total_portfolio"`
	TotalDisbursed     decimal.Decimal      `json:"total_disbursed"`
	TotalCollected     decimal.Decimal      `json:"total_collected"`
	CollectionRate     float64              `json:"collection_rate"`
	DefaultRate        float64              `json:"default_rate"`
	AverageLoanSize    decimal.Decimal      `json:"average_loan_size"`
	TotalLoans         int                  `json:"total_loans"`
	ActiveLoans        int                  `json:"active_loans"`
	CompletedLoans     int                  `json:"completed_loans"`
	DefaultedLoans     int                  `json:"defaulted_loans"`
	ThisMonthDisbursed decimal.Decimal      `json:"this_month_disbursed"`
	ByProduct          []DistributionBucket `json:"by_product"`
	ByStatus           []DistributionBucket `json:"by_status"`
	ComputedAt         time.Time            `json:"computed_at"`
}

// RiskMetric is one portfolio-level risk category reading. Threshold is the
// category's "high" band edge, kept alongside the value for display.
type RiskMetric struct {
	Category  string    `json:"category"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Status    RiskLevel `json:"status"`
	Trend     Trend     `json:"trend"`
}

// RiskRecommendation is a suggested mitigation for an elevated metric
type RiskRecommendation struct {
	Category string `json:"category"`
	Priority string `json:"priority"` // "high" or "medium"
	Message  string `json:"message"`
}

// RiskAssessment is the full output of one risk engine recomputation
type RiskAssessment struct {
	Metrics         []RiskMetric         `json:"metrics"`
	Recommendations []RiskRecommendation `json:"recommendations"`
	OverallScore    float64              `json:"overall_score"`
	OverallLevel    RiskLevel            `json:"overall_level"`
	ComputedAt      time.Time            `json:"computed_at"`
}
