package models

import "time"

// ScoreComponent is one weighted sub-score of a credit score. The five
// component values sum toward the total score; each is capped at MaxValue,
// the component's share of the 850 ceiling.
type ScoreComponent struct {
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	Value    int     `json:"value"`
	MaxValue int     `json:"max_value"`
}

// CreditScore is the derived per-application credit assessment.
// Score is always within [300, 850].
type CreditScore struct {
	ID            string           `json:"id"`
	ApplicationID string           `json:"application_id"`
	BorrowerID    string           `json:"borrower_id"`
	BorrowerName  string           `json:"borrower_name"`
	Score         int              `json:"score"`
	RiskLevel     RiskLevel        `json:"risk_level"`
	Components    []ScoreComponent `json:"components"`
	CalculatedAt  time.Time        `json:"calculated_at"`
	ValidUntil    time.Time        `json:"valid_until"`
}

// ScoreBucket is one range of the score distribution report. The four
// buckets partition [0, 850] with no overlap.
type ScoreBucket struct {
	Label string  `json:"label"`
	Min   int     `json:"min"`
	Max   int     `json:"max"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

// ScoreDistribution is the bucketed report over a set of credit scores
type ScoreDistribution struct {
	Buckets []ScoreBucket `json:"buckets"`
	Total   int           `json:"total"`
}
