// Package credit derives per-application credit scores and the bucketed
// score distribution report.
package credit

import (
	"hash/fnv"
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/creamline/lendcore/pkg/metrics"
	"github.com/creamline/lendcore/pkg/models"
)

const (
	scoreFloor   = 300
	scoreCeiling = 850
	defaultSeed  = 650

	// perturbationSpan bounds the deterministic adjustment applied to the
	// seed score: a value in [-25, +25] derived from the application id.
	perturbationSpan = 25

	validityDays = 90
)

// component weights sum to 1.0; each value is capped at its share of the
// 850 ceiling.
type componentSpec struct {
	name   string
	weight float64
}

var components = []componentSpec{
	{"payment_history", 0.35},
	{"credit_utilization", 0.30},
	{"credit_history_length", 0.15},
	{"income_stability", 0.15},
	{"debt_to_income", 0.05},
}

// score bucket edges, descending: low ≥ 750 > medium ≥ 650 > high ≥ 550 > critical
var riskEdges = []struct {
	min   int
	level models.RiskLevel
}{
	{750, models.RiskLevelLow},
	{650, models.RiskLevelMedium},
	{550, models.RiskLevelHigh},
	{0, models.RiskLevelCritical},
}

// distributionBuckets partition [0, 850]: every score falls in exactly one
var distributionBuckets = []struct {
	label string
	min   int
	max   int
}{
	{"excellent", 750, 850},
	{"good", 650, 749},
	{"fair", 550, 649},
	{"poor", 0, 549},
}

// Engine scores applications on every store emission. Score is a pure
// function of the application; the engine caches the latest score set.
type Engine struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	current []models.CreditScore
}

// NewEngine creates a credit scoring engine
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger.Named("credit")}
}

// OnSnapshot is the store subscription callback
func (e *Engine) OnSnapshot(snap models.LoanSnapshot) {
	timer := prometheus.NewTimer(metrics.RecomputeDuration.WithLabelValues("credit"))
	defer timer.ObserveDuration()

	scores := e.ScoreAll(snap.Applications)
	e.mu.Lock()
	e.current = scores
	e.mu.Unlock()
	e.logger.Debug("credit scores recomputed", zap.Int("applications", len(scores)))
}

// Current returns the latest score set
func (e *Engine) Current() []models.CreditScore {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.CreditScore, len(e.current))
	copy(out, e.current)
	return out
}

// ScoreAll scores every application in snapshot order
func (e *Engine) ScoreAll(apps []models.LoanApplication) []models.CreditScore {
	out := make([]models.CreditScore, 0, len(apps))
	for _, app := range apps {
		out = append(out, e.Score(app))
	}
	return out
}

// Score derives a bounded credit score for one application. The same
// application always produces the same score.
func (e *Engine) Score(app models.LoanApplication) models.CreditScore {
	base := defaultSeed
	if app.CreditScoreSeed != nil {
		base = *app.CreditScoreSeed
	}
	score := clampScore(base + perturb(app.ID))

	parts := make([]models.ScoreComponent, 0, len(components))
	for _, spec := range components {
		parts = append(parts, models.ScoreComponent{
			Name:     spec.name,
			Weight:   spec.weight,
			Value:    int(math.Round(float64(score) * spec.weight)),
			MaxValue: int(math.Round(scoreCeiling * spec.weight)),
		})
	}

	calculatedAt := app.SubmittedAt
	return models.CreditScore{
		ID:            "CS-" + app.ID,
		ApplicationID: app.ID,
		BorrowerID:    app.ApplicantID,
		BorrowerName:  app.ApplicantName,
		Score:         score,
		RiskLevel:     Classify(score),
		Components:    parts,
		CalculatedAt:  calculatedAt,
		ValidUntil:    calculatedAt.AddDate(0, 0, validityDays),
	}
}

// Distribution buckets a score set into the four fixed ranges
func (e *Engine) Distribution(scores []models.CreditScore) models.ScoreDistribution {
	out := models.ScoreDistribution{
		Buckets: make([]models.ScoreBucket, len(distributionBuckets)),
		Total:   len(scores),
	}
	for i, spec := range distributionBuckets {
		out.Buckets[i] = models.ScoreBucket{Label: spec.label, Min: spec.min, Max: spec.max}
	}
	for _, score := range scores {
		for i, spec := range distributionBuckets {
			if score.Score >= spec.min && score.Score <= spec.max {
				out.Buckets[i].Count++
				break
			}
		}
	}
	if out.Total > 0 {
		for i := range out.Buckets {
			out.Buckets[i].Pct = float64(out.Buckets[i].Count) / float64(out.Total) * 100
		}
	}
	return out
}

// Classify maps a score to its unique risk band
func Classify(score int) models.RiskLevel {
	for _, edge := range riskEdges {
		if score >= edge.min {
			return edge.level
		}
	}
	return models.RiskLevelCritical
}

// perturb maps an application id into [-perturbationSpan, +perturbationSpan]
// via FNV-1a so repeated scoring is deterministic.
func perturb(id string) int {
	h := fnv.New32a()
	h.Write([]byte(id))
	return int(h.Sum32()%(2*perturbationSpan+1)) - perturbationSpan
}

func clampScore(score int) int {
	if score < scoreFloor {
		return scoreFloor
	}
	if score > scoreCeiling {
		return scoreCeiling
	}
	return score
}
