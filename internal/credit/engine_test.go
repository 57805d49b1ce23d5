package credit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/creamline/lendcore/pkg/models"
)

var submittedAt = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

func application(id string, seed *int) models.LoanApplication {
	return models.LoanApplication{
		ID:              id,
		ApplicantID:     "B-" + id,
		ApplicantName:   "Applicant " + id,
		CreditScoreSeed: seed,
		Status:          models.ApplicationStatusPending,
		SubmittedAt:     submittedAt,
	}
}

func intPtr(v int) *int { return &v }

func TestScoreStaysWithinBounds(t *testing.T) {
	e := NewEngine(zap.NewNop())
	seeds := []*int{nil, intPtr(300), intPtr(280), intPtr(850), intPtr(845), intPtr(520), intPtr(800)}
	for i, seed := range seeds {
		for j := 0; j < 20; j++ {
			app := application(fmt.Sprintf("APP-%d-%d", i, j), seed)
			score := e.Score(app)
			assert.GreaterOrEqual(t, score.Score, 300, "app %s", app.ID)
			assert.LessOrEqual(t, score.Score, 850, "app %s", app.ID)
		}
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	e := NewEngine(zap.NewNop())
	app := application("APP-1", intPtr(700))
	assert.Equal(t, e.Score(app), e.Score(app))
}

func TestScoreDefaultsSeed(t *testing.T) {
	e := NewEngine(zap.NewNop())
	score := e.Score(application("APP-1", nil))
	// no seed: base 650 plus a perturbation within ±25
	assert.GreaterOrEqual(t, score.Score, 625)
	assert.LessOrEqual(t, score.Score, 675)
}

func TestComponents(t *testing.T) {
	e := NewEngine(zap.NewNop())
	score := e.Score(application("APP-1", intPtr(720)))
	require.Len(t, score.Components, 5)

	var weightSum float64
	for _, comp := range score.Components {
		weightSum += comp.Weight
		assert.LessOrEqual(t, comp.Value, comp.MaxValue, "component %s", comp.Name)
		assert.GreaterOrEqual(t, comp.Value, 0, "component %s", comp.Name)
	}
	assert.InDelta(t, 1.0, weightSum, 0.0001)

	assert.Equal(t, "payment_history", score.Components[0].Name)
	assert.Equal(t, 0.35, score.Components[0].Weight)

	// component values sum toward the total (within rounding)
	var valueSum int
	for _, comp := range score.Components {
		valueSum += comp.Value
	}
	assert.InDelta(t, score.Score, valueSum, 3)
}

func TestValidity(t *testing.T) {
	e := NewEngine(zap.NewNop())
	score := e.Score(application("APP-1", intPtr(700)))
	assert.Equal(t, submittedAt, score.CalculatedAt)
	assert.Equal(t, submittedAt.AddDate(0, 0, 90), score.ValidUntil)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		score int
		want  models.RiskLevel
	}{
		{850, models.RiskLevelLow},
		{750, models.RiskLevelLow},
		{749, models.RiskLevelMedium},
		{650, models.RiskLevelMedium},
		{649, models.RiskLevelHigh},
		{550, models.RiskLevelHigh},
		{549, models.RiskLevelCritical},
		{300, models.RiskLevelCritical},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("score_%d", tc.score), func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.score))
		})
	}
}

func TestRiskLevelMatchesScoreBucket(t *testing.T) {
	e := NewEngine(zap.NewNop())
	for i := 0; i < 50; i++ {
		score := e.Score(application(fmt.Sprintf("APP-%d", i), intPtr(400+i*9)))
		assert.Equal(t, Classify(score.Score), score.RiskLevel)
	}
}

func TestDistributionPartitionsScores(t *testing.T) {
	e := NewEngine(zap.NewNop())
	var scores []models.CreditScore
	for i := 0; i < 40; i++ {
		scores = append(scores, e.Score(application(fmt.Sprintf("APP-%d", i), intPtr(330+i*13))))
	}

	dist := e.Distribution(scores)
	require.Len(t, dist.Buckets, 4)
	assert.Equal(t, 40, dist.Total)

	total := 0
	var pctSum float64
	for _, bucket := range dist.Buckets {
		total += bucket.Count
		pctSum += bucket.Pct
	}
	assert.Equal(t, 40, total, "every score falls in exactly one bucket")
	assert.InDelta(t, 100, pctSum, 0.0001)
}

func TestDistributionEmpty(t *testing.T) {
	e := NewEngine(zap.NewNop())
	dist := e.Distribution(nil)
	assert.Equal(t, 0, dist.Total)
	require.Len(t, dist.Buckets, 4)
	for _, bucket := range dist.Buckets {
		assert.Equal(t, 0, bucket.Count)
		assert.Equal(t, 0.0, bucket.Pct)
	}
}

func TestOnSnapshotScoresApplications(t *testing.T) {
	e := NewEngine(zap.NewNop())
	e.OnSnapshot(models.LoanSnapshot{Applications: []models.LoanApplication{
		application("APP-1", intPtr(700)),
		application("APP-2", intPtr(500)),
	}})
	require.Len(t, e.Current(), 2)
	assert.Equal(t, "CS-APP-1", e.Current()[0].ID)

	e.OnSnapshot(models.LoanSnapshot{})
	assert.Empty(t, e.Current())
}
