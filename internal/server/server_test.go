package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/creamline/lendcore/internal/borrower"
	"github.com/creamline/lendcore/internal/credit"
	"github.com/creamline/lendcore/internal/kyc"
	"github.com/creamline/lendcore/internal/loanstore"
	"github.com/creamline/lendcore/internal/portfolio"
	"github.com/creamline/lendcore/internal/risk"
	"github.com/creamline/lendcore/pkg/models"
)

func newTestRouter(t *testing.T) (*gin.Engine, *loanstore.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	store := loanstore.NewStore(logger, loanstore.Config{SeedSource: 7})
	aggregator := portfolio.NewAggregator(logger)
	riskEngine := risk.NewEngine(logger)
	creditEngine := credit.NewEngine(logger)
	workflow := kyc.NewWorkflow(logger)
	projector := borrower.NewProjector(logger)

	store.Subscribe(aggregator.OnSnapshot)
	store.Subscribe(riskEngine.OnSnapshot)
	store.Subscribe(creditEngine.OnSnapshot)
	store.Subscribe(workflow.OnSnapshot)

	srv := NewServer(logger, store, aggregator, riskEngine, creditEngine, workflow, projector)
	return srv.Router(), store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSeedFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("empty_borrower_list_is_retryable_no_data", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/seed", gin.H{"borrowers": []models.BorrowerRef{}})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["retryable"])
	})

	t.Run("seed_generates_records_and_derived_views", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/seed", gin.H{"borrowers": []models.BorrowerRef{
			{ID: "B-1", Name: "Rosa Santos"},
			{ID: "B-2", Name: "Ben Aquino"},
		}})
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, float64(4), body["generated"])

		// the derived views follow the emission
		rec = doJSON(t, router, http.MethodGet, "/api/v1/portfolio", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var snapshot models.PortfolioSnapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
		assert.Equal(t, 4, snapshot.TotalLoans)

		rec = doJSON(t, router, http.MethodGet, "/api/v1/risk", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var assessment models.RiskAssessment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assessment))
		assert.Len(t, assessment.Metrics, 4)
	})

	t.Run("reseeding_is_skipped", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/seed", gin.H{"borrowers": []models.BorrowerRef{
			{ID: "B-3", Name: "Lita Cruz"},
		}})
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["skipped"])
	})
}

func TestKYCEndpoints(t *testing.T) {
	router, store := newTestRouter(t)
	store.SeedFromBorrowers([]models.BorrowerRef{{ID: "B-1", Name: "Rosa Santos"}})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/kyc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var verifications []models.KYCVerification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verifications))
	require.Len(t, verifications, 1)
	v := verifications[0]

	t.Run("reject_without_reason_fails", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/kyc/"+v.ID+"/documents/"+v.Documents[0].ID+"/reject", gin.H{})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("verify_document", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/kyc/"+v.ID+"/documents/"+v.Documents[0].ID+"/verify",
			gin.H{"verified_by": "officer-1"})
		require.Equal(t, http.StatusOK, rec.Code)
		var out models.KYCVerification
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, models.VerificationStatusInProgress, out.Status)
	})

	t.Run("invalid_transition_is_conflict", func(t *testing.T) {
		// case is already in_progress after the document decision above
		rec := doJSON(t, router, http.MethodPost, "/api/v1/kyc/"+v.ID+"/start", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown_verification_is_not_found", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/kyc/KYC-MISSING/start", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBorrowerEndpoints(t *testing.T) {
	router, store := newTestRouter(t)
	store.SeedFromBorrowers([]models.BorrowerRef{{ID: "B-1", Name: "Rosa Santos"}})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/borrowers/B-1/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		History []models.LoanHistoryEntry `json:"history"`
		Totals  models.BorrowerTotals     `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.History, 2)
	assert.Equal(t, 2, body.Totals.LoanCount)

	t.Run("trend_window_validation", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/v1/borrowers/B-1/trend?window=1y", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = doJSON(t, router, http.MethodGet, "/api/v1/borrowers/B-1/trend?window=7d", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown_borrower_degrades_to_empty", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/v1/borrowers/B-404/history", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			History []models.LoanHistoryEntry `json:"history"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Empty(t, body.History)
	})
}

func TestCreditEndpoints(t *testing.T) {
	router, store := newTestRouter(t)
	store.SeedFromBorrowers([]models.BorrowerRef{
		{ID: "B-1", Name: "Rosa Santos"},
		{ID: "B-2", Name: "Ben Aquino"},
	})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/credit/scores", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var scores []models.CreditScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scores))
	require.Len(t, scores, 2)
	for _, score := range scores {
		assert.GreaterOrEqual(t, score.Score, 300)
		assert.LessOrEqual(t, score.Score, 850)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/credit/distribution", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dist models.ScoreDistribution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dist))
	assert.Equal(t, 2, dist.Total)
}
