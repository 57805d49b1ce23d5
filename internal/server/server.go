// Package server exposes the derived views over a read-only HTTP API. The
// engine owns no transport semantics; display layers poll these endpoints.
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domainerrors "github.com/creamline/lendcore/common/errors"
	"github.com/creamline/lendcore/internal/borrower"
	"github.com/creamline/lendcore/internal/credit"
	"github.com/creamline/lendcore/internal/kyc"
	"github.com/creamline/lendcore/internal/loanstore"
	"github.com/creamline/lendcore/internal/portfolio"
	"github.com/creamline/lendcore/internal/risk"
	"github.com/creamline/lendcore/pkg/models"
)

// Server wires the engines to the HTTP routes
type Server struct {
	logger    *zap.Logger
	store     *loanstore.Store
	portfolio *portfolio.Aggregator
	risk      *risk.Engine
	credit    *credit.Engine
	kyc       *kyc.Workflow
	projector *borrower.Projector
}

// NewServer creates the HTTP server over the given engines
func NewServer(
	logger *zap.Logger,
	store *loanstore.Store,
	aggregator *portfolio.Aggregator,
	riskEngine *risk.Engine,
	creditEngine *credit.Engine,
	workflow *kyc.Workflow,
	projector *borrower.Projector,
) *Server {
	return &Server{
		logger:    logger.Named("server"),
		store:     store,
		portfolio: aggregator,
		risk:      riskEngine,
		credit:    creditEngine,
		kyc:       workflow,
		projector: projector,
	}
}

// Router builds the gin router
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(ginzap.Ginzap(s.logger, "2006-01-02T15:04:05Z07:00", true))
	router.Use(ginzap.RecoveryWithZap(s.logger, true))
	router.Use(cors.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/seed", s.handleSeed)
		v1.GET("/portfolio", s.handlePortfolio)
		v1.GET("/risk", s.handleRisk)

		creditGroup := v1.Group("/credit")
		{
			creditGroup.GET("/scores", s.handleCreditScores)
			creditGroup.GET("/distribution", s.handleCreditDistribution)
		}

		kycGroup := v1.Group("/kyc")
		{
			kycGroup.GET("", s.handleKYCList)
			kycGroup.GET("/:id", s.handleKYCGet)
			kycGroup.POST("/:id/start", s.handleKYCStart)
			kycGroup.POST("/:id/complete", s.handleKYCComplete)
			kycGroup.POST("/:id/reject", s.handleKYCReject)
			kycGroup.POST("/:id/documents/:docID/verify", s.handleDocumentVerify)
			kycGroup.POST("/:id/documents/:docID/reject", s.handleDocumentReject)
		}

		borrowers := v1.Group("/borrowers")
		{
			borrowers.GET("/:id/history", s.handleBorrowerHistory)
			borrowers.GET("/:id/trend", s.handleBorrowerTrend)
		}
	}
	return router
}

// seedRequest carries the borrower list handed over by the import collaborator
type seedRequest struct {
	Borrowers []models.BorrowerRef `json:"borrowers"`
}

func (s *Server) handleSeed(c *gin.Context) {
	var req seedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Borrowers) == 0 {
		// import produced nothing: the store stays empty and the caller may
		// retry once the upstream fetch succeeds
		s.writeError(c, domainerrors.ErrNoData)
		return
	}
	for i := range req.Borrowers {
		if req.Borrowers[i].ID == "" {
			req.Borrowers[i].ID = uuid.NewString()
		}
	}
	generated := s.store.SeedFromBorrowers(req.Borrowers)
	c.JSON(http.StatusOK, gin.H{
		"generated": generated,
		"skipped":   generated == 0,
	})
}

func (s *Server) handlePortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, s.portfolio.Current())
}

func (s *Server) handleRisk(c *gin.Context) {
	c.JSON(http.StatusOK, s.risk.Current())
}

func (s *Server) handleCreditScores(c *gin.Context) {
	c.JSON(http.StatusOK, s.credit.Current())
}

func (s *Server) handleCreditDistribution(c *gin.Context) {
	c.JSON(http.StatusOK, s.credit.Distribution(s.credit.Current()))
}

func (s *Server) handleKYCList(c *gin.Context) {
	c.JSON(http.StatusOK, s.kyc.List())
}

func (s *Server) handleKYCGet(c *gin.Context) {
	verification, err := s.kyc.Get(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verification)
}

func (s *Server) handleKYCStart(c *gin.Context) {
	verification, err := s.kyc.StartVerification(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verification)
}

func (s *Server) handleKYCComplete(c *gin.Context) {
	verification, err := s.kyc.CompleteVerification(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verification)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleKYCReject(c *gin.Context) {
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	verification, err := s.kyc.RejectVerification(c.Param("id"), req.Reason)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verification)
}

type verifyDocumentRequest struct {
	VerifiedBy string `json:"verified_by"`
}

func (s *Server) handleDocumentVerify(c *gin.Context) {
	var req verifyDocumentRequest
	_ = c.ShouldBindJSON(&req)
	verification, err := s.kyc.VerifyDocument(c.Param("id"), c.Param("docID"), req.VerifiedBy)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verification)
}

func (s *Server) handleDocumentReject(c *gin.Context) {
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	verification, err := s.kyc.RejectDocument(c.Param("id"), c.Param("docID"), req.Reason)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verification)
}

func (s *Server) handleBorrowerHistory(c *gin.Context) {
	snap := s.store.Snapshot()
	rows, totals := s.projector.History(snap.Loans, c.Param("id"))
	if rows == nil {
		rows = []models.LoanHistoryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"history": rows,
		"totals":  totals,
	})
}

func (s *Server) handleBorrowerTrend(c *gin.Context) {
	window := borrower.Window(c.DefaultQuery("window", string(borrower.Window30D)))
	switch window {
	case borrower.Window7D, borrower.Window30D, borrower.Window90D:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "window must be one of 7d, 30d, 90d"})
		return
	}
	snap := s.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"window": window,
		"series": s.projector.TrendSeries(snap.Loans, c.Param("id"), window),
	})
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := domainerrors.HTTPStatus(err)
	body := gin.H{"error": err.Error()}
	if status == http.StatusUnprocessableEntity {
		body["retryable"] = true
	}
	c.JSON(status, body)
}
