// Package api exposes the detector over HTTP: JSON text scans, .eml
// uploads and operational endpoints.
package api

import (
	"io"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/akashahram/Phishing-Email-Detector/internal/analyzer"
	"github.com/akashahram/Phishing-Email-Detector/internal/api/middleware"
	"github.com/akashahram/Phishing-Email-Detector/internal/config"
	"github.com/akashahram/Phishing-Email-Detector/internal/metrics"
	"github.com/akashahram/Phishing-Email-Detector/internal/storage"
	"github.com/akashahram/Phishing-Email-Detector/internal/types"
	"github.com/akashahram/Phishing-Email-Detector/pkg/helpers"
)

// Version is stamped at build time.
var Version = "1.0.0"

// Server wires the analyzer behind a gin router.
type Server struct {
	logger   *zap.Logger
	analyzer *analyzer.Analyzer
	store    *storage.Store
}

// NewServer creates and configures the HTTP server. store may be nil,
// disabling verdict persistence.
func NewServer(logger *zap.Logger, cfg *config.Config, a *analyzer.Analyzer, store *storage.Store) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{logger: logger, analyzer: a, store: store}

	router := gin.New()
	router.Use(gin.Recovery(),
		middleware.LoggingMiddleware(logger),
		middleware.MetricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": Version})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/predict", s.predict)
	router.POST("/scan_eml", s.scanEML)

	return router
}

type predictRequest struct {
	Text                  string   `json:"text"`
	ClassifierProbability *float64 `json:"classifier_probability"`
}

// predict scores raw body text.
func (s *Server) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no text provided"})
		return
	}

	verdict, err := s.analyzer.Analyze(c.Request.Context(), analyzer.Request{
		BodyText:              req.Text,
		ClassifierProbability: req.ClassifierProbability,
	})
	if err != nil {
		s.logger.Error("analysis failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "analysis failed"})
		return
	}

	s.persist(c, "", verdict)
	c.JSON(http.StatusOK, verdict)
}

// scanEML scores an uploaded .eml file, headers included.
func (s *Server) scanEML(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}

	rawHeaders, bodyText := parseEML(raw)

	verdict, err := s.analyzer.Analyze(c.Request.Context(), analyzer.Request{
		RawHeaders: rawHeaders,
		BodyText:   bodyText,
	})
	if err != nil {
		s.logger.Error("analysis failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "analysis failed"})
		return
	}

	s.persist(c, file.Filename, verdict)
	c.JSON(http.StatusOK, verdict)
}

// persist saves the verdict if storage is configured. Failures are
// logged and counted, never surfaced to the caller.
func (s *Server) persist(c *gin.Context, source string, verdict *types.Verdict) {
	if s.store == nil {
		return
	}
	id := helpers.GenerateCorrelationID()
	if _, err := s.store.SaveVerdict(c.Request.Context(), id, source, verdict); err != nil {
		s.logger.Error("failed to persist verdict", zap.Error(err))
		metrics.StoredVerdicts.WithLabelValues("false").Inc()
		return
	}
	metrics.StoredVerdicts.WithLabelValues("true").Inc()
}
