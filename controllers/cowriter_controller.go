package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"cowriter/models"
	"cowriter/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProfileExtractor reads a scholarship description into a structured profile.
type ProfileExtractor interface {
	Extract(ctx context.Context, description string) (*models.ScholarshipProfile, error)
}

// WinnerFinder looks up past winners of a scholarship.
type WinnerFinder interface {
	FindWinners(ctx context.Context, scholarship string) ([]models.WinnerIdentifier, error)
}

// CoWriterController serves the stateless provider endpoints the browser calls directly.
type CoWriterController struct {
	provider  services.Provider
	extractor ProfileExtractor
	winners   WinnerFinder
	logger    *zap.Logger
}

func NewCoWriterController(provider services.Provider, extractor ProfileExtractor, winners WinnerFinder, logger *zap.Logger) *CoWriterController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoWriterController{provider: provider, extractor: extractor, winners: winners, logger: logger}
}

func (cc *CoWriterController) HandleCoWriter(c *gin.Context) {
	var request services.CoWriterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	body, err := cc.provider.StreamCoWriter(c.Request.Context(), request)
	if err != nil {
		cc.logger.Error("error in co-writer function", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer body.Close()

	passthroughStream(c, body)
}

func (cc *CoWriterController) HandleAnalyzeEssay(c *gin.Context) {
	var request struct {
		ScholarshipDescription string `json:"scholarship_description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Scholarship description is required"})
		return
	}

	body, err := cc.provider.StreamAnalysis(c.Request.Context(), request.ScholarshipDescription)
	if err != nil {
		cc.logger.Error("error in analyze-essay function", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer body.Close()

	passthroughStream(c, body)
}

func (cc *CoWriterController) HandleEnhanceSentence(c *gin.Context) {
	var request struct {
		Sentence string `json:"sentence" binding:"required"`
		Context  string `json:"context"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Sentence is required"})
		return
	}

	enhanced, err := cc.provider.EnhanceSentence(c.Request.Context(), request.Sentence, request.Context)
	if err != nil {
		cc.logger.Error("error in enhance-sentence function", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"enhanced_sentence": enhanced})
}

func (cc *CoWriterController) HandleExtractDescription(c *gin.Context) {
	var request struct {
		ScholarshipDescription string `json:"scholarship_description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Scholarship description is required"})
		return
	}

	profile, err := cc.extractor.Extract(c.Request.Context(), request.ScholarshipDescription)
	if err != nil {
		cc.logger.Error("error in extract-description function", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (cc *CoWriterController) HandlePastWinners(c *gin.Context) {
	var request struct {
		ScholarshipName string `json:"scholarship_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Scholarship name is required"})
		return
	}

	winners, err := cc.winners.FindWinners(c.Request.Context(), request.ScholarshipName)
	if err != nil {
		cc.logger.Error("error in past-winners function", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scholarship_name": strings.TrimSpace(request.ScholarshipName),
		"winners":          winners,
	})
}

// passthroughStream relays a provider SSE body to the client unchanged. A client disconnect
// cancels the request context, which ends the provider read.
func passthroughStream(c *gin.Context, body io.Reader) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				return
			}
			c.Writer.Flush()
		}
		if err != nil {
			return
		}
	}
}

// statusFor maps service errors to HTTP status codes. Provider failures stay 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrEmptyAnswer),
		errors.Is(err, services.ErrEmptyDescription),
		errors.Is(err, services.ErrEmptyScholarshipName),
		errors.Is(err, services.ErrUnsupportedFormat),
		errors.Is(err, models.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrAnalysisUnavailable):
		return http.StatusNotFound
	case errors.Is(err, services.ErrCycleInFlight),
		errors.Is(err, services.ErrEditWhileStreaming),
		errors.Is(err, services.ErrSessionStarted),
		errors.Is(err, services.ErrSessionNotStarted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
