package routes

import (
	"cowriter/controllers"
	"cowriter/middlewares"
	"cowriter/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Dependencies struct {
	Provider  services.Provider
	Extractor controllers.ProfileExtractor
	Winners   controllers.WinnerFinder
	Sessions  *services.SessionStore
	Renderer  *services.RenderService
	Logger    *zap.Logger
}

func SetupRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestID(), middlewares.Logger(logger), middlewares.CORS())

	cowriter := controllers.NewCoWriterController(deps.Provider, deps.Extractor, deps.Winners, logger)
	sessions := controllers.NewSessionController(deps.Sessions, deps.Renderer, logger)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	// Same paths as the hosted functions the browser was built against
	functions := r.Group("/functions/v1")
	{
		functions.POST("/co-writer", cowriter.HandleCoWriter)
		functions.POST("/analyze-essay", cowriter.HandleAnalyzeEssay)
		functions.POST("/enhance-sentence", cowriter.HandleEnhanceSentence)
		functions.POST("/extract-description", cowriter.HandleExtractDescription)
		functions.POST("/past-winners", cowriter.HandlePastWinners)
	}

	s := r.Group("/sessions")
	{
		s.POST("", sessions.CreateSession)
		s.GET("/:id", sessions.GetSession)
		s.DELETE("/:id", sessions.DeleteSession)
		s.POST("/:id/answers", sessions.SubmitAnswer)
		s.PUT("/:id/essay", sessions.UpdateEssay)
		s.POST("/:id/enhance", sessions.EnhanceSentence)
		s.POST("/:id/enhance/apply", sessions.ApplyEnhancement)
		s.POST("/:id/cancel", sessions.CancelCycle)
		s.GET("/:id/export", sessions.ExportEssay)
		s.GET("/:id/analysis", sessions.ExportAnalysis)
	}

	return r
}
