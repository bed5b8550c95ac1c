package controllers

import (
	"context"
	"net/http"

	"cowriter/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionController exposes co-writing sessions. Cycles stream their progress as SSE events:
// analysis, fragment, essay, question, notice and a final done carrying the snapshot.
type SessionController struct {
	store    *services.SessionStore
	renderer *services.RenderService
	logger   *zap.Logger
}

func NewSessionController(store *services.SessionStore, renderer *services.RenderService, logger *zap.Logger) *SessionController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionController{store: store, renderer: renderer, logger: logger}
}

// eventStream writes SSE events, sending the stream headers with the first one. Until then
// the handler can still answer with a plain JSON error.
type eventStream struct {
	c       *gin.Context
	started bool
}

func (es *eventStream) emit(event string, data any) {
	if !es.started {
		es.c.Header("Cache-Control", "no-cache")
		es.c.Header("Connection", "keep-alive")
		es.c.Header("X-Accel-Buffering", "no")
		es.started = true
	}
	es.c.SSEvent(event, data)
	es.c.Writer.Flush()
}

func (es *eventStream) callbacks() services.CycleCallbacks {
	return services.CycleCallbacks{
		OnAnalysis: func(step services.RevealStep) {
			es.emit("analysis", gin.H{"piece": step.Piece, "text": step.State})
		},
		OnFragment: func(f string) { es.emit("fragment", f) },
		OnReveal: func(step services.RevealStep) {
			es.emit("essay", gin.H{"piece": step.Piece, "text": step.State})
		},
		OnQuestion: func(q string) { es.emit("question", q) },
		OnNotice:   func(n services.Notice) { es.emit("notice", n) },
	}
}

func (sc *SessionController) runCycle(c *gin.Context, sess *services.Session, run func(context.Context, services.CycleCallbacks) error) {
	c.Header("X-Session-ID", sess.ID)
	es := &eventStream{c: c}

	if err := run(c.Request.Context(), es.callbacks()); err != nil {
		if es.started {
			es.emit("error", gin.H{"error": err.Error()})
			return
		}
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	es.emit("done", sess.Snapshot())
}

func (sc *SessionController) CreateSession(c *gin.Context) {
	var request struct {
		ScholarshipDescription string `json:"scholarship_description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || blank(request.ScholarshipDescription) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Scholarship description is required"})
		return
	}

	sess := sc.store.Create()
	sc.logger.Info("session created", zap.String("session_id", sess.ID), zap.String("request_id", c.GetString("request_id")))

	sc.runCycle(c, sess, func(ctx context.Context, cb services.CycleCallbacks) error {
		return sess.Start(ctx, request.ScholarshipDescription, cb)
	})
}

func (sc *SessionController) SubmitAnswer(c *gin.Context) {
	sess, ok := sc.session(c)
	if !ok {
		return
	}

	var request struct {
		Answer string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sc.runCycle(c, sess, func(ctx context.Context, cb services.CycleCallbacks) error {
		return sess.Submit(ctx, request.Answer, cb)
	})
}

func (sc *SessionController) GetSession(c *gin.Context) {
	sess, ok := sc.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (sc *SessionController) UpdateEssay(c *gin.Context) {
	sess, ok := sc.session(c)
	if !ok {
		return
	}

	var request struct {
		EssayText *string `json:"essay_text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "essay_text is required"})
		return
	}

	if err := sess.Edit(*request.EssayText); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

type rangeRequest struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (sc *SessionController) EnhanceSentence(c *gin.Context) {
	sess, ok := sc.session(c)
	if !ok {
		return
	}

	var request rangeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enhanced, err := sess.Enhance(c.Request.Context(), request.Start, request.End)
	if err != nil {
		sc.logger.Warn("enhancement failed", zap.String("session_id", sess.ID), zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"start":             request.Start,
		"end":               request.End,
		"enhanced_sentence": enhanced,
	})
}

func (sc *SessionController) ApplyEnhancement(c *gin.Context) {
	sess, ok := sc.session(c)
	if !ok {
		return
	}

	var request struct {
		rangeRequest
		Replacement string `json:"replacement" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "replacement is required"})
		return
	}

	if err := sess.ApplyEnhancement(request.Start, request.End, request.Replacement); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (sc *SessionController) CancelCycle(c *gin.Context) {
	sess, ok := sc.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": sess.Cancel()})
}

func (sc *SessionController) DeleteSession(c *gin.Context) {
	if err := sc.store.Delete(c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (sc *SessionController) ExportEssay(c *gin.Context) {
	sess, ok := sc.session(c)
	if !ok {
		return
	}

	format, err := services.ParseExportFormat(c.Query("format"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	body, contentType, err := sc.renderer.Render(sess.Snapshot(), format)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, contentType, []byte(body))
}

func (sc *SessionController) ExportAnalysis(c *gin.Context) {
	sess, ok := sc.session(c)
	if !ok {
		return
	}

	format, err := services.ParseExportFormat(c.DefaultQuery("format", string(services.ExportHTML)))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	body, contentType, err := sc.renderer.RenderAnalysis(sess.Snapshot(), format)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, contentType, []byte(body))
}

func (sc *SessionController) session(c *gin.Context) (*services.Session, bool) {
	sess, err := sc.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return nil, false
	}
	return sess, true
}
