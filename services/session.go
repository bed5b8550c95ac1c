package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"cowriter/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionState string

const (
	StateIdle               SessionState = "idle"
	StateAwaitingFirstCycle SessionState = "awaiting_first_cycle"
	StateAnalyzing          SessionState = "analyzing"
	StateStreaming          SessionState = "streaming"
	StateAwaitingUserInput  SessionState = "awaiting_user_input"
)

// analysisFallback is shown when the strategy analysis could not be produced.
const analysisFallback = "Unable to complete analysis. Let's start writing your essay!"

// CycleCallbacks receives the progress of a cycle. Every field is optional and is called
// from the goroutine driving the cycle.
type CycleCallbacks struct {
	OnAnalysis func(RevealStep)
	OnFragment func(string)
	OnReveal   func(RevealStep)
	OnQuestion func(string)
	OnNotice   func(Notice)
}

func (cb CycleCallbacks) analysis(step RevealStep) {
	if cb.OnAnalysis != nil {
		cb.OnAnalysis(step)
	}
}

func (cb CycleCallbacks) reveal(step RevealStep) {
	if cb.OnReveal != nil {
		cb.OnReveal(step)
	}
}

func (cb CycleCallbacks) question(q string) {
	if cb.OnQuestion != nil {
		cb.OnQuestion(q)
	}
}

func (cb CycleCallbacks) notice(err error) {
	if n, ok := NoticeFor(err); ok && cb.OnNotice != nil {
		cb.OnNotice(n)
	}
}

type SessionOptions struct {
	AnalyzeFirst bool
	// CycleTimeout bounds the provider call and its stream. Zero means no bound.
	CycleTimeout time.Duration
	Animator     *Animator
	Assembler    *Assembler
	Logger       *zap.Logger
}

// SessionSnapshot is a point-in-time copy of a session.
type SessionSnapshot struct {
	ID          string        `json:"id"`
	State       SessionState  `json:"state"`
	Description string        `json:"scholarship_description"`
	Question    string        `json:"question"`
	Essay       string        `json:"essay_text"`
	Analysis    string        `json:"analysis,omitempty"`
	Turns       []models.Turn `json:"conversation_history"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Session drives the ask, answer, extend-essay loop for one scholarship essay. The
// conversation and the essay are only mutated through its methods.
type Session struct {
	ID        string
	CreatedAt time.Time

	provider     Provider
	animator     *Animator
	assembler    *Assembler
	logger       *zap.Logger
	analyzeFirst bool
	cycleTimeout time.Duration

	mu           sync.Mutex
	state        SessionState
	description  string
	question     string
	analysis     string
	conversation *models.Conversation
	essay        *models.EssayDocument
	cancel       context.CancelFunc
	run          uint64
	// id of the user turn the in-flight cycle is answering
	pending string
}

func NewSession(provider Provider, opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	animator := opts.Animator
	if animator == nil {
		animator = NewAnimator(0, 0)
	}
	assembler := opts.Assembler
	if assembler == nil {
		assembler = NewAssembler(logger)
	}

	id := uuid.NewString()
	return &Session{
		ID:           id,
		CreatedAt:    time.Now(),
		provider:     provider,
		animator:     animator,
		assembler:    assembler,
		logger:       logger.With(zap.String("session_id", id)),
		analyzeFirst: opts.AnalyzeFirst,
		cycleTimeout: opts.CycleTimeout,
		state:        StateIdle,
		conversation: models.NewConversation(),
		essay:        models.NewEssayDocument(""),
	}
}

// Start records the scholarship description and runs the optional analysis pass followed by
// the first writing cycle. Cycle failures are reported through cb, not returned.
func (s *Session) Start(ctx context.Context, description string, cb CycleCallbacks) error {
	if strings.TrimSpace(description) == "" {
		return ErrEmptyDescription
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrSessionStarted
	}
	s.description = description
	s.state = StateAwaitingFirstCycle
	runCtx, done := s.beginRunLocked(ctx)
	s.mu.Unlock()
	defer done()

	s.logger.Info("session started",
		zap.Int("description_length", len(description)),
		zap.Bool("analyze_first", s.analyzeFirst),
	)

	if s.analyzeFirst {
		s.runAnalysis(runCtx, cb)
	}
	s.runCycle(runCtx, cb)
	return nil
}

// Submit appends the user's answer and runs one writing cycle. A blank answer is rejected
// without touching the session.
func (s *Session) Submit(ctx context.Context, answer string, cb CycleCallbacks) error {
	s.mu.Lock()
	switch s.state {
	case StateIdle:
		s.mu.Unlock()
		return ErrSessionNotStarted
	case StateAwaitingUserInput:
	default:
		s.mu.Unlock()
		return ErrCycleInFlight
	}
	if strings.TrimSpace(answer) == "" {
		s.mu.Unlock()
		return ErrEmptyAnswer
	}

	s.pending = s.conversation.Append(models.RoleUser, answer).ID
	s.state = StateStreaming
	runCtx, done := s.beginRunLocked(ctx)
	s.mu.Unlock()
	defer done()

	s.runCycle(runCtx, cb)
	return nil
}

// beginRunLocked derives the cancellable context of one Start or Submit call. The returned
// func releases it and must be called once the call is over.
func (s *Session) beginRunLocked(ctx context.Context) (context.Context, func()) {
	runCtx, cancel := context.WithCancel(ctx)
	s.run++
	run := s.run
	s.cancel = cancel

	return runCtx, func() {
		cancel()
		s.mu.Lock()
		if s.run == run {
			s.cancel = nil
		}
		s.mu.Unlock()
	}
}

func (s *Session) runAnalysis(ctx context.Context, cb CycleCallbacks) {
	s.mu.Lock()
	s.state = StateAnalyzing
	description := s.description
	s.mu.Unlock()

	text, err := s.stream(ctx, func(streamCtx context.Context) (*SSEDecoder, error) {
		body, err := s.provider.StreamAnalysis(streamCtx, description)
		if err != nil {
			return nil, err
		}
		return NewSSEDecoder(body, s.logger), nil
	}, nil)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = ErrResponseParse
	}

	if err != nil {
		s.mu.Lock()
		s.analysis = analysisFallback
		s.mu.Unlock()

		// a cancelled run is reported once, by the cycle that follows
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("analysis failed, proceeding to writing", zap.Error(err))
		if n, ok := NoticeFor(err); ok && cb.OnNotice != nil {
			n.Message = "Failed to analyze essay. Proceeding to writing anyway."
			cb.OnNotice(n)
		}
		return
	}

	// The reveal is cosmetic; the full analysis is kept even if it is cut short.
	_, _ = s.animator.RevealChars(ctx, "", text, cb.analysis)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.analysis = text
	if _, err := s.conversation.Prepend(models.RoleAssistant, analysisContextTurn(text)); err != nil {
		s.logger.Warn("analysis not added to conversation", zap.Error(err))
	}
}

func (s *Session) runCycle(ctx context.Context, cb CycleCallbacks) {
	s.mu.Lock()
	s.state = StateStreaming
	req := CoWriterRequest{
		ScholarshipDescription: s.description,
		ConversationHistory:    s.conversation.Turns(),
		EssayText:              s.essay.Text(),
	}
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		s.failCycle(ctx, err, cb)
		return
	}

	started := time.Now()
	text, err := s.stream(ctx, func(streamCtx context.Context) (*SSEDecoder, error) {
		body, err := s.provider.StreamCoWriter(streamCtx, req)
		if err != nil {
			return nil, err
		}
		return NewSSEDecoder(body, s.logger), nil
	}, cb.OnFragment)
	if err != nil {
		s.failCycle(ctx, err, cb)
		return
	}

	parsed, err := s.assembler.Assemble(text)
	if err != nil {
		s.failCycle(ctx, err, cb)
		return
	}

	_, err = s.animator.RevealWords(ctx, req.EssayText, parsed.EssayText, func(step RevealStep) {
		s.essay.Append(step.Piece)
		cb.reveal(step)
	})
	if err != nil {
		s.failCycle(ctx, err, cb)
		return
	}

	s.mu.Lock()
	s.conversation.Append(models.RoleAssistant, parsed.EssayText)
	s.pending = ""
	s.question = parsed.Question
	s.state = StateAwaitingUserInput
	s.mu.Unlock()

	s.logger.Info("cycle completed",
		zap.String("format", string(parsed.Kind)),
		zap.Int("essay_length", s.essay.Len()),
		zap.Duration("elapsed", time.Since(started)),
	)
	cb.question(parsed.Question)
}

// stream opens a provider stream bounded by the cycle timeout and drains it. Cancelling ctx
// closes the decoder so a blocked read returns promptly.
func (s *Session) stream(ctx context.Context, open func(context.Context) (*SSEDecoder, error), onFragment func(string)) (string, error) {
	streamCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.cycleTimeout > 0 {
		streamCtx, cancel = context.WithTimeout(ctx, s.cycleTimeout)
	}
	defer cancel()

	dec, err := open(streamCtx)
	if err != nil {
		return "", contextCause(streamCtx, err)
	}
	defer dec.Close()
	stop := context.AfterFunc(streamCtx, func() { _ = dec.Close() })
	defer stop()

	text, err := CollectFragments(dec, onFragment)
	if err != nil {
		return text, contextCause(streamCtx, err)
	}
	if dec.Skipped() > 0 {
		s.logger.Debug("stream had malformed records", zap.Int("skipped", dec.Skipped()))
	}
	return text, nil
}

// contextCause prefers the context error so cancellations and timeouts are reported as such
// rather than as the transport error they caused.
func contextCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return ctxErr
	}
	return err
}

func (s *Session) failCycle(ctx context.Context, err error, cb CycleCallbacks) {
	cancelled := errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled)

	s.mu.Lock()
	// a failed answer is retracted; a cancelled one keeps its turn along with its partial text
	if !cancelled && s.pending != "" {
		s.conversation.Retract(s.pending)
	}
	s.pending = ""
	if !cancelled || s.question == "" {
		s.question = FallbackQuestion
	}
	question := s.question
	s.state = StateAwaitingUserInput
	s.mu.Unlock()

	s.logger.Warn("cycle failed", zap.Error(err), zap.Bool("cancelled", cancelled))
	cb.notice(err)
	cb.question(question)
}

// Cancel aborts the in-flight analysis or cycle. Essay text revealed so far is kept.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

// Edit replaces the whole essay with the user's text.
func (s *Session) Edit(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkEditableLocked(); err != nil {
		return err
	}
	s.essay.Replace(text)
	return nil
}

// Enhance asks the provider for a better version of essay[start:end]. It does not change the
// session; the suggestion is applied with ApplyEnhancement.
func (s *Session) Enhance(ctx context.Context, start, end int) (string, error) {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return "", ErrSessionNotStarted
	}
	sentence, err := s.essay.Slice(start, end)
	essayText := s.essay.Text()
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(sentence) == "" {
		return "", models.ErrInvalidRange
	}

	return s.provider.EnhanceSentence(ctx, sentence, essayText)
}

func (s *Session) ApplyEnhancement(start, end int, replacement string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkEditableLocked(); err != nil {
		return err
	}
	return s.essay.ReplaceRange(start, end, replacement)
}

func (s *Session) checkEditableLocked() error {
	switch s.state {
	case StateIdle:
		return ErrSessionNotStarted
	case StateAwaitingFirstCycle, StateAnalyzing, StateStreaming:
		return ErrEditWhileStreaming
	}
	return nil
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Essay() string {
	return s.essay.Text()
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		ID:          s.ID,
		State:       s.state,
		Description: s.description,
		Question:    s.question,
		Essay:       s.essay.Text(),
		Analysis:    s.analysis,
		Turns:       s.conversation.Turns(),
		CreatedAt:   s.CreatedAt,
	}
}
