package services

import (
	"sync"

	"go.uber.org/zap"
)

// SessionStore keeps live sessions in memory, keyed by session id.
type SessionStore struct {
	provider Provider
	opts     SessionOptions
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionStore(provider Provider, opts SessionOptions) *SessionStore {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		provider: provider,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

func (st *SessionStore) Create() *Session {
	sess := NewSession(st.provider, st.opts)

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	st.logger.Debug("session created", zap.String("session_id", sess.ID))
	return sess
}

func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes the session and cancels its in-flight cycle, if any.
func (st *SessionStore) Delete(id string) error {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	if sess.Cancel() {
		st.logger.Info("cancelled in-flight cycle of deleted session", zap.String("session_id", id))
	}
	return nil
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
