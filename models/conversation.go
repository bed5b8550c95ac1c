package models

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the conversation log. Turns are never modified after they are appended.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

var ErrConversationNotEmpty = errors.New("conversation already has turns")

// Conversation is the ordered turn log of a single session. The order is replayed verbatim
// to the provider, so the log only ever grows at the tail (Prepend is reserved for the
// analysis context turn and only works on an empty log, Retract for an answer whose cycle
// never produced a reply).
type Conversation struct {
	mu    sync.RWMutex
	turns []Turn
	now   func() time.Time
}

func NewConversation() *Conversation {
	return &Conversation{now: time.Now}
}

func (c *Conversation) newTurn(role Role, content string) Turn {
	return Turn{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: c.now(),
	}
}

// Append adds a turn at the tail and returns it.
func (c *Conversation) Append(role Role, content string) Turn {
	c.mu.Lock()
	defer c.mu.Unlock()

	turn := c.newTurn(role, content)
	c.turns = append(c.turns, turn)
	return turn
}

// Prepend seeds an empty conversation with a context turn.
func (c *Conversation) Prepend(role Role, content string) (Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.turns) > 0 {
		return Turn{}, ErrConversationNotEmpty
	}
	turn := c.newTurn(role, content)
	c.turns = []Turn{turn}
	return turn, nil
}

// Retract removes the tail turn if it is the one with the given id. Earlier turns can
// never be removed.
func (c *Conversation) Retract(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.turns)
	if n == 0 || c.turns[n-1].ID != id {
		return false
	}
	c.turns = c.turns[:n-1]
	return true
}

// Turns returns a copy of the log.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Last returns the most recent turn, if any.
func (c *Conversation) Last() (Turn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}
