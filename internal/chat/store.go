package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrIndexOutOfRange = errors.New("message index out of range")
	ErrNotReplaceable  = errors.New("message content cannot be replaced")
)

// Store is the ordered, append-only log of one conversation.
// It is owned by a single session and is not safe for concurrent use.
type Store struct {
	messages []Message
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// NewStoreWithClock is used by tests that need deterministic timestamps.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// Append adds a message to the end of the log.
func (s *Store) Append(role Role, content Content, kind Kind) Message {
	ts := s.now()
	if n := len(s.messages); n > 0 && ts.Before(s.messages[n-1].Timestamp) {
		ts = s.messages[n-1].Timestamp
	}

	msg := Message{
		ID:        uuid.New().String(),
		Role:      role,
		Kind:      kind,
		Content:   content,
		Timestamp: ts,
	}
	s.messages = append(s.messages, msg)
	return msg
}

// List returns a copy of every message in append order.
func (s *Store) List() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// APIReady returns the history of the given kind stripped down to role and
// text content. Messages without a text payload are skipped.
func (s *Store) APIReady(kind Kind) []Turn {
	turns := make([]Turn, 0, len(s.messages))
	for _, m := range s.messages {
		if m.Kind != kind {
			continue
		}
		text, ok := m.Content.(Text)
		if !ok {
			continue
		}
		turns = append(turns, Turn{Role: m.Role, Content: string(text)})
	}
	return turns
}

func (s *Store) Get(index int) (Message, error) {
	if index < 0 || index >= len(s.messages) {
		return Message{}, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(s.messages))
	}
	return s.messages[index], nil
}

// ReplaceContent overwrites the content of an assistant text message in
// place. ID, role, kind and timestamp are kept.
func (s *Store) ReplaceContent(index int, content Content) error {
	msg, err := s.Get(index)
	if err != nil {
		return err
	}
	if msg.Role != RoleAssistant || msg.Kind != KindText {
		return fmt.Errorf("%w: message %d is a %s %s turn", ErrNotReplaceable, index, msg.Kind, msg.Role)
	}
	if _, ok := content.(Text); !ok {
		return fmt.Errorf("%w: replacement for message %d is not text", ErrNotReplaceable, index)
	}

	s.messages[index].Content = content
	return nil
}

func (s *Store) Len() int {
	return len(s.messages)
}

// Clear drops the whole history.
func (s *Store) Clear() {
	s.messages = nil
}
