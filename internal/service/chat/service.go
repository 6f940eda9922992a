package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/talktotj/chat/backend/internal/model/chat"
)

// ErrBusy is returned by Submit while a previous message is still in flight.
var ErrBusy = errors.New("a message is already being sent")

// Relay delivers one user message and returns the assistant reply.
type Relay interface {
	Send(ctx context.Context, message string) (string, error)
}

// State is a read-only snapshot of the conversation.
type State struct {
	Messages []chat.Message
	Busy     bool
	Input    string
	Err      error
}

// Listener is notified after every change to messages, busy flag or input.
type Listener func(State)

// Service encapsulates conversation state management for one client session.
// Nothing is persisted; the conversation lives as long as the Service.
type Service struct {
	relay Relay

	mu        sync.RWMutex
	messages  []chat.Message
	busy      bool
	input     string
	lastErr   error
	listeners []Listener
}

// NewService creates an empty conversation that sends through relay.
func NewService(relay Relay) *Service {
	return &Service{
		relay:    relay,
		messages: make([]chat.Message, 0, 16),
	}
}

// OnChange registers a listener. Listeners run synchronously outside the lock.
func (s *Service) OnChange(fn Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// SetInput replaces the pending input text.
func (s *Service) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	state, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, state)
}

// SubmitInput submits the current input text.
func (s *Service) SubmitInput(ctx context.Context) error {
	return s.Submit(ctx, s.Input())
}

// Submit records text as a user message and relays it. Blank text is ignored.
// On success the reply is appended and the input cleared; on failure the error
// is kept for Err and the input is left for a retry. Busy is cleared either way.
func (s *Service) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.messages = append(s.messages, newMessage(chat.OriginUser, text))
	s.busy = true
	s.lastErr = nil
	state, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, state)

	reply, err := s.relay.Send(ctx, text)

	s.mu.Lock()
	if err != nil {
		s.lastErr = err
	} else {
		s.messages = append(s.messages, newMessage(chat.OriginAssistant, reply))
		s.input = ""
	}
	s.busy = false
	state, listeners = s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, state)
	return err
}

// Messages returns a copy of the conversation in chronological order.
func (s *Service) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// Busy reports whether a message is in flight.
func (s *Service) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// Input returns the pending input text.
func (s *Service) Input() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.input
}

// Err returns the failure of the last submission, or nil.
func (s *Service) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Snapshot returns the full current state.
func (s *Service) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, _ := s.snapshotLocked()
	return state
}

func (s *Service) snapshotLocked() (State, []Listener) {
	messages := make([]chat.Message, len(s.messages))
	copy(messages, s.messages)

	return State{
		Messages: messages,
		Busy:     s.busy,
		Input:    s.input,
		Err:      s.lastErr,
	}, s.listeners
}

func notify(listeners []Listener, state State) {
	for _, fn := range listeners {
		fn(state)
	}
}

func newMessage(origin chat.Origin, text string) chat.Message {
	return chat.Message{
		ID:        uuid.NewString(),
		Origin:    origin,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}
