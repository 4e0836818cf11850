package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gopherai-rag/internal/model"
	"gopherai-rag/internal/ragerr"
	"gopherai-rag/internal/vectorindex"
)

var ErrShellState = errors.New("chat shell event not allowed in current state")

type ShellState string

const (
	StateAwaitingInput ShellState = "awaiting-input"
	StateProcessing    ShellState = "processing"
	StateRendering     ShellState = "rendering"
)

// Asker is the part of the query engine a chat shell needs.
type Asker interface {
	Ask(ctx context.Context, query string) (*Answer, error)
}

// ChatShell drives one conversation. Each submitted question is processed to
// completion before the next one is accepted.
type ChatShell struct {
	asker Asker
	now   func() time.Time

	mu          sync.Mutex
	state       ShellState
	pending     string
	transcript  []model.Turn
	lastSources []vectorindex.Hit
}

func NewChatShell(asker Asker) *ChatShell {
	return &ChatShell{
		asker: asker,
		now:   time.Now,
		state: StateAwaitingInput,
	}
}

func (s *ChatShell) State() ShellState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit records the user's question and moves to processing.
func (s *ChatShell) Submit(input string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingInput {
		return fmt.Errorf("%w: submit while %s", ErrShellState, s.state)
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return fmt.Errorf("%w: message is empty", ragerr.ErrInvalidInput)
	}
	s.pending = input
	s.transcript = append(s.transcript, model.Turn{Role: model.RoleUser, Content: input, At: s.now()})
	s.state = StateProcessing
	return nil
}

// Process answers the pending question and moves to rendering. Engine failures
// become an assistant turn and are also returned so callers can log them.
func (s *ChatShell) Process(ctx context.Context) (model.Turn, error) {
	s.mu.Lock()
	if s.state != StateProcessing {
		state := s.state
		s.mu.Unlock()
		return model.Turn{}, fmt.Errorf("%w: process while %s", ErrShellState, state)
	}
	query := s.pending
	s.mu.Unlock()

	answer, askErr := s.asker.Ask(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()

	turn := model.Turn{Role: model.RoleAssistant, At: s.now()}
	if askErr != nil {
		turn.Content = "Error generating answer: " + askErr.Error()
		if hint := ragerr.Remediation(askErr); hint != "" {
			turn.Content += "\n" + hint
		}
		s.lastSources = nil
	} else {
		turn.Content = answer.Text
		s.lastSources = answer.Sources
	}
	s.transcript = append(s.transcript, turn)
	s.pending = ""
	s.state = StateRendering
	return turn, askErr
}

// Rendered acknowledges that the answer has been shown and reopens input.
func (s *ChatShell) Rendered() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRendering {
		return fmt.Errorf("%w: rendered while %s", ErrShellState, s.state)
	}
	s.state = StateAwaitingInput
	return nil
}

// Exchange runs Submit, Process and Rendered in one call.
func (s *ChatShell) Exchange(ctx context.Context, input string) (model.Turn, error) {
	if err := s.Submit(input); err != nil {
		return model.Turn{}, err
	}
	turn, askErr := s.Process(ctx)
	if err := s.Rendered(); err != nil {
		return turn, err
	}
	return turn, askErr
}

func (s *ChatShell) Transcript() []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// LastSources returns the chunks behind the most recent successful answer.
func (s *ChatShell) LastSources() []vectorindex.Hit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]vectorindex.Hit, len(s.lastSources))
	copy(out, s.lastSources)
	return out
}
