package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/talktotj/chat/backend/internal/model/persona"
)

// ErrTimeout reports that the provider did not answer within the configured timeout.
var ErrTimeout = errors.New("provider request timed out")

// ProviderError wraps any failure of the completion provider.
type ProviderError struct {
	Provider string
	Err      error
	Timeout  bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTimeout) match timed-out calls.
func (e *ProviderError) Is(target error) bool {
	return target == ErrTimeout && e.Timeout
}

// Options tunes a Service.
type Options struct {
	Provider string
	Timeout  time.Duration
}

// Service turns one user message into one persona reply. It holds no
// conversation state; the prompt is always [system, user].
type Service struct {
	chatModel model.BaseChatModel
	template  prompt.ChatTemplate
	system    string
	personaID string
	provider  string
	timeout   time.Duration
}

// NewService creates the reply service for a behavior profile.
func NewService(chatModel model.BaseChatModel, p persona.Persona, opts Options) *Service {
	provider := opts.Provider
	if provider == "" {
		provider = "OpenAI"
	}

	return &Service{
		chatModel: chatModel,
		template: prompt.FromMessages(
			schema.FString,
			schema.SystemMessage("{system}"),
			schema.UserMessage("{query}"),
		),
		system:    NewPersonaPromptManager().BuildSystemPrompt(p),
		personaID: p.ID,
		provider:  provider,
		timeout:   opts.Timeout,
	}
}

// ProviderName returns the display name used in error payloads.
func (s *Service) ProviderName() string {
	return s.provider
}

// SystemPrompt returns the rendered persona instruction.
func (s *Service) SystemPrompt() string {
	return s.system
}

// Reply sends the message to the provider and returns the trimmed completion text.
func (s *Service) Reply(ctx context.Context, userMessage string) (string, error) {
	messages, err := s.template.Format(ctx, map[string]any{
		"system": s.system,
		"query":  userMessage,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	response, err := s.chatModel.Generate(callCtx, messages)
	if err != nil {
		timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
		return "", &ProviderError{Provider: s.provider, Err: err, Timeout: timedOut}
	}
	if response == nil {
		return "", &ProviderError{Provider: s.provider, Err: errors.New("empty completion")}
	}

	reply := strings.TrimSpace(response.Content)
	log.Printf("[ai] generated response persona=%s length=%d elapsed=%s", s.personaID, len(reply), time.Since(start).Round(time.Millisecond))
	return reply, nil
}

// Unavailable returns a chat model that fails every call with err. It keeps the
// relay serving when the provider client cannot be constructed at startup.
func Unavailable(err error) model.BaseChatModel {
	return unavailableModel{err: err}
}

type unavailableModel struct {
	err error
}

func (m unavailableModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	return nil, m.err
}

func (m unavailableModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, m.err
}
