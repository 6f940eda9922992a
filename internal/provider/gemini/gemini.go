package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Config describes the Gemini model used for completions.
type Config struct {
	APIKey      string
	Model       string
	Temperature *float32
	TopP        *float32
	MaxTokens   *int
}

// ChatModel adapts a Gemini client to the eino chat model interface.
// The client is shared; a GenerativeModel is built per call because it carries
// the system instruction.
type ChatModel struct {
	client *genai.Client
	cfg    Config
}

var _ model.BaseChatModel = (*ChatModel)(nil)

// NewChatModel creates the Gemini client once for the process.
func NewChatModel(ctx context.Context, cfg Config) (*ChatModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &ChatModel{client: client, cfg: cfg}, nil
}

// Close releases the underlying client.
func (m *ChatModel) Close() error {
	return m.client.Close()
}

// Generate sends the conversation and returns the text of the first candidate.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{
		Model:       &m.cfg.Model,
		Temperature: m.cfg.Temperature,
		TopP:        m.cfg.TopP,
		MaxTokens:   m.cfg.MaxTokens,
	}, opts...)

	if options.MaxTokens != nil && (*options.MaxTokens <= 0 || *options.MaxTokens > math.MaxInt32) {
		return nil, fmt.Errorf("gemini max tokens out of range: %d", *options.MaxTokens)
	}

	system, history, last, err := splitConversation(input)
	if err != nil {
		return nil, err
	}

	gm := m.client.GenerativeModel(*options.Model)
	if options.Temperature != nil {
		gm.SetTemperature(*options.Temperature)
	}
	if options.TopP != nil {
		gm.SetTopP(*options.TopP)
	}
	if options.MaxTokens != nil {
		gm.SetMaxOutputTokens(int32(*options.MaxTokens))
	}
	if system != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := gm.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, err
	}

	text := extractText(resp)
	out := schema.AssistantMessage(text, nil)
	if len(resp.Candidates) > 0 {
		out.ResponseMeta = &schema.ResponseMeta{FinishReason: resp.Candidates[0].FinishReason.String()}
	}
	if resp.UsageMetadata != nil {
		if out.ResponseMeta == nil {
			out.ResponseMeta = &schema.ResponseMeta{}
		}
		out.ResponseMeta.Usage = &schema.TokenUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// Stream runs Generate and yields the completion as a single chunk.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// splitConversation folds system messages into one instruction and maps the
// remaining turns onto Gemini roles. The final turn must come from the user.
func splitConversation(input []*schema.Message) (string, []*genai.Content, *genai.Content, error) {
	var system []string
	contents := make([]*genai.Content, 0, len(input))

	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			system = append(system, msg.Content)
		case schema.User:
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		case schema.Assistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}

	if len(contents) == 0 {
		return "", nil, nil, errors.New("gemini request has no user message")
	}
	last := contents[len(contents)-1]
	if last.Role != "user" {
		return "", nil, nil, errors.New("gemini request must end with a user message")
	}

	return strings.Join(system, "\n\n"), contents[:len(contents)-1], last, nil
}

// extractText returns the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}
