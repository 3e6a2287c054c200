package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog"
)

const (
	defaultChatModel = "gpt-4o-mini"
	defaultMaxTokens = 256
	chatTemperature  = 0.7
	requestTimeout   = 40 * time.Second

	// Only this much of the last message is echoed back by the mock and
	// fallback replies.
	lastMessageLimit = 400

	mockPrefix     = "(Mock) You said: "
	fallbackPrefix = "(Fallback) You said: "

	systemPrimer = "You are the helpful PlyCraft assistant. Provide concise, accurate answers " +
		"about products, materials, sizing, care, and brand information. If unsure, " +
		"say you don't have that data. Never invent product specs."

	emptyReplyApology = "I'm sorry, I couldn't generate a response just now."
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

var (
	ErrEmptyMessages = errors.New("messages cannot be empty")
	ErrInvalidRole   = errors.New("role must be one of user, assistant or system")
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type ChatResponse struct {
	Reply       string `json:"reply"`
	UsageTokens *int64 `json:"usage_tokens,omitempty"`
	Model       string `json:"model"`
}

// ChatService proxies conversations to the OpenAI chat-completions API.
// Without an API key it answers with a deterministic local mock, and any
// upstream failure degrades to a fallback reply instead of an error, so the
// chat widget never takes the surrounding page down with it.
type ChatService struct {
	client openai.Client
	apiKey string
	model  string
	logger zerolog.Logger
}

// NewChatService builds the proxy. Extra request options are appended to
// the defaults, which lets tests point the client at a local server.
func NewChatService(apiKey, model string, logger zerolog.Logger, clientOpts ...option.RequestOption) *ChatService {
	if model == "" {
		model = defaultChatModel
	}
	opts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(requestTimeout),
		option.WithMaxRetries(0),
	}, clientOpts...)

	return &ChatService{
		client: openai.NewClient(opts...),
		apiKey: apiKey,
		model:  model,
		logger: logger,
	}
}

// Complete validates the conversation and produces a reply. The only errors
// it returns are validation errors; every upstream failure resolves to a
// fallback response.
func (s *ChatService) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, ErrEmptyMessages
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleUser, RoleAssistant, RoleSystem:
		default:
			return nil, fmt.Errorf("%w, got %q", ErrInvalidRole, m.Role)
		}
	}

	// Taken from the submitted list, before any primer injection.
	lastUser := truncate(req.Messages[len(req.Messages)-1].Content, lastMessageLimit)

	// No key? Answer locally so the UI still works.
	if s.apiKey == "" {
		return canned(mockPrefix, lastUser, "mock"), nil
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    forwardMessages(req.Messages),
		Model:       openai.ChatModel(s.model),
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(chatTemperature),
	})
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			s.logger.Error().
				Int("status", apierr.StatusCode).
				Str("body", truncate(apierr.Error(), 200)).
				Msg("chat upstream returned an error status")
		} else {
			s.logger.Error().Err(err).Msg("chat upstream call failed")
		}
		return canned(fallbackPrefix, lastUser, "fallback-mock"), nil
	}

	var reply string
	if len(completion.Choices) > 0 {
		reply = completion.Choices[0].Message.Content
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = emptyReplyApology
	}

	resp := &ChatResponse{Reply: reply, Model: s.model}
	if completion.Usage.TotalTokens > 0 {
		total := completion.Usage.TotalTokens
		resp.UsageTokens = &total
	}
	return resp, nil
}

// forwardMessages converts the conversation for the provider, prepending
// the PlyCraft primer when the caller supplied no system message of their
// own. Submitted order is preserved.
func forwardMessages(messages []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	hasSystem := false
	for _, m := range messages {
		if m.Role == RoleSystem {
			hasSystem = true
			break
		}
	}

	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if !hasSystem {
		out = append(out, openai.SystemMessage(systemPrimer))
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func canned(prefix, lastUser, model string) *ChatResponse {
	reply := prefix + lastUser
	usage := int64(len(strings.Fields(reply)))
	return &ChatResponse{Reply: reply, UsageTokens: &usage, Model: model}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
