package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"github.com/imkonsowa/citiassist/config"
	"github.com/imkonsowa/citiassist/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	ProviderGoogleAI = "googleai"
	ProviderOllama   = "ollama"

	defaultMaxTokens = 8192
)

type CallOptions struct {
	StructuredOutput bool
	StreamingFunc    func(ctx context.Context, chunk []byte) error
}

type CallOption func(*CallOptions)

// WithStructuredOutput asks the provider for JSON output.
func WithStructuredOutput() CallOption {
	return func(o *CallOptions) {
		o.StructuredOutput = true
	}
}

func WithStreamingFunc(fn func(ctx context.Context, chunk []byte) error) CallOption {
	return func(o *CallOptions) {
		o.StreamingFunc = fn
	}
}

// Invoker is the boundary to the external generative model. A declined
// generation is a reply with HasContent=false, not an error.
type Invoker interface {
	Generate(ctx context.Context, prompt Prompt, options ...CallOption) (*models.ModelReply, error)
}

// LLMInvoker sends prompts to a langchaingo model with a system instruction
// fixed at construction.
type LLMInvoker struct {
	llm               llms.Model
	systemInstruction string
	temperature       float64
}

func NewLLMInvoker(llm llms.Model, systemInstruction string, temperature float64) *LLMInvoker {
	return &LLMInvoker{
		llm:               llm,
		systemInstruction: systemInstruction,
		temperature:       temperature,
	}
}

func (l *LLMInvoker) Generate(ctx context.Context, prompt Prompt, options ...CallOption) (*models.ModelReply, error) {
	opts := CallOptions{StructuredOutput: prompt.StructuredOutput}
	for _, opt := range options {
		opt(&opts)
	}

	parts := []llms.ContentPart{llms.TextPart(prompt.Text)}
	if prompt.Image != nil {
		parts = append(parts, llms.BinaryPart(prompt.Image.MIMEType, prompt.Image.Data))
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(l.systemInstruction)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: parts,
		},
	}

	callOpts := []llms.CallOption{llms.WithTemperature(l.temperature)}
	if opts.StructuredOutput {
		callOpts = append(callOpts, llms.WithJSONMode())
	}
	if opts.StreamingFunc != nil {
		callOpts = append(callOpts, llms.WithStreamingFunc(opts.StreamingFunc))
	}

	content, err := l.llm.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		if reason, ok := declineReason(err); ok {
			return &models.ModelReply{BlockReason: reason}, nil
		}

		return nil, err
	}

	if len(content.Choices) == 0 {
		return &models.ModelReply{BlockReason: "no choices in response"}, nil
	}

	choice := content.Choices[0]
	if choice.Content == "" {
		reason := choice.StopReason
		if reason == "" {
			reason = "empty response"
		}

		return &models.ModelReply{BlockReason: reason}, nil
	}

	return &models.ModelReply{HasContent: true, Text: choice.Content}, nil
}

func declineReason(err error) (string, bool) {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return blocked.Error(), true
	}

	if errors.Is(err, googleai.ErrNoContentInResponse) {
		return err.Error(), true
	}

	return "", false
}

// unconfiguredInvoker lets the server start without a key; every call fails.
type unconfiguredInvoker struct{}

func (unconfiguredInvoker) Generate(context.Context, Prompt, ...CallOption) (*models.ModelReply, error) {
	return nil, ErrMissingAPIKey
}

// NewInvoker builds the process-wide model client for the configured
// provider.
func NewInvoker(ctx context.Context, cfg *config.Config) (Invoker, error) {
	switch cfg.LLM.Provider {
	case ProviderGoogleAI, "":
		if cfg.LLM.APIKey == "" {
			slog.Warn("GEMINI_API_KEY not found in environment; model calls will fail")

			return unconfiguredInvoker{}, nil
		}

		llm, err := googleai.New(
			ctx,
			googleai.WithAPIKey(cfg.LLM.APIKey),
			googleai.WithDefaultModel(cfg.LLM.Model),
			googleai.WithDefaultMaxTokens(defaultMaxTokens),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create googleai client: %w", err)
		}

		slog.Info("model client ready", "provider", ProviderGoogleAI, "model", cfg.LLM.Model)

		return NewLLMInvoker(llm, SystemInstruction, cfg.LLM.Temperature), nil

	case ProviderOllama:
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.Ollama.Address()),
			ollama.WithModel(cfg.Ollama.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}

		slog.Info("model client ready", "provider", ProviderOllama, "model", cfg.Ollama.Model, "server", cfg.Ollama.Address())

		return NewLLMInvoker(llm, SystemInstruction, cfg.LLM.Temperature), nil

	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
