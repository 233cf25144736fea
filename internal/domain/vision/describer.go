package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"flickai-server-go/internal/platform/config"
	"flickai-server-go/internal/platform/logging"

	"github.com/sashabaranov/go-openai"
)

// ErrRateLimited signals that the remote vision provider rejected the call
// with a quota error. The pipeline treats it as an ordinary fallthrough to
// OCR rather than a failure worth surfacing.
var ErrRateLimited = errors.New("vision provider rate limited")

// describeInstruction is the fixed request sent alongside every screenshot.
const describeInstruction = `Analyze this screenshot in detail. Describe:
1. What application/interface is shown
2. Any visible text, code, or errors
3. UI elements, buttons, layout
4. Anything notable or problematic

Be specific and thorough.`

// Describer produces a holistic textual description of a screenshot.
// An empty description with a nil error means the provider had nothing
// to say and the caller should fall through to the next stage.
type Describer interface {
	Describe(ctx context.Context, base64Image, format string) (string, error)
}

// OpenAIDescriber calls an OpenAI-compatible multimodal endpoint.
type OpenAIDescriber struct {
	client *openai.Client
	config config.VisionConfig
	logger *logging.Logger
}

// NewOpenAIDescriber builds a describer from vision config. The API key
// must be present; credential-free deployments skip the remote stage
// entirely instead of constructing a describer.
func NewOpenAIDescriber(cfg config.VisionConfig, logger *logging.Logger) (*OpenAIDescriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vision API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIDescriber{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		logger: logger,
	}, nil
}

// Describe issues one request with the pipeline's hard timeout already
// applied via ctx. Low temperature and a capped output length keep the
// description factual and cheap.
func (d *OpenAIDescriber) Describe(ctx context.Context, base64Image, format string) (string, error) {
	if format == "" {
		format = "png"
	}

	req := openai.ChatCompletionRequest{
		Model:       d.config.ModelName,
		MaxTokens:   d.config.MaxTokens,
		Temperature: float32(d.config.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: describeInstruction,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: fmt.Sprintf("data:image/%s;base64,%s", format, base64Image),
						},
					},
				},
			},
		},
	}

	resp, err := d.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if statusCodeOf(err) == http.StatusTooManyRequests {
			return "", ErrRateLimited
		}
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// statusCodeOf digs the HTTP status out of go-openai error types.
func statusCodeOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
