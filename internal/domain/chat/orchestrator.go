package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"flickai-server-go/internal/domain/intent"
	"flickai-server-go/internal/domain/prompt"
	"flickai-server-go/internal/domain/vision"
	"flickai-server-go/internal/platform/config"
	platformerrors "flickai-server-go/internal/platform/errors"
	"flickai-server-go/internal/platform/logging"
)

// ErrRateLimited reports provider quota exhaustion on the chat endpoint.
// Unlike vision there is no fallback model; the caller decides what to do.
var ErrRateLimited = errors.New("chat provider rate limited")

// chatRequest is the outgoing completion request. Built fresh per call and
// never mutated after being sent.
type chatRequest struct {
	Model               string    `json:"model"`
	Messages            []Message `json:"messages"`
	Stream              bool      `json:"stream"`
	Temperature         float64   `json:"temperature"`
	TopP                float64   `json:"top_p"`
	MaxCompletionTokens int       `json:"max_completion_tokens"`
}

// completionResponse is the non-streaming response shape.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Orchestrator drives one chat completion per Send call: it classifies
// intent, composes the system prompt, issues the request, and decodes the
// incremental response. Calls are independent; each owns its accumulator
// and its connection, so concurrent Sends never share mutable state. No
// retries happen here: retrying a partially delivered stream would
// duplicate content the caller has already shown.
type Orchestrator struct {
	config     config.ChatConfig
	httpClient *http.Client
	logger     *logging.Logger
}

func NewOrchestrator(cfg config.ChatConfig, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		config: cfg,
		// No client-level timeout: the stream lives as long as the model
		// talks, and cancellation is caller-driven through ctx.
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Send runs one conversation turn. onDelta receives fragments in strict
// arrival order before Send returns; the returned string is their
// concatenation. With no API key configured it returns a labeled demo
// response without touching the network. On mid-stream failure the
// accumulated text is returned together with ErrStreamInterrupted.
func (o *Orchestrator) Send(ctx context.Context, conversation []Message, onDelta OnDelta, visionContext vision.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	lastUser := LastUserText(conversation)
	hasVision := visionContext.Usable()

	if o.config.APIKey == "" {
		o.logger.WarnTag("Chat", "no API key configured, serving demo response")
		text := demoResponse(lastUser, hasVision)
		if onDelta != nil {
			onDelta(text)
		}
		return text, nil
	}

	category := intent.Classify(lastUser, hasVision)

	contextText := ""
	if hasVision {
		contextText = visionContext.Text
	}
	systemPrompt := prompt.Compose(category, contextText)

	messages := make([]Message, 0, len(conversation)+1)
	messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	messages = append(messages, conversation...)

	request := chatRequest{
		Model:               o.config.ModelName,
		Messages:            messages,
		Stream:              onDelta != nil,
		Temperature:         o.config.Temperature,
		TopP:                o.config.TopP,
		MaxCompletionTokens: o.config.MaxTokens,
	}

	o.logger.DebugTag("Chat", "sending completion request: category=%s messages=%d stream=%v vision=%v",
		category, len(messages), request.Stream, hasVision)

	resp, err := o.post(ctx, request)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", o.statusError(resp)
	}

	if !request.Stream {
		var decoded completionResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return "", platformerrors.Wrap(platformerrors.KindChat, "chat.send", "decode completion response", err)
		}
		if len(decoded.Choices) == 0 {
			return "", platformerrors.New(platformerrors.KindChat, "chat.send", "completion response carried no choices")
		}
		return decoded.Choices[0].Message.Content, nil
	}

	text, err := decodeStream(resp.Body, onDelta)
	if err != nil {
		o.logger.WarnTag("Chat", "stream interrupted after %d chars", len(text))
		return text, err
	}
	return text, nil
}

func (o *Orchestrator) post(ctx context.Context, request chatRequest) (*http.Response, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindChat, "chat.send", "marshal request", err)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimSuffix(o.config.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindChat, "chat.send", "create request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	req.Header.Set("User-Agent", "FlickAI-Server/1.0")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindChat, "chat.send", "chat endpoint unreachable", err)
	}
	return resp, nil
}

func (o *Orchestrator) statusError(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return platformerrors.Wrap(platformerrors.KindChat, "chat.send", "provider rejected request", ErrRateLimited)
	}
	return platformerrors.New(platformerrors.KindChat, "chat.send",
		fmt.Sprintf("chat endpoint returned status %d", resp.StatusCode))
}
