package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/neboloop/cell/internal/logging"
)

// DefaultGeminiModel is used when the config does not name a model.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider implements the Provider interface for Google Gemini
type GeminiProvider struct {
	apiKey string
	model  string
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{
		apiKey: apiKey,
		model:  model,
	}
}

// ID returns the provider identifier
func (p *GeminiProvider) ID() string {
	return "gemini"
}

// Stream sends a request to Gemini and streams the response.
// The SDK client is bound to a context, so one is created per request.
func (p *GeminiProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error) {
	history, last := p.buildContents(req.Messages)
	if last == nil {
		return nil, fmt.Errorf("failed to build contents: no user turn")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	gm := client.GenerativeModel(model)
	if req.MaxTokens > 0 {
		gm.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.Temperature > 0 {
		gm.SetTemperature(float32(req.Temperature))
	}
	if req.System != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	cs := gm.StartChat()
	cs.History = history

	logging.Debugf("[Gemini] Sending request: model=%s history=%d max_tokens=%d",
		model, len(history), req.MaxTokens)

	resultCh := make(chan StreamEvent, 100)
	go func() {
		defer close(resultCh)
		defer client.Close()

		iter := cs.SendMessageStream(ctx, last.Parts...)
		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				logging.Errorf("[Gemini] Stream error: %v", err)
				resultCh <- StreamEvent{Type: EventTypeError, Error: err}
				return
			}
			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if text, ok := part.(genai.Text); ok && text != "" {
						resultCh <- StreamEvent{Type: EventTypeText, Text: string(text)}
					}
				}
			}
		}

		resultCh <- StreamEvent{Type: EventTypeDone}
	}()

	return resultCh, nil
}

// buildContents splits messages into chat history and the final user turn.
// Gemini names the assistant role "model"; system turns are dropped here.
func (p *GeminiProvider) buildContents(msgs []Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	for _, msg := range msgs {
		if msg.Content == "" {
			continue
		}
		var role string
		switch msg.Role {
		case "user":
			role = "user"
		case "assistant":
			role = "model"
		default:
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	if len(contents) == 0 || contents[len(contents)-1].Role != "user" {
		return contents, nil
	}
	return contents[:len(contents)-1], contents[len(contents)-1]
}
