package ai

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/neboloop/cell/internal/logging"
)

const (
	// DefaultOllamaURL is the local Ollama daemon address.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultOllamaModel is used when the config does not name a model.
	DefaultOllamaModel = "qwen3:4b"
)

// OllamaProvider implements the Provider interface for Ollama (local models) using the official SDK
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		parsedURL, _ = url.Parse(DefaultOllamaURL)
	}

	httpClient := &http.Client{
		Timeout: 2 * time.Minute, // Local inference can be slow on first load
	}

	return &OllamaProvider{
		client: api.NewClient(parsedURL, httpClient),
		model:  model,
	}
}

// ID returns the provider identifier
func (p *OllamaProvider) ID() string {
	return "ollama"
}

// Stream sends a request to Ollama and streams the response
func (p *OllamaProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error) {
	resultCh := make(chan StreamEvent, 100)

	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	stream := true
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: p.buildMessages(req),
		Stream:   &stream,
	}

	if req.Temperature > 0 || req.MaxTokens > 0 {
		chatReq.Options = make(map[string]any)
		if req.Temperature > 0 {
			chatReq.Options["temperature"] = req.Temperature
		}
		if req.MaxTokens > 0 {
			chatReq.Options["num_predict"] = req.MaxTokens
		}
	}

	logging.Debugf("[Ollama] Sending request: model=%s messages=%d max_tokens=%d",
		model, len(chatReq.Messages), req.MaxTokens)

	go func() {
		defer close(resultCh)

		done := false
		err := p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				resultCh <- StreamEvent{
					Type: EventTypeText,
					Text: resp.Message.Content,
				}
			}
			if resp.Done {
				done = true
				resultCh <- StreamEvent{Type: EventTypeDone}
			}
			return nil
		})

		if err != nil {
			logging.Errorf("[Ollama] Stream error: %v", err)
			resultCh <- StreamEvent{
				Type:  EventTypeError,
				Error: err,
			}
			return
		}
		if !done {
			resultCh <- StreamEvent{Type: EventTypeDone}
		}
	}()

	return resultCh, nil
}

// buildMessages converts request messages to Ollama format
func (p *OllamaProvider) buildMessages(req *ChatRequest) []api.Message {
	messages := make([]api.Message, 0, len(req.Messages)+1)

	if req.System != "" {
		messages = append(messages, api.Message{
			Role:    "system",
			Content: req.System,
		})
	}

	for _, msg := range req.Messages {
		messages = append(messages, api.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return messages
}

// CheckOllamaAvailable reports whether an Ollama daemon answers at baseURL.
func CheckOllamaAvailable(baseURL string) bool {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/tags")
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
