// Package aitest provides an in-memory ai.Provider for tests.
package aitest

import (
	"context"
	"sync"

	"github.com/neboloop/cell/internal/agent/ai"
)

// Provider answers every request with Text, or fails with Err. Requests are
// recorded for inspection.
type Provider struct {
	Name string
	Text string
	Err  error

	mu       sync.Mutex
	requests []*ai.ChatRequest
}

func New(name, text string) *Provider {
	return &Provider{Name: name, Text: text}
}

func (p *Provider) ID() string { return p.Name }

func (p *Provider) Stream(ctx context.Context, req *ai.ChatRequest) (<-chan ai.StreamEvent, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	text, err := p.Text, p.Err
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	ch := make(chan ai.StreamEvent, 2)
	ch <- ai.StreamEvent{Type: ai.EventTypeText, Text: text}
	ch <- ai.StreamEvent{Type: ai.EventTypeDone}
	close(ch)
	return ch, nil
}

// SetText changes the reply for later requests.
func (p *Provider) SetText(text string) {
	p.mu.Lock()
	p.Text = text
	p.mu.Unlock()
}

// Requests returns the requests seen so far.
func (p *Provider) Requests() []*ai.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*ai.ChatRequest(nil), p.requests...)
}

// LastRequest returns the most recent request, or nil.
func (p *Provider) LastRequest() *ai.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return nil
	}
	return p.requests[len(p.requests)-1]
}
