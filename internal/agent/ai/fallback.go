package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/neboloop/cell/internal/logging"
)

// DefaultCooldown is how long a provider that failed on rate limits or
// credentials is skipped.
const DefaultCooldown = time.Minute

// FallbackProvider tries each provider in order and streams from the first
// one that produces a response without an error. Providers rejected for rate
// limiting or auth are skipped until their cooldown ends, unless every
// provider is cooling down.
type FallbackProvider struct {
	providers []Provider
	cooldown  time.Duration

	mu        sync.Mutex
	coolUntil map[int]time.Time
}

// NewFallbackProvider wraps providers in priority order. Nil entries are skipped.
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	f := &FallbackProvider{
		cooldown:  DefaultCooldown,
		coolUntil: make(map[int]time.Time),
	}
	for _, p := range providers {
		if p != nil {
			f.providers = append(f.providers, p)
		}
	}
	return f
}

// ID joins the wrapped provider IDs.
func (f *FallbackProvider) ID() string {
	ids := make([]string, 0, len(f.providers))
	for _, p := range f.providers {
		ids = append(ids, p.ID())
	}
	return "fallback(" + strings.Join(ids, ",") + ")"
}

// Providers returns the wrapped providers in priority order.
func (f *FallbackProvider) Providers() []Provider {
	return append([]Provider(nil), f.providers...)
}

// SetCooldown changes how long failing providers are skipped. Zero disables it.
func (f *FallbackProvider) SetCooldown(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cooldown = d
}

// order returns provider indexes to try: available ones first, then those
// still cooling down.
func (f *FallbackProvider) order() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	ready := make([]int, 0, len(f.providers))
	var cooling []int
	for i := range f.providers {
		if until, ok := f.coolUntil[i]; ok && now.Before(until) {
			cooling = append(cooling, i)
			continue
		}
		delete(f.coolUntil, i)
		ready = append(ready, i)
	}
	return append(ready, cooling...)
}

func (f *FallbackProvider) markFailed(i int, err error) {
	if !IsRateLimitOrAuth(err) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cooldown > 0 {
		f.coolUntil[i] = time.Now().Add(f.cooldown)
	}
}

func (f *FallbackProvider) markHealthy(i int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.coolUntil, i)
}

// Stream buffers each attempt so a provider failing mid-stream can still be
// replaced by the next one. The returned channel replays the winning attempt.
func (f *FallbackProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error) {
	if len(f.providers) == 0 {
		return nil, ErrNoProvider
	}

	var errs []error
	for _, i := range f.order() {
		p := f.providers[i]
		text, err := Complete(ctx, p, req)
		if err != nil {
			logging.Warnf("[Fallback] %s failed (%s): %v", p.ID(), ClassifyErrorReason(err), err)
			errs = append(errs, err)
			f.markFailed(i, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		f.markHealthy(i)

		events := make(chan StreamEvent, 2)
		events <- StreamEvent{Type: EventTypeText, Text: text}
		events <- StreamEvent{Type: EventTypeDone}
		close(events)
		return events, nil
	}

	return nil, fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}
