package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoProvider is returned when Complete is called without a provider.
var ErrNoProvider = errors.New("no provider configured")

// Complete sends req to p and collects the streamed text into a single string.
// An error event or a closed context aborts collection with that error.
func Complete(ctx context.Context, p Provider, req *ChatRequest) (string, error) {
	if p == nil {
		return "", ErrNoProvider
	}

	events, err := p.Stream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.ID(), err)
	}

	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			go drain(events)
			return "", ctx.Err()

		case event, ok := <-events:
			if !ok {
				return sb.String(), nil
			}
			switch event.Type {
			case EventTypeText:
				sb.WriteString(event.Text)
			case EventTypeError:
				go drain(events)
				if event.Error == nil {
					return "", fmt.Errorf("%s: stream error", p.ID())
				}
				return "", fmt.Errorf("%s: %w", p.ID(), event.Error)
			case EventTypeDone:
				go drain(events)
				return sb.String(), nil
			}
		}
	}
}

// drain consumes the rest of a stream so the producing goroutine can exit.
func drain(events <-chan StreamEvent) {
	for range events {
	}
}
