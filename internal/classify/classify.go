package classify

import (
	"context"
	"fmt"
	"log/slog"

	"winnow/internal/config"
)

// TextItem is one classification unit. IDs are synthetic, generated by the
// caller (positional "t{index}" in the scan pipeline) and echoed back by
// every backend.
type TextItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// TopicItem is one excluded topic with its caller-assigned ID ("p{index}").
type TopicItem struct {
	ID    string `json:"id"`
	Topic string `json:"topic"`
}

// Match reports which topics one text matched. TopicIDs is empty when no
// excluded topic applies.
type Match struct {
	TextID   string   `json:"text_id"`
	TopicIDs []string `json:"topic_ids"`
}

// Classifier is the contract every backend implements.
type Classifier interface {
	Classify(ctx context.Context, texts []TextItem, topics []TopicItem) ([]Match, error)
}

// Func adapts a plain function to the Classifier interface. Used by tests to
// script backend behavior.
type Func func(ctx context.Context, texts []TextItem, topics []TopicItem) ([]Match, error)

// Classify implements Classifier.
func (f Func) Classify(ctx context.Context, texts []TextItem, topics []TopicItem) ([]Match, error) {
	return f(ctx, texts, topics)
}

// validateBatch enforces the shared input contract: both arrays non-empty.
// Violations are caller bugs and fail before any backend activity.
func validateBatch(texts []TextItem, topics []TopicItem) error {
	if len(texts) == 0 {
		return &InvalidArgumentError{Reason: "texts must not be empty"}
	}
	if len(topics) == 0 {
		return &InvalidArgumentError{Reason: "topics must not be empty"}
	}
	return nil
}

// emptyMatches produces one empty match per input text, preserving order.
// Used when a backend response is unusable but the pipeline should stay live.
func emptyMatches(texts []TextItem) []Match {
	matches := make([]Match, len(texts))
	for i, text := range texts {
		matches[i] = Match{TextID: text.ID, TopicIDs: []string{}}
	}
	return matches
}

// FromConfig builds the configured backend.
func FromConfig(cfg *config.Config, logger *slog.Logger) (Classifier, error) {
	switch cfg.Classifier.Backend {
	case "remote":
		return NewRemote(RemoteConfig{
			Endpoint:       cfg.Classifier.Endpoint,
			Provider:       cfg.Classifier.Provider,
			ModelName:      cfg.Classifier.ModelName,
			TimeoutSeconds: cfg.Classifier.TimeoutSeconds,
		}), nil
	case "ondevice":
		runtime := NewOllamaRuntime(cfg.Classifier.RuntimeURL, cfg.Classifier.RuntimeModel)
		return NewOnDevice(runtime,
			WithMaxConcurrency(cfg.Classifier.MaxConcurrency),
			WithLogger(logger),
		), nil
	case "mock":
		return Substring{}, nil
	default:
		return nil, fmt.Errorf("classifier backend: unsupported value %q", cfg.Classifier.Backend)
	}
}
