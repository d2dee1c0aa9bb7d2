package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"winnow/internal/logging"
)

const defaultMaxConcurrency = 8

// Availability describes the readiness of an on-device model runtime.
type Availability int

const (
	AvailabilityUnavailable Availability = iota
	AvailabilityDownloadable
	AvailabilityDownloading
	AvailabilityAvailable
	AvailabilityUnsupported
)

func (a Availability) String() string {
	switch a {
	case AvailabilityUnavailable:
		return "unavailable"
	case AvailabilityDownloadable:
		return "downloadable"
	case AvailabilityDownloading:
		return "downloading"
	case AvailabilityAvailable:
		return "available"
	case AvailabilityUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("availability(%d)", int(a))
	}
}

// ModelSession is one isolated model invocation context. Sessions are cheap
// and single-use: the gateway creates one per text and always releases it.
type ModelSession interface {
	// Prompt sends a prompt constrained by a JSON-schema output contract
	// and returns the raw model payload.
	Prompt(ctx context.Context, prompt string, schema json.RawMessage) (string, error)
	Close() error
}

// ModelRuntime is the capability probe and session factory for an on-device
// model. It is injected at construction so the gateway never touches
// environment globals.
type ModelRuntime interface {
	Availability(ctx context.Context) (Availability, error)
	NewSession(ctx context.Context) (ModelSession, error)
}

// topicIDsSchema constrains the model to emit only an array of matched topic
// identifiers; no free-text parsing is needed.
var topicIDsSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"topic_ids": {
			"type": "array",
			"items": {"type": "string"}
		}
	},
	"required": ["topic_ids"]
}`)

// OnDevice classifies texts through a local model runtime, one invocation
// per text with bounded concurrency.
type OnDevice struct {
	runtime        ModelRuntime
	maxConcurrency int
	logger         *slog.Logger
}

// OnDeviceOption customizes the on-device classifier.
type OnDeviceOption func(*OnDevice)

// WithMaxConcurrency caps how many model invocations run at once within a
// single batch.
func WithMaxConcurrency(n int) OnDeviceOption {
	return func(o *OnDevice) {
		if n > 0 {
			o.maxConcurrency = n
		}
	}
}

// WithLogger attaches a logger for per-text failure reporting.
func WithLogger(logger *slog.Logger) OnDeviceOption {
	return func(o *OnDevice) {
		if logger != nil {
			o.logger = logger.With(logging.String("component", "ondevice-classifier"))
		}
	}
}

// NewOnDevice constructs an on-device classifier over the supplied runtime.
func NewOnDevice(runtime ModelRuntime, opts ...OnDeviceOption) *OnDevice {
	o := &OnDevice{
		runtime:        runtime,
		maxConcurrency: defaultMaxConcurrency,
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Classify implements Classifier. The runtime must report Available; any
// other state fails the batch. A failed single-text invocation degrades to
// an empty match for that text only.
func (o *OnDevice) Classify(ctx context.Context, texts []TextItem, topics []TopicItem) ([]Match, error) {
	if err := validateBatch(texts, topics); err != nil {
		return nil, err
	}

	availability, err := o.runtime.Availability(ctx)
	if err != nil {
		return nil, &BackendError{Message: "availability probe", Err: err}
	}
	if availability != AvailabilityAvailable {
		return nil, &BackendError{
			Message: fmt.Sprintf("model is %s", availability),
			Err:     ErrBackendUnavailable,
		}
	}

	matches := make([]Match, len(texts))
	sem := make(chan struct{}, o.maxConcurrency)
	var wg sync.WaitGroup

	for i, text := range texts {
		wg.Add(1)
		go func(i int, text TextItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			matches[i] = o.classifyOne(ctx, text, topics)
		}(i, text)
	}
	wg.Wait()

	return matches, nil
}

// classifyOne runs one isolated session for one text. Every failure path
// returns an empty match; the session is released on success and failure
// alike.
func (o *OnDevice) classifyOne(ctx context.Context, text TextItem, topics []TopicItem) Match {
	empty := Match{TextID: text.ID, TopicIDs: []string{}}

	session, err := o.runtime.NewSession(ctx)
	if err != nil {
		o.logger.Warn("open model session", logging.String("text_id", text.ID), logging.Error(err))
		return empty
	}
	defer func() {
		if err := session.Close(); err != nil {
			o.logger.Warn("close model session", logging.String("text_id", text.ID), logging.Error(err))
		}
	}()

	payload, err := session.Prompt(ctx, buildTopicPrompt(text.Text, topics), topicIDsSchema)
	if err != nil {
		o.logger.Warn("model invocation", logging.String("text_id", text.ID), logging.Error(err))
		return empty
	}

	var parsed struct {
		TopicIDs []string `json:"topic_ids"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		o.logger.Warn("parse model payload", logging.String("text_id", text.ID), logging.Error(err))
		return empty
	}

	known := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		known[topic.ID] = struct{}{}
	}
	ids := make([]string, 0, len(parsed.TopicIDs))
	for _, id := range parsed.TopicIDs {
		id = strings.TrimSpace(id)
		if _, ok := known[id]; ok {
			ids = append(ids, id)
		}
	}
	return Match{TextID: text.ID, TopicIDs: ids}
}

// topicPromptHeader captures the instructions sent with every on-device
// invocation. Keep updates centralized here so it is easy to tweak without
// hunting through call sites.
const topicPromptHeader = `You decide whether a video belongs to any topic on a block list.

You are given the video's title and channel, plus the block-list topics with their identifiers. Respond ONLY with a JSON object like {"topic_ids": ["p0"]} listing the identifiers of every topic the video clearly belongs to. Use {"topic_ids": []} when none apply. Do not invent identifiers.`

func buildTopicPrompt(text string, topics []TopicItem) string {
	var sb strings.Builder
	sb.WriteString(topicPromptHeader)
	sb.WriteString("\n\nTopics:\n")
	for _, topic := range topics {
		sb.WriteString("- ")
		sb.WriteString(topic.ID)
		sb.WriteString(": ")
		sb.WriteString(topic.Topic)
		sb.WriteByte('\n')
	}
	sb.WriteString("\nVideo:\n")
	sb.WriteString(text)
	return sb.String()
}
