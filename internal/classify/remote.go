package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultRemoteTimeout = 30 * time.Second

// RemoteConfig captures the runtime settings required to talk to the remote
// classification service.
type RemoteConfig struct {
	Endpoint       string
	Provider       string
	ModelName      string
	TimeoutSeconds int
}

// Remote classifies batches through an HTTP classification service.
type Remote struct {
	cfg        RemoteConfig
	httpClient *http.Client
}

// RemoteOption customizes the remote classifier.
type RemoteOption func(*Remote)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *Remote) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// NewRemote constructs a remote classifier from the supplied configuration.
func NewRemote(cfg RemoteConfig, opts ...RemoteOption) *Remote {
	timeout := defaultRemoteTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	remote := &Remote{
		cfg: RemoteConfig{
			Endpoint:       strings.TrimSpace(cfg.Endpoint),
			Provider:       strings.TrimSpace(cfg.Provider),
			ModelName:      strings.TrimSpace(cfg.ModelName),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(remote)
	}
	if remote.httpClient == nil {
		remote.httpClient = &http.Client{Timeout: defaultRemoteTimeout}
	}
	return remote
}

type classifyRequest struct {
	Texts     []TextItem  `json:"texts"`
	Topics    []TopicItem `json:"topics"`
	Provider  string      `json:"provider"`
	ModelName string      `json:"model_name"`
}

type classifyResponse struct {
	Results []Match `json:"results"`
}

type classifyErrorResponse struct {
	Detail []struct {
		Msg string `json:"msg"`
	} `json:"detail"`
}

// Classify implements Classifier over the HTTP wire contract.
func (r *Remote) Classify(ctx context.Context, texts []TextItem, topics []TopicItem) ([]Match, error) {
	if err := validateBatch(texts, topics); err != nil {
		return nil, err
	}

	payload := classifyRequest{
		Texts:     texts,
		Topics:    topics,
		Provider:  r.cfg.Provider,
		ModelName: r.cfg.ModelName,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("classify request: encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("classify request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &BackendError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Message: "read body", Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &BackendError{Message: serverMessage(resp.StatusCode, body)}
	}

	var decoded classifyResponse
	if err := json.Unmarshal(body, &decoded); err != nil || decoded.Results == nil {
		// A malformed success body degrades to "no matches" so the
		// pipeline stays live.
		return emptyMatches(texts), nil
	}
	for i := range decoded.Results {
		if decoded.Results[i].TopicIDs == nil {
			decoded.Results[i].TopicIDs = []string{}
		}
	}
	return decoded.Results, nil
}

// serverMessage extracts the server-reported error detail, concatenating
// multiple messages into one.
func serverMessage(status int, body []byte) string {
	var decoded classifyErrorResponse
	if err := json.Unmarshal(body, &decoded); err == nil && len(decoded.Detail) > 0 {
		msgs := make([]string, 0, len(decoded.Detail))
		for _, d := range decoded.Detail {
			if trimmed := strings.TrimSpace(d.Msg); trimmed != "" {
				msgs = append(msgs, trimmed)
			}
		}
		if len(msgs) > 0 {
			return fmt.Sprintf("http %d: %s", status, strings.Join(msgs, "; "))
		}
	}
	return fmt.Sprintf("http %d: %s", status, strings.TrimSpace(string(body)))
}
