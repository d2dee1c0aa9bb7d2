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

const defaultOllamaTimeout = 60 * time.Second

// OllamaRuntime implements ModelRuntime against an Ollama-compatible local
// model server. Availability maps the server's state onto the probe enum:
// unreachable server is unavailable, a missing model is downloadable, an
// in-flight pull is downloading, and a listed model is available.
type OllamaRuntime struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// OllamaOption customizes the runtime.
type OllamaOption func(*OllamaRuntime)

// WithOllamaHTTPClient overrides the default HTTP client.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(r *OllamaRuntime) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// NewOllamaRuntime constructs a runtime for the given server and model.
func NewOllamaRuntime(baseURL, model string, opts ...OllamaOption) *OllamaRuntime {
	runtime := &OllamaRuntime{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		model:      strings.TrimSpace(model),
		httpClient: &http.Client{Timeout: defaultOllamaTimeout},
	}
	for _, opt := range opts {
		opt(runtime)
	}
	return runtime
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type ollamaPSResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Availability probes the server's model list.
func (r *OllamaRuntime) Availability(ctx context.Context) (Availability, error) {
	if r.model == "" {
		return AvailabilityUnsupported, nil
	}

	var tags ollamaTagsResponse
	if err := r.getJSON(ctx, "/api/tags", &tags); err != nil {
		return AvailabilityUnavailable, nil //nolint:nilerr // unreachable server is a state, not an error
	}
	for _, m := range tags.Models {
		if r.matchesModel(m.Name) {
			return AvailabilityAvailable, nil
		}
	}

	// The model is absent from the library listing; a running pull shows
	// up in the process list first.
	var ps ollamaPSResponse
	if err := r.getJSON(ctx, "/api/ps", &ps); err == nil {
		for _, m := range ps.Models {
			if r.matchesModel(m.Name) {
				return AvailabilityDownloading, nil
			}
		}
	}
	return AvailabilityDownloadable, nil
}

// matchesModel compares a server-listed model name against the configured
// one. The server reports untagged pulls as "name:latest", so an untagged
// configured name matches that form too.
func (r *OllamaRuntime) matchesModel(listed string) bool {
	if listed == r.model {
		return true
	}
	return !strings.Contains(r.model, ":") && listed == r.model+":latest"
}

// NewSession opens a single-use chat session.
func (r *OllamaRuntime) NewSession(ctx context.Context) (ModelSession, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return &ollamaSession{runtime: r}, nil
}

func (r *OllamaRuntime) getJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("ollama request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama request: http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

type ollamaSession struct {
	runtime *OllamaRuntime
	closed  bool
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Format   json.RawMessage `json:"format,omitempty"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Error   string        `json:"error"`
}

func (s *ollamaSession) Prompt(ctx context.Context, prompt string, schema json.RawMessage) (string, error) {
	if s.closed {
		return "", fmt.Errorf("ollama session: already closed")
	}
	payload := ollamaChatRequest{
		Model:    s.runtime.model,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Format:   schema,
		Stream:   false,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ollama chat: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.runtime.baseURL+"/api/chat", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("ollama chat: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.runtime.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama chat: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama chat: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var decoded ollamaChatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("ollama chat: decode response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("ollama chat: api error: %s", decoded.Error)
	}
	return strings.TrimSpace(decoded.Message.Content), nil
}

func (s *ollamaSession) Close() error {
	s.closed = true
	return nil
}
