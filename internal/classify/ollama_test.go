package classify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func ollamaServer(t *testing.T, tags, ps string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(tags))
		case "/api/ps":
			_, _ = w.Write([]byte(ps))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOllamaAvailabilityMatchesModelNames(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		tags       string
		ps         string
		want       Availability
	}{
		{
			name:       "exact tag match",
			configured: "llama3.2:3b",
			tags:       `{"models":[{"name":"llama3.2:3b"}]}`,
			want:       AvailabilityAvailable,
		},
		{
			name:       "untagged name matches latest",
			configured: "llama3.2",
			tags:       `{"models":[{"name":"llama3.2:latest"}]}`,
			want:       AvailabilityAvailable,
		},
		{
			name:       "tagged name does not match latest",
			configured: "llama3.2:3b",
			tags:       `{"models":[{"name":"llama3.2:latest"}]}`,
			ps:         `{"models":[]}`,
			want:       AvailabilityDownloadable,
		},
		{
			name:       "absent model is downloadable",
			configured: "llama3.2:3b",
			tags:       `{"models":[]}`,
			ps:         `{"models":[]}`,
			want:       AvailabilityDownloadable,
		},
		{
			name:       "pull in flight reports downloading",
			configured: "llama3.2",
			tags:       `{"models":[]}`,
			ps:         `{"models":[{"name":"llama3.2:latest"}]}`,
			want:       AvailabilityDownloading,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := ollamaServer(t, tc.tags, tc.ps)
			runtime := NewOllamaRuntime(server.URL, tc.configured)

			got, err := runtime.Availability(context.Background())
			if err != nil {
				t.Fatalf("Availability returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Availability = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestOllamaAvailabilityUnreachableServer(t *testing.T) {
	server := ollamaServer(t, "{}", "{}")
	server.Close() // refuse connections

	runtime := NewOllamaRuntime(server.URL, "llama3.2")
	got, err := runtime.Availability(context.Background())
	if err != nil {
		t.Fatalf("Availability returned error: %v", err)
	}
	if got != AvailabilityUnavailable {
		t.Fatalf("Availability = %s, want %s", got, AvailabilityUnavailable)
	}
}
