package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"winnow/internal/classify"
	"winnow/internal/daemon"
	"winnow/internal/logging"
	"winnow/internal/settings"
	"winnow/internal/testsupport"
)

const feedHTML = `<html><body>` +
	`<ytd-rich-item-renderer><a id="video-title">India wins World Cup</a><ytd-channel-name>ESPN Cricket</ytd-channel-name></ytd-rich-item-renderer>` +
	`<ytd-rich-item-renderer><a id="video-title">Best Pasta Recipe</a><ytd-channel-name>ChefTube</ytd-channel-name></ytd-rich-item-renderer>` +
	`</body></html>`

func startDaemon(t *testing.T) (string, *settings.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t, cfg)

	d, err := daemon.New(cfg, store, classify.Substring{}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
		cancel()
	})
	return "http://" + d.APIAddr(), store
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func createSession(t *testing.T, base string) string {
	t.Helper()
	var created struct {
		SessionID string `json:"session_id"`
		Mode      string `json:"mode"`
	}
	status := doJSON(t, http.MethodPost, base+"/api/sessions", map[string]string{
		"url":  "https://www.youtube.com/",
		"html": feedHTML,
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create session: status %d", status)
	}
	if created.Mode != "home" {
		t.Fatalf("unexpected mode %q", created.Mode)
	}
	return created.SessionID
}

// waitDecisions polls the decisions endpoint until the counts match or the
// deadline passes. Scans run on the session's reactor goroutine, so results
// are eventually consistent from the API's point of view.
func waitDecisions(t *testing.T, base, id string, total, suppressed int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	var last string
	for time.Now().Before(deadline) {
		var resp struct {
			Decisions []struct {
				TileID   string `json:"tile_id"`
				Decision string `json:"decision"`
			} `json:"decisions"`
		}
		status := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/sessions/%s/decisions", base, id), nil, &resp)
		if status != http.StatusOK {
			t.Fatalf("decisions: status %d", status)
		}
		gotSuppressed := 0
		for _, d := range resp.Decisions {
			if d.Decision == "suppress" {
				gotSuppressed++
			}
		}
		if len(resp.Decisions) == total && gotSuppressed == suppressed {
			return
		}
		last = fmt.Sprintf("total=%d suppressed=%d", len(resp.Decisions), gotSuppressed)
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("decisions never converged to total=%d suppressed=%d (last: %s)", total, suppressed, last)
}

func TestSessionFilterFlow(t *testing.T) {
	base, store := startDaemon(t)
	if err := store.AddTopic(context.Background(), "cricket"); err != nil {
		t.Fatalf("AddTopic: %v", err)
	}

	id := createSession(t, base)
	waitDecisions(t, base, id, 2, 1)

	var doc struct {
		HTML string `json:"html"`
		Mode string `json:"mode"`
	}
	if status := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/sessions/%s/document", base, id), nil, &doc); status != http.StatusOK {
		t.Fatalf("document: status %d", status)
	}
	if !strings.Contains(doc.HTML, "winnow-suppressed") {
		t.Fatal("patched document missing suppression markup")
	}
	if !strings.Contains(doc.HTML, "data-winnow-id") {
		t.Fatal("patched document missing tile identity stamps")
	}
}

func TestTopicChangesReflow(t *testing.T) {
	base, _ := startDaemon(t)
	id := createSession(t, base)

	// No topics yet: everything decided show.
	waitDecisions(t, base, id, 2, 0)

	if status := doJSON(t, http.MethodPost, base+"/api/topics", map[string]string{"topic": "cricket"}, nil); status != http.StatusCreated {
		t.Fatalf("add topic: status %d", status)
	}
	waitDecisions(t, base, id, 2, 1)

	if status := doJSON(t, http.MethodPost, base+"/api/topics", map[string]string{"topic": "pasta"}, nil); status != http.StatusCreated {
		t.Fatalf("add topic: status %d", status)
	}
	waitDecisions(t, base, id, 2, 2)

	if status := doJSON(t, http.MethodDelete, base+"/api/topics/pasta", nil, nil); status != http.StatusNoContent {
		t.Fatalf("remove topic: status %d", status)
	}
	waitDecisions(t, base, id, 2, 1)

	var topics struct {
		Topics []string `json:"topics"`
	}
	if status := doJSON(t, http.MethodGet, base+"/api/topics", nil, &topics); status != http.StatusOK {
		t.Fatalf("list topics: status %d", status)
	}
	if len(topics.Topics) != 1 || topics.Topics[0] != "cricket" {
		t.Fatalf("unexpected topics: %v", topics.Topics)
	}
}

func TestNavigationSwitchesMode(t *testing.T) {
	base, _ := startDaemon(t)
	id := createSession(t, base)

	status := doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/sessions/%s/url", base, id),
		map[string]string{"url": "https://www.youtube.com/watch?v=abc"}, nil)
	if status != http.StatusNoContent {
		t.Fatalf("navigate: status %d", status)
	}

	var doc struct {
		Mode string `json:"mode"`
	}
	if status := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/sessions/%s/document", base, id), nil, &doc); status != http.StatusOK {
		t.Fatalf("document: status %d", status)
	}
	if doc.Mode != "watch" {
		t.Fatalf("mode %q after navigation, want watch", doc.Mode)
	}
}

func TestStatusAndSessionLifecycle(t *testing.T) {
	base, _ := startDaemon(t)
	id := createSession(t, base)

	var status struct {
		Running  bool `json:"running"`
		Sessions int  `json:"sessions"`
	}
	if code := doJSON(t, http.MethodGet, base+"/api/status", nil, &status); code != http.StatusOK {
		t.Fatalf("status: code %d", code)
	}
	if !status.Running || status.Sessions != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}

	if code := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/sessions/%s", base, id), nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete session: code %d", code)
	}
	if code := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/sessions/%s/decisions", base, id), nil, nil); code != http.StatusNotFound {
		t.Fatalf("deleted session still reachable: code %d", code)
	}
}

func TestDuplicateTopicConflicts(t *testing.T) {
	base, _ := startDaemon(t)

	if status := doJSON(t, http.MethodPost, base+"/api/topics", map[string]string{"topic": "cricket"}, nil); status != http.StatusCreated {
		t.Fatalf("add topic: status %d", status)
	}
	if status := doJSON(t, http.MethodPost, base+"/api/topics", map[string]string{"topic": "CRICKET"}, nil); status != http.StatusConflict {
		t.Fatalf("duplicate topic: status %d, want 409", status)
	}
	if status := doJSON(t, http.MethodDelete, base+"/api/topics/golf", nil, nil); status != http.StatusNotFound {
		t.Fatalf("missing topic: status %d, want 404", status)
	}
}
