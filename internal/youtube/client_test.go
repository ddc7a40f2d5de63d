package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ytq/internal/retry"
)

const videosResponse = `{
  "items": [
    {
      "id": "dQw4w9WgXcQ",
      "snippet": {
        "title": "Never Gonna Give You Up",
        "channelTitle": "Rick Astley",
        "channelId": "UCuAXFkgsw1L7xaCfnd5JJOw",
        "publishedAt": "2009-10-25T06:57:33Z",
        "categoryId": "10",
        "tags": ["rick astley", "80s"]
      },
      "contentDetails": {"duration": "PT3M33S"}
    },
    {
      "id": "a1111111111",
      "snippet": {"title": "No tags", "channelTitle": "Someone", "channelId": "UCx", "publishedAt": "bogus", "categoryId": "27"},
      "contentDetails": {"duration": "P0D"}
    }
  ]
}`

const categoriesResponse = `{
  "items": [
    {"id": "10", "snippet": {"title": "Music"}},
    {"id": "27", "snippet": {"title": "Education"}},
    {"id": "99", "snippet": {"title": ""}}
  ]
}`

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig("test-key")
	cfg.Endpoint = server.URL
	cfg.RequestsPerSecond = 1000
	cfg.Retry = retry.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2}

	client, err := NewClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	client.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	return client
}

func errorBody(code int, reason string) string {
	return fmt.Sprintf(`{"error":{"code":%d,"message":"failure","errors":[{"reason":%q,"message":"failure"}]}}`, code, reason)
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient(context.Background(), DefaultConfig("  "))
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("NewClient() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestClient_FetchVideos(t *testing.T) {
	var gotKey, gotIDs, gotPart string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/youtube/v3/videos") {
			http.NotFound(w, r)
			return
		}
		gotKey = r.URL.Query().Get("key")
		gotIDs = strings.Join(r.URL.Query()["id"], ",")
		gotPart = strings.Join(r.URL.Query()["part"], ",")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, videosResponse)
	}))

	metas, err := client.FetchVideos(context.Background(), []string{"dQw4w9WgXcQ", "a1111111111", "gone0000000"})
	if err != nil {
		t.Fatalf("FetchVideos() error = %v", err)
	}

	if gotKey != "test-key" {
		t.Errorf("request key = %q, want test-key", gotKey)
	}
	for _, id := range []string{"dQw4w9WgXcQ", "a1111111111", "gone0000000"} {
		if !strings.Contains(gotIDs, id) {
			t.Errorf("request ids %q missing %s", gotIDs, id)
		}
	}
	if !strings.Contains(gotPart, "snippet") || !strings.Contains(gotPart, "contentDetails") {
		t.Errorf("request part = %q, want snippet and contentDetails", gotPart)
	}

	if len(metas) != 2 {
		t.Fatalf("FetchVideos() len = %d, want 2", len(metas))
	}
	rick := metas[0]
	if rick.Title != "Never Gonna Give You Up" || rick.Channel != "Rick Astley" || rick.CategoryID != "10" {
		t.Errorf("FetchVideos()[0] = %+v", rick)
	}
	if rick.DurationSeconds != 213 || rick.Duration != "PT3M33S" {
		t.Errorf("duration = %q/%d, want PT3M33S/213", rick.Duration, rick.DurationSeconds)
	}
	if len(rick.Tags) != 2 {
		t.Errorf("tags = %v, want 2 tags", rick.Tags)
	}
	if !rick.PublishedAt.Equal(time.Date(2009, 10, 25, 6, 57, 33, 0, time.UTC)) {
		t.Errorf("published_at = %v", rick.PublishedAt)
	}
	if !rick.FetchedAt.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("fetched_at = %v", rick.FetchedAt)
	}

	other := metas[1]
	if other.Tags == nil || len(other.Tags) != 0 {
		t.Errorf("tags without snippet tags = %#v, want empty slice", other.Tags)
	}
	if !other.PublishedAt.IsZero() || other.DurationSeconds != 0 {
		t.Errorf("unparseable fields = %v/%d, want zero", other.PublishedAt, other.DurationSeconds)
	}
}

func TestClient_FetchVideosBatchLimit(t *testing.T) {
	client := testClient(t, http.NotFoundHandler())
	ids := make([]string, MaxBatchSize+1)
	if _, err := client.FetchVideos(context.Background(), ids); err == nil {
		t.Error("FetchVideos() with too many IDs returned nil error")
	}
}

func TestClient_FetchCategories(t *testing.T) {
	var gotRegion string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRegion = r.URL.Query().Get("regionCode")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, categoriesResponse)
	}))

	categories, err := client.FetchCategories(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchCategories() error = %v", err)
	}
	if gotRegion != DefaultRegion {
		t.Errorf("regionCode = %q, want %q", gotRegion, DefaultRegion)
	}
	if len(categories) != 2 || categories["10"] != "Music" || categories["27"] != "Education" {
		t.Errorf("FetchCategories() = %v", categories)
	}
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		reason   string
		want     error
		attempts int32
	}{
		{"forbidden", http.StatusForbidden, "forbidden", ErrForbidden, 1},
		{"bad key", http.StatusBadRequest, "keyInvalid", ErrForbidden, 1},
		{"quota", http.StatusForbidden, "quotaExceeded", ErrQuotaExceeded, 1},
		{"server error retried", http.StatusInternalServerError, "backendError", nil, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, errorBody(tt.status, tt.reason))
			}))

			_, err := client.FetchVideos(context.Background(), []string{"dQw4w9WgXcQ"})
			if err == nil {
				t.Fatal("FetchVideos() error = nil, want error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("FetchVideos() error = %v, want %v", err, tt.want)
			}
			if tt.want == nil {
				var apiErr *APIError
				if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
					t.Errorf("FetchVideos() error = %v, want *APIError with status %d", err, tt.status)
				}
			}
			if got := calls.Load(); got != tt.attempts {
				t.Errorf("server saw %d requests, want %d", got, tt.attempts)
			}
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	cfg := DefaultConfig("test-key")
	cfg.Endpoint = url
	cfg.Retry = retry.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 2}
	client, err := NewClient(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.FetchVideos(context.Background(), []string{"dQw4w9WgXcQ"})
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("FetchVideos() error = %v, want ErrNetwork", err)
	}
}
