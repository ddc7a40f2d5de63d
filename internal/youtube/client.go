// Package youtube fetches video metadata and categories from the YouTube
// Data API v3.
package youtube

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"ytq/internal/retry"
	"ytq/internal/storage"
)

// MaxBatchSize is the maximum number of IDs videos.list accepts per call.
const MaxBatchSize = 50

// DefaultRegion is used for videoCategories.list.
const DefaultRegion = "US"

// Config configures a Client.
type Config struct {
	// APIKey is required.
	APIKey string
	// Endpoint overrides the API base URL; empty uses the public endpoint.
	Endpoint string
	// RequestsPerSecond paces outgoing requests. 0 uses the default.
	RequestsPerSecond float64
	// Timeout bounds a single HTTP request.
	Timeout time.Duration
	// Retry controls retries of transient failures.
	Retry retry.Config
	// Logger receives debug output; nil discards it.
	Logger *slog.Logger
}

// DefaultConfig returns conservative settings for the Data API.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:            apiKey,
		RequestsPerSecond: 5,
		Timeout:           15 * time.Second,
		Retry:             retry.DefaultConfig(),
	}
}

// Client wraps the generated youtube/v3 service.
type Client struct {
	service *yt.Service
	retry   retry.Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewClient builds a Client. It fails with ErrMissingAPIKey when no key is set.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig("").RequestsPerSecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig("").Timeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: newAPITransport(cfg.APIKey, cfg.RequestsPerSecond, newBaseTransport()),
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimSuffix(cfg.Endpoint, "/")+"/"))
	}
	service, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	logger = logger.With("component", "youtube")
	policy := cfg.Retry
	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, delay time.Duration, err error) {
			logger.Warn("retrying api request", "attempt", attempt, "delay", delay, "error", err)
		}
	}

	return &Client{
		service: service,
		retry:   policy,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// FetchVideos returns metadata for up to MaxBatchSize IDs. IDs the API does
// not return (deleted, private) are simply absent from the result.
func (c *Client) FetchVideos(ctx context.Context, ids []string) ([]storage.VideoMeta, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("youtube: %d IDs exceeds the batch limit of %d", len(ids), MaxBatchSize)
	}

	var resp *yt.VideoListResponse
	err := retry.Do(ctx, c.retry, nil, func(ctx context.Context) error {
		var err error
		resp, err = c.service.Videos.List([]string{"snippet", "contentDetails"}).
			Id(ids...).
			Context(ctx).
			Do()
		return classify(err)
	})
	if err != nil {
		return nil, err
	}

	fetchedAt := c.now()
	metas := make([]storage.VideoMeta, 0, len(resp.Items))
	for _, item := range resp.Items {
		metas = append(metas, convertVideo(item, fetchedAt))
	}
	c.logger.Debug("videos fetched", "requested", len(ids), "returned", len(metas))
	return metas, nil
}

// FetchCategories returns the category ID -> name table for region.
func (c *Client) FetchCategories(ctx context.Context, region string) (map[string]string, error) {
	if region == "" {
		region = DefaultRegion
	}

	var resp *yt.VideoCategoryListResponse
	err := retry.Do(ctx, c.retry, nil, func(ctx context.Context) error {
		var err error
		resp, err = c.service.VideoCategories.List([]string{"snippet"}).
			RegionCode(region).
			Context(ctx).
			Do()
		return classify(err)
	})
	if err != nil {
		return nil, err
	}

	categories := make(map[string]string, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == "" || item.Snippet == nil || item.Snippet.Title == "" {
			continue
		}
		categories[item.Id] = item.Snippet.Title
	}
	c.logger.Debug("categories fetched", "region", region, "count", len(categories))
	return categories, nil
}

func convertVideo(item *yt.Video, fetchedAt time.Time) storage.VideoMeta {
	meta := storage.VideoMeta{
		ID:        item.Id,
		Tags:      []string{},
		FetchedAt: fetchedAt,
	}
	if s := item.Snippet; s != nil {
		meta.Title = s.Title
		meta.Channel = s.ChannelTitle
		meta.ChannelID = s.ChannelId
		meta.CategoryID = s.CategoryId
		if len(s.Tags) > 0 {
			meta.Tags = s.Tags
		}
		if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			meta.PublishedAt = t.UTC()
		}
	}
	if cd := item.ContentDetails; cd != nil {
		meta.Duration = cd.Duration
		if secs, ok := ParseISO8601Duration(cd.Duration); ok {
			meta.DurationSeconds = secs
		}
	}
	return meta
}
