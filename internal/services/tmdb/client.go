// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/streamhub/streamhub/internal/buildinfo"
	"github.com/streamhub/streamhub/internal/domain"
	"github.com/streamhub/streamhub/internal/models"
)

const (
	ProviderName   = "tmdb"
	DefaultBaseURL = "https://api.themoviedb.org/3"

	maxResponseBytes = 8 << 20
)

// RequestObserver receives one call per completed upstream request. status is 0 on transport failure.
type RequestObserver interface {
	ObserveUpstream(provider string, status int, elapsed time.Duration)
}

type Config struct {
	APIKey   string
	BaseURL  string
	Language string
	Timeout  time.Duration
	Observer RequestObserver
}

// Client talks to the catalog provider. It never retries.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	observer   RequestObserver
	logger     zerolog.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		language:   cfg.Language,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		observer:   cfg.Observer,
		logger:     log.With().Str("module", "tmdb").Logger(),
	}
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// GetPage fetches one page of a list endpoint such as "/trending/all/day" or "/discover/movie".
func (c *Client) GetPage(ctx context.Context, path string, params url.Values) (*Page, error) {
	var page Page
	if err := c.get(ctx, path, params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetDetails fetches "/{movie|tv}/{id}".
func (c *Client) GetDetails(ctx context.Context, mediaType models.MediaType, id int64) (*Record, error) {
	var record Record
	if err := c.get(ctx, fmt.Sprintf("/%s/%d", mediaType, id), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetWatchProviders fetches "/{movie|tv}/{id}/watch/providers".
func (c *Client) GetWatchProviders(ctx context.Context, mediaType models.MediaType, id int64) (*WatchProviders, error) {
	var providers WatchProviders
	if err := c.get(ctx, fmt.Sprintf("/%s/%d/watch/providers", mediaType, id), nil, &providers); err != nil {
		return nil, err
	}
	return &providers, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if !c.IsConfigured() {
		return errors.Wrap(domain.ErrMissingCredential, "tmdb api key")
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrapf(err, "build tmdb request for %s", path)
	}

	query := url.Values{}
	for key, values := range params {
		query[key] = values
	}
	query.Set("api_key", c.apiKey)
	if c.language != "" && query.Get("language") == "" {
		query.Set("language", c.language)
	}
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(0, start)
		return &domain.UpstreamError{Provider: ProviderName, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()
	c.observe(resp.StatusCode, start)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.logger.Debug().Str("path", path).Int("status", resp.StatusCode).Msg("tmdb request failed")
		return &domain.UpstreamError{Provider: ProviderName, StatusCode: resp.StatusCode, URL: endpoint}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return &domain.UpstreamError{Provider: ProviderName, StatusCode: resp.StatusCode, URL: endpoint, Err: errors.Wrap(err, "decode response")}
	}

	return nil
}

func (c *Client) observe(status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream(ProviderName, status, time.Since(start))
	}
}
