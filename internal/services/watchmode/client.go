// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package watchmode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
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
	ProviderName   = "watchmode"
	DefaultBaseURL = "https://api.watchmode.com/v1"

	maxResponseBytes = 4 << 20
)

// RequestObserver receives one call per completed upstream request. status is 0 on transport failure.
type RequestObserver interface {
	ObserveUpstream(provider string, status int, elapsed time.Duration)
}

type Config struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	Observer RequestObserver
}

// Client talks to the direct-link provider.
type Client struct {
	apiKey     string
	baseURL    string
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
		httpClient: &http.Client{Timeout: cfg.Timeout},
		observer:   cfg.Observer,
		logger:     log.With().Str("module", "watchmode").Logger(),
	}
}

func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// FindTitleID resolves the provider's own title id from a catalog id. It returns 0 without
// error when the provider has no match.
func (c *Client) FindTitleID(ctx context.Context, tmdbID int64, mediaType models.MediaType) (int64, error) {
	field := "tmdb_movie_id"
	if mediaType == models.MediaTypeTV {
		field = "tmdb_tv_id"
	}

	params := url.Values{
		"search_field": {field},
		"search_value": {strconv.FormatInt(tmdbID, 10)},
	}

	var result searchResponse
	if err := c.get(ctx, "/search/", params, &result); err != nil {
		return 0, err
	}

	if len(result.TitleResults) == 0 {
		return 0, nil
	}
	return result.TitleResults[0].ID, nil
}

// Sources lists every offer for a provider title id in region.
func (c *Client) Sources(ctx context.Context, titleID int64, region string) ([]Source, error) {
	params := url.Values{}
	if region != "" {
		params.Set("regions", region)
	}

	var sources []Source
	if err := c.get(ctx, fmt.Sprintf("/title/%d/sources/", titleID), params, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if !c.IsConfigured() {
		return errors.Wrap(domain.ErrMissingCredential, "watchmode api key")
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrapf(err, "build watchmode request for %s", path)
	}

	query := url.Values{}
	for key, values := range params {
		query[key] = values
	}
	query.Set("apiKey", c.apiKey)
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
