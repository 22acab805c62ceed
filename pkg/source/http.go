package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/umputun/blogfeed/pkg/domain"
)

// HTTP loads posts or articles from a JSON endpoint, the response body must be a JSON array
type HTTP struct {
	url       string
	client    *http.Client
	userAgent string
}

// NewHTTP creates a JSON source for the given url
func NewHTTP(url string, timeout time.Duration, userAgent string) *HTTP {
	return &HTTP{
		url: url,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
	}
}

// Posts fetches and decodes the posts list
func (h *HTTP) Posts(ctx context.Context) ([]domain.Post, error) {
	var posts []domain.Post
	if err := h.getJSON(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Articles fetches and decodes the articles list
func (h *HTTP) Articles(ctx context.Context) ([]domain.Article, error) {
	var articles []domain.Article
	if err := h.getJSON(ctx, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// String returns the source url, used in logs
func (h *HTTP) String() string {
	return h.url
}

// getJSON makes a single request, there is no retry on purpose: a failed load is final for the page
func (h *HTTP) getJSON(ctx context.Context, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, http.NoBody)
	if err != nil {
		return &FetchError{Source: h.url, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return &FetchError{Source: h.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return &FetchError{Source: h.url, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &FetchError{Source: h.url, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
