package source

import (
	"context"
	"errors"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/umputun/blogfeed/pkg/domain"
)

// RSS loads articles from an RSS or Atom feed
type RSS struct {
	url     string
	parser  *gofeed.Parser
	timeout time.Duration
}

// NewRSS creates an article source reading the feed at url
func NewRSS(url string, timeout time.Duration, userAgent string) *RSS {
	parser := gofeed.NewParser()
	if userAgent != "" {
		parser.UserAgent = userAgent
	}
	return &RSS{url: url, parser: parser, timeout: timeout}
}

// Articles fetches the feed and maps its items to articles, keeping feed order
func (r *RSS) Articles(ctx context.Context) ([]domain.Article, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	feed, err := r.parser.ParseURLWithContext(r.url, ctx)
	if err != nil {
		fe := &FetchError{Source: r.url, Err: err}
		var he gofeed.HTTPError
		if errors.As(err, &he) {
			fe.StatusCode = he.StatusCode
		}
		return nil, fe
	}

	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := domain.Article{Title: item.Title, URL: item.Link}
		// published time first, updated as a fallback
		if item.PublishedParsed != nil {
			a.Date = domain.DateOf(*item.PublishedParsed)
		} else if item.UpdatedParsed != nil {
			a.Date = domain.DateOf(*item.UpdatedParsed)
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// String returns the feed url, used in logs
func (r *RSS) String() string {
	return r.url
}
