package feed

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/umputun/blogfeed/pkg/domain"
)

// Generator creates RSS feeds of blog posts
type Generator struct {
	baseURL   string
	siteTitle string
	sanitizer *Sanitizer
	linkFn    func(id domain.PostID) string
}

// NewGenerator creates a new feed generator
func NewGenerator(baseURL, siteTitle string) *Generator {
	return &Generator{
		baseURL:   strings.TrimRight(baseURL, "/"),
		siteTitle: siteTitle,
		sanitizer: NewSanitizer(),
		linkFn:    DetailLink,
	}
}

// GenerateRSS creates an RSS 2.0 feed from posts, newest first, optionally limited to a tag
func (g *Generator) GenerateRSS(posts []domain.Post, tag string, limit int) (string, error) {
	title := g.siteTitle
	selfLink := g.baseURL + "/rss"
	sorted := SortPosts(posts)
	if tag != "" {
		title = fmt.Sprintf("%s: %s", tag, g.siteTitle)
		selfLink = g.baseURL + "/rss?" + url.Values{"tag": {tag}}.Encode()
		sorted = FilterByTag(sorted, tag)
	}
	if limit > 0 {
		sorted = Recent(sorted, limit)
	}

	rssItems := make([]*RSSItem, 0, len(sorted))
	for _, p := range sorted {
		rssItems = append(rssItems, g.convertToRSSItem(p))
	}

	feed := &RSS{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: &RSSChannel{
			Title:         title,
			Link:          g.baseURL + "/",
			Description:   fmt.Sprintf("Latest posts from %s", g.siteTitle),
			AtomLink:      &AtomLink{Href: selfLink, Rel: "self", Type: "application/rss+xml"},
			LastBuildDate: time.Now().Format(time.RFC1123Z),
			Items:         rssItems,
		},
	}

	output, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}
	return xml.Header + string(output), nil
}

func (g *Generator) convertToRSSItem(p domain.Post) *RSSItem {
	link := g.baseURL + g.linkFn(p.ID)
	// calendar date at midnight UTC, rss requires a full timestamp
	pub := time.Date(p.Date.Year, time.Month(p.Date.Month), p.Date.Day, 0, 0, 0, 0, time.UTC)
	return &RSSItem{
		Title:       p.Title,
		Link:        link,
		GUID:        link,
		Description: string(g.sanitizer.HTML(p.Excerpt)),
		PubDate:     pub.Format(time.RFC1123Z),
		Categories:  p.Tags,
	}
}
