package feed

import (
	"context"
	"log"
	"slices"

	"github.com/umputun/blogfeed/pkg/domain"
	"github.com/umputun/blogfeed/pkg/source"
)

// ArticleSource supplies the secondary articles list
type ArticleSource interface {
	Articles(ctx context.Context) ([]domain.Article, error)
}

// SortPosts returns a copy of posts ordered by date, newest first.
// Posts sharing a date keep their source order.
func SortPosts(posts []domain.Post) []domain.Post {
	res := slices.Clone(posts)
	slices.SortStableFunc(res, func(a, b domain.Post) int { return b.Date.Compare(a.Date) })
	return res
}

// SortArticles returns a copy of articles ordered by date, newest first, ties keep source order
func SortArticles(articles []domain.Article) []domain.Article {
	res := slices.Clone(articles)
	slices.SortStableFunc(res, func(a, b domain.Article) int { return b.Date.Compare(a.Date) })
	return res
}

// FilterByTag returns posts carrying tag, compared case-insensitively on whole tags
func FilterByTag(posts []domain.Post, tag string) []domain.Post {
	res := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if p.HasTag(tag) {
			res = append(res, p)
		}
	}
	return res
}

// Recent returns up to n leading elements of an already sorted collection
func Recent[T any](items []T, n int) []T {
	if n <= 0 {
		return nil
	}
	if len(items) < n {
		n = len(items)
	}
	return items[:n:n]
}

// RecentPosts makes sidebar links for the first n posts
func RecentPosts(posts []domain.Post, n int, linkFn func(id domain.PostID) string) []Link {
	if linkFn == nil {
		linkFn = DetailLink
	}
	recent := Recent(posts, n)
	links := make([]Link, 0, len(recent))
	for _, p := range recent {
		links = append(links, Link{Title: p.Title, URL: linkFn(p.ID)})
	}
	return links
}

// RecentArticles makes sidebar links for the first n articles
func RecentArticles(articles []domain.Article, n int) []Link {
	recent := Recent(articles, n)
	links := make([]Link, 0, len(recent))
	for _, a := range recent {
		links = append(links, Link{Title: a.Title, URL: a.URL})
	}
	return links
}

// LoadArticles fetches and sorts articles. Failures are returned as FetchError and logged,
// they never touch the post feed.
func LoadArticles(ctx context.Context, src ArticleSource) ([]domain.Article, error) {
	articles, err := src.Articles(ctx)
	if err != nil {
		if !source.IsFetchError(err) {
			err = &source.FetchError{Source: "articles", Err: err}
		}
		log.Printf("[WARN] can't load articles: %v", err)
		return nil, err
	}
	return SortArticles(articles), nil
}
