package server

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/blogfeed/pkg/domain"
	"github.com/umputun/blogfeed/server/mocks"
)

func TestServer_rssHandler(t *testing.T) {
	posts := makePosts(60)
	posts[59].Tags = []string{"IA"}
	posts[10].Tags = []string{"ia"}
	srv := newTestServer(t, testConfig(), postsMock(posts), nil)

	t.Run("all posts", func(t *testing.T) {
		w := get(t, srv, "/rss")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/rss+xml; charset=utf-8", w.Header().Get("Content-Type"))

		parsed, err := gofeed.NewParser().ParseString(w.Body.String())
		require.NoError(t, err)
		assert.Equal(t, "Blog do Patrick", parsed.Title)
		require.Len(t, parsed.Items, defaultRSSLimit)
		assert.Equal(t, "Post 59", parsed.Items[0].Title)
		assert.Equal(t, "https://blog.example.com/post?id=p59", parsed.Items[0].Link)
		assert.Equal(t, "Post 10", parsed.Items[defaultRSSLimit-1].Title)
	})

	t.Run("tag", func(t *testing.T) {
		w := get(t, srv, "/rss?tag=ia")
		require.Equal(t, http.StatusOK, w.Code)

		parsed, err := gofeed.NewParser().ParseString(w.Body.String())
		require.NoError(t, err)
		assert.Equal(t, "ia: Blog do Patrick", parsed.Title)
		require.Len(t, parsed.Items, 2)
		assert.Equal(t, "Post 59", parsed.Items[0].Title)
		assert.Equal(t, "Post 10", parsed.Items[1].Title)
		assert.Equal(t, []string{"ia"}, parsed.Items[1].Categories)
	})
}

func TestServer_rssHandler_Error(t *testing.T) {
	posts := &mocks.PostSourceMock{PostsFunc: func(context.Context) ([]domain.Post, error) {
		return nil, errors.New("unavailable")
	}}
	srv := newTestServer(t, testConfig(), posts, nil)

	w := get(t, srv, "/rss")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to generate RSS feed")
}
