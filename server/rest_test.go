package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/blogfeed/pkg/domain"
	"github.com/umputun/blogfeed/pkg/source"
	"github.com/umputun/blogfeed/server/mocks"
)

func TestServer_statusHandler(t *testing.T) {
	srv := newTestServer(t, testConfig(), postsMock(makePosts(23)), nil)
	get(t, srv, "/") // creates a page session

	w := get(t, srv, "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "1.2.3", resp["version"])
	assert.InDelta(t, 1, resp["sessions"], 0)
	assert.NotEmpty(t, resp["time"])
}

func TestServer_apiPostsHandler(t *testing.T) {
	posts := makePosts(23)
	posts[22].Tags = []string{"IA"}
	posts[5].Tags = []string{"ia", "blog"}
	srv := newTestServer(t, testConfig(), postsMock(posts), nil)

	decode := func(t *testing.T, target string) apiPostsResponse {
		t.Helper()
		w := get(t, srv, target)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp apiPostsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	t.Run("first page", func(t *testing.T) {
		resp := decode(t, "/api/v1/posts")
		assert.Len(t, resp.Posts, 10)
		assert.Equal(t, 23, resp.Total)
		assert.Equal(t, 0, resp.Offset)
		assert.Equal(t, 10, resp.NextOffset)
		assert.True(t, resp.HasMore)
		assert.Equal(t, "p22", resp.Posts[0].ID)
		assert.Equal(t, "2025-01-23", resp.Posts[0].Date)
		assert.Equal(t, "23/01/2025", resp.Posts[0].DateLabel)
		assert.Equal(t, "/post?id=p22", resp.Posts[0].Link)
		assert.Equal(t, "<p>excerpt 22</p>", resp.Posts[0].Excerpt)
	})

	t.Run("last page", func(t *testing.T) {
		resp := decode(t, "/api/v1/posts?offset=20")
		assert.Len(t, resp.Posts, 3)
		assert.Equal(t, 20, resp.Offset)
		assert.Equal(t, 23, resp.NextOffset)
		assert.False(t, resp.HasMore)
		assert.Equal(t, "p00", resp.Posts[2].ID)
	})

	t.Run("custom limit", func(t *testing.T) {
		resp := decode(t, "/api/v1/posts?offset=5&limit=3")
		require.Len(t, resp.Posts, 3)
		assert.Equal(t, "p17", resp.Posts[0].ID)
		assert.Equal(t, 8, resp.NextOffset)
		assert.True(t, resp.HasMore)
	})

	t.Run("past the end", func(t *testing.T) {
		resp := decode(t, "/api/v1/posts?offset=100")
		assert.Empty(t, resp.Posts)
		assert.NotNil(t, resp.Posts)
		assert.Equal(t, 23, resp.Offset)
		assert.Equal(t, 23, resp.NextOffset)
		assert.False(t, resp.HasMore)
	})

	t.Run("tag filter", func(t *testing.T) {
		resp := decode(t, "/api/v1/posts?tag=IA")
		assert.Equal(t, "IA", resp.Tag)
		assert.Equal(t, 2, resp.Total)
		require.Len(t, resp.Posts, 2)
		assert.Equal(t, "p22", resp.Posts[0].ID)
		assert.Equal(t, "p05", resp.Posts[1].ID)
		assert.False(t, resp.HasMore)
	})

	t.Run("tag without matches", func(t *testing.T) {
		resp := decode(t, "/api/v1/posts?tag=legaltech")
		assert.Empty(t, resp.Posts)
		assert.Equal(t, 0, resp.Total)
		assert.False(t, resp.HasMore)
	})
}

func TestServer_apiPostsHandler_InvalidParams(t *testing.T) {
	srv := newTestServer(t, testConfig(), postsMock(makePosts(3)), nil)

	for _, target := range []string{
		"/api/v1/posts?offset=abc",
		"/api/v1/posts?offset=-1",
		"/api/v1/posts?limit=0",
		"/api/v1/posts?limit=101",
		"/api/v1/posts?limit=x",
	} {
		t.Run(target, func(t *testing.T) {
			w := get(t, srv, target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestServer_apiPostsHandler_SourceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "fetch error", err: &source.FetchError{Source: "posts.json", Err: errors.New("boom")}, code: http.StatusBadGateway},
		{name: "plain error", err: errors.New("database is closed"), code: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := &mocks.PostSourceMock{PostsFunc: func(context.Context) ([]domain.Post, error) { return nil, tt.err }}
			srv := newTestServer(t, testConfig(), posts, nil)
			w := get(t, srv, "/api/v1/posts")
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}
