package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/blogfeed/pkg/domain"
	"github.com/umputun/blogfeed/pkg/source"
	"github.com/umputun/blogfeed/server/mocks"
)

func TestServer_indexHandler_Pagination(t *testing.T) {
	srv := newTestServer(t, testConfig(), postsMock(makePosts(23)), nil)

	w := get(t, srv, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, 10, strings.Count(body, `class="post-card"`))
	assert.Contains(t, body, `id="post-p22"`, "newest first")
	assert.NotContains(t, body, `id="post-p12"`)
	assert.NotContains(t, body, "notice-end")
	assert.Contains(t, body, "<title>Blog do Patrick</title>")

	// recent list shows the 5 newest posts
	assert.Contains(t, body, `<a href="/post?id=p18">Post 18</a>`)
	assert.NotContains(t, body, `<a href="/post?id=p17">Post 17</a>`)

	more := loadMoreURL(body)
	require.NotEmpty(t, more)
	assert.Contains(t, more, "offset=10")

	// second batch
	w = get(t, srv, more)
	require.Equal(t, http.StatusOK, w.Code)
	frag := w.Body.String()
	assert.Equal(t, 10, strings.Count(frag, `class="post-card"`))
	assert.Contains(t, frag, `id="post-p12"`)
	assert.Contains(t, frag, `id="post-p03"`)
	assert.NotContains(t, frag, "<html", "fragment has no layout")
	assert.NotContains(t, frag, "notice-end")
	next := loadMoreURL(frag)
	require.NotEmpty(t, next)
	assert.Contains(t, next, "offset=20")

	// third batch is the last
	w = get(t, srv, next)
	require.Equal(t, http.StatusOK, w.Code)
	frag = w.Body.String()
	assert.Equal(t, 3, strings.Count(frag, `class="post-card"`))
	assert.Contains(t, frag, `id="post-p00"`)
	assert.Empty(t, loadMoreURL(frag))
	assert.Equal(t, 1, strings.Count(frag, "notice-end"))
	assert.Less(t, strings.Index(frag, `id="post-p00"`), strings.Index(frag, "notice-end"))

	// a consumed trigger reveals nothing
	w = get(t, srv, next)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	w = get(t, srv, more)
	assert.Empty(t, w.Body.String())
}

func TestServer_indexHandler_FewPosts(t *testing.T) {
	srv := newTestServer(t, testConfig(), postsMock(makePosts(4)), nil)
	w := get(t, srv, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, 4, strings.Count(body, `class="post-card"`))
	assert.Empty(t, loadMoreURL(body))
	assert.Equal(t, 1, strings.Count(body, "notice-end"))
	assert.Equal(t, 0, srv.sessions.len(), "no session for a complete feed")
}

func TestServer_indexHandler_Filter(t *testing.T) {
	posts := makePosts(30)
	for i := range posts {
		if i%2 == 0 {
			posts[i].Tags = []string{"IA", "blog"}
		}
	}
	srv := newTestServer(t, testConfig(), postsMock(posts), nil)

	w := get(t, srv, "/?tag=ia")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<title>ia: Blog do Patrick</title>")
	assert.Contains(t, body, `class="tag-mode"`)
	assert.Contains(t, body, `class="tag-mode-banner"`)
	assert.Contains(t, body, "IA MODE ON")
	assert.Equal(t, 10, strings.Count(body, `class="post-card"`))
	assert.Contains(t, body, `id="post-p28"`)
	assert.NotContains(t, body, `id="post-p29"`, "untagged posts are hidden")

	// recent posts ignore the filter
	assert.Contains(t, body, `<a href="/post?id=p29">Post 29</a>`)

	more := loadMoreURL(body)
	require.NotEmpty(t, more)
	u, err := url.Parse(more)
	require.NoError(t, err)
	assert.Equal(t, "ia", u.Query().Get("tag"))

	w = get(t, srv, more)
	frag := w.Body.String()
	assert.Equal(t, 5, strings.Count(frag, `class="post-card"`))
	assert.Equal(t, 1, strings.Count(frag, "notice-end"))
	assert.NotContains(t, frag, "MODE ON", "banner only rendered once")
}

func TestServer_indexHandler_FilterNoMatches(t *testing.T) {
	srv := newTestServer(t, testConfig(), postsMock(makePosts(12)), nil)

	w := get(t, srv, "/?tag=legaltech")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "notice-empty")
	assert.Contains(t, body, "No posts with this tag yet...")
	assert.NotContains(t, body, "MODE ON")
	assert.NotContains(t, body, "tag-mode-banner")
	assert.Empty(t, loadMoreURL(body))
	assert.Equal(t, 0, strings.Count(body, `class="post-card"`))
	assert.Contains(t, body, "<title>legaltech: Blog do Patrick</title>")
}

func TestServer_indexHandler_PostsFailure(t *testing.T) {
	posts := &mocks.PostSourceMock{PostsFunc: func(context.Context) ([]domain.Post, error) {
		return nil, &source.FetchError{Source: "http://example.com/posts.json", StatusCode: http.StatusInternalServerError}
	}}
	articles := &mocks.ArticleSourceMock{ArticlesFunc: func(context.Context) ([]domain.Article, error) {
		return []domain.Article{{Title: "Article one", URL: "https://example.com/a1", Date: domain.Date{Year: 2026, Month: 1, Day: 5}}}, nil
	}}
	srv := newTestServer(t, testConfig(), posts, articles)

	w := get(t, srv, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "notice-fetch-failed")
	assert.Contains(t, body, "Oops... could not load the posts.")
	assert.Equal(t, 0, strings.Count(body, `class="post-card"`))
	assert.Empty(t, loadMoreURL(body))
	assert.NotContains(t, body, `id="recent-posts"`)

	// articles are isolated from the posts failure
	assert.Contains(t, body, `id="recent-articles"`)
	assert.Contains(t, body, "Article one")
	assert.Len(t, articles.ArticlesCalls(), 1)
}

func TestServer_indexHandler_ArticlesFailure(t *testing.T) {
	articles := &mocks.ArticleSourceMock{ArticlesFunc: func(context.Context) ([]domain.Article, error) {
		return nil, errors.New("timeout")
	}}
	srv := newTestServer(t, testConfig(), postsMock(makePosts(3)), articles)

	w := get(t, srv, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, 3, strings.Count(body, `class="post-card"`))
	assert.NotContains(t, body, `id="recent-articles"`)
	assert.Contains(t, body, `id="recent-posts"`)
}

func TestServer_indexHandler_RecentArticles(t *testing.T) {
	var list []domain.Article
	for i := 1; i <= 7; i++ {
		list = append(list, domain.Article{Title: fmt.Sprintf("A%d", i), URL: fmt.Sprintf("https://example.com/%d", i),
			Date: domain.Date{Year: 2026, Month: 1, Day: i}})
	}
	articles := &mocks.ArticleSourceMock{ArticlesFunc: func(context.Context) ([]domain.Article, error) { return list, nil }}
	srv := newTestServer(t, testConfig(), postsMock(makePosts(1)), articles)

	body := get(t, srv, "/").Body.String()
	assert.Contains(t, body, ">A7</a>")
	assert.Contains(t, body, ">A3</a>")
	assert.NotContains(t, body, ">A2</a>")
}

func TestServer_indexHandler_Excerpt(t *testing.T) {
	posts := []domain.Post{{ID: "x", Title: "<b>Title</b>", Date: domain.Date{Year: 2026, Month: 2, Day: 17},
		Excerpt: `<p>Hello <em>world</em><script>alert(1)</script></p>`, Tags: []string{"IA"}}}
	srv := newTestServer(t, testConfig(), postsMock(posts), nil)

	body := get(t, srv, "/").Body.String()
	assert.Contains(t, body, "<p>Hello <em>world</em></p>")
	assert.NotContains(t, body, "alert(1)")
	assert.Contains(t, body, "&lt;b&gt;Title&lt;/b&gt;")
	assert.Contains(t, body, `<time datetime="2026-02-17">17/02/2026</time>`)
	assert.Contains(t, body, `href="/?tag=IA"`)
}

func TestServer_moreHandler_ExpiredSession(t *testing.T) {
	srv := newTestServer(t, testConfig(), postsMock(makePosts(23)), nil)

	w := get(t, srv, "/feed/gone/more?offset=10")
	require.Equal(t, http.StatusOK, w.Code)
	frag := w.Body.String()
	assert.Equal(t, 10, strings.Count(frag, `class="post-card"`))
	assert.Contains(t, frag, `id="post-p12"`)
	next := loadMoreURL(frag)
	require.NotEmpty(t, next)
	assert.NotContains(t, next, "/feed/gone/", "a new session replaces the expired one")

	w = get(t, srv, next)
	assert.Equal(t, 3, strings.Count(w.Body.String(), `class="post-card"`))
	assert.Equal(t, 1, strings.Count(w.Body.String(), "notice-end"))

	t.Run("resume past the end", func(t *testing.T) {
		w := get(t, srv, "/feed/gone/more?offset=23")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("resume with tag", func(t *testing.T) {
		w := get(t, srv, "/feed/gone/more?offset=0&tag=nothing")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("missing offset", func(t *testing.T) {
		w := get(t, srv, "/feed/gone/more")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad offset", func(t *testing.T) {
		w := get(t, srv, "/feed/gone/more?offset=-1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServer_moreHandler_ResumeFailure(t *testing.T) {
	posts := &mocks.PostSourceMock{PostsFunc: func(context.Context) ([]domain.Post, error) {
		return nil, errors.New("connection refused")
	}}
	srv := newTestServer(t, testConfig(), posts, nil)

	w := get(t, srv, "/feed/gone/more?offset=10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "notice-fetch-failed")
	assert.Empty(t, loadMoreURL(w.Body.String()))
}

func TestServer_postHandler(t *testing.T) {
	posts := makePosts(8)
	posts[3].Excerpt = "<p>full <strong>text</strong></p>"
	posts[3].Tags = []string{"LegalTech"}

	t.Run("found", func(t *testing.T) {
		srv := newTestServer(t, testConfig(), postsMock(posts), nil)
		w := get(t, srv, "/post?id=p03")
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "<title>Post 03 | Blog do Patrick</title>")
		assert.Contains(t, body, "<h1>Post 03</h1>")
		assert.Contains(t, body, "<p>full <strong>text</strong></p>")
		assert.Contains(t, body, `href="/?tag=LegalTech"`)
		assert.Contains(t, body, `id="recent-posts"`)
	})

	t.Run("not found", func(t *testing.T) {
		srv := newTestServer(t, testConfig(), postsMock(posts), nil)
		w := get(t, srv, "/post?id=missing")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Post not found")
	})

	t.Run("fetch failure", func(t *testing.T) {
		failing := &mocks.PostSourceMock{PostsFunc: func(context.Context) ([]domain.Post, error) {
			return nil, &source.FetchError{Source: "posts", StatusCode: http.StatusInternalServerError}
		}}
		srv := newTestServer(t, testConfig(), failing, nil)
		w := get(t, srv, "/post?id=p03")
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "notice-fetch-failed")
	})
}

func TestServer_themeHandler(t *testing.T) {
	srv := newTestServer(t, testConfig(), postsMock(nil), nil)

	toggle := func(current, checked string, htmx bool) *httptest.ResponseRecorder {
		form := url.Values{}
		if checked != "" {
			form.Set("checked", checked)
		}
		req := httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Referer", "https://blog.example.com/?tag=ia")
		if htmx {
			req.Header.Set("HX-Request", "true")
		}
		if current != "" {
			req.AddCookie(&http.Cookie{Name: themeCookie, Value: current})
		}
		return doRequest(t, srv, req)
	}

	tests := []struct {
		name    string
		current string
		checked string
		want    domain.Theme
	}{
		{name: "default checked", current: "", checked: "on", want: domain.ThemeModern},
		{name: "neon checked", current: "neon", checked: "on", want: domain.ThemeModern},
		{name: "modern checked", current: "modern", checked: "on", want: domain.ThemeLight},
		{name: "light checked", current: "light", checked: "on", want: domain.ThemeModern},
		{name: "modern unchecked", current: "modern", checked: "", want: domain.ThemeNeon},
		{name: "light unchecked", current: "light", checked: "", want: domain.ThemeNeon},
		{name: "garbage cookie", current: "pink", checked: "on", want: domain.ThemeModern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := toggle(tt.current, tt.checked, true)
			require.Equal(t, http.StatusOK, w.Code)

			cookies := w.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, themeCookie, cookies[0].Name)
			assert.Equal(t, string(tt.want), cookies[0].Value)
			assert.Equal(t, themeCookieAge, cookies[0].MaxAge)

			var trigger map[string]map[string]string
			require.NoError(t, json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &trigger))
			assert.Equal(t, string(tt.want), trigger["themeChanged"]["theme"])
			assert.Equal(t, tt.want.Label(), trigger["themeChanged"]["label"])

			assert.Contains(t, w.Body.String(), `id="theme-toggle"`)
			assert.Contains(t, w.Body.String(), tt.want.Label())
		})
	}

	t.Run("plain form redirects back", func(t *testing.T) {
		w := toggle("neon", "on", false)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/?tag=ia", w.Header().Get("Location"))
	})
}

func TestServer_indexHandler_Theme(t *testing.T) {
	srv := newTestServer(t, testConfig(), postsMock(nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.AddCookie(&http.Cookie{Name: themeCookie, Value: "light"})
	body := doRequest(t, srv, req).Body.String()
	assert.Contains(t, body, `data-theme="light"`)
	assert.Contains(t, body, "Light Mode")
	assert.Contains(t, body, `name="checked" checked`)

	body = get(t, srv, "/").Body.String()
	assert.Contains(t, body, `data-theme="neon"`)
	assert.Contains(t, body, "Neon Dark")
	assert.NotContains(t, body, `name="checked" checked`)
}

func TestBackURL(t *testing.T) {
	tests := []struct{ referer, want string }{
		{"", "/"},
		{"https://blog.example.com/post?id=1", "/post?id=1"},
		{"https://evil.example.com/phish", "/phish"},
		{"not a url\x7f", "/"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/theme", http.NoBody)
		if tt.referer != "" {
			req.Header.Set("Referer", tt.referer)
		}
		assert.Equal(t, tt.want, backURL(req), tt.referer)
	}
}
