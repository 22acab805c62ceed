package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/umputun/blogfeed/pkg/config"
	"github.com/umputun/blogfeed/pkg/domain"
	"github.com/umputun/blogfeed/pkg/feed"
)

const (
	themeCookie    = "theme"
	themeCookieAge = 365 * 24 * 60 * 60

	templateIndex       = "index.html"
	templatePost        = "post.html"
	templateFeedEntries = "feed-entries"
	templateThemeToggle = "theme-toggle"
)

// pageData is shared by full page templates
type pageData struct {
	SiteTitle      string
	Title          string
	Theme          domain.Theme
	Mode           *feed.Mode
	Entries        []feed.Entry
	SessionID      string
	RecentPosts    []feed.Link
	RecentArticles []feed.Link
	Post           *feed.Item
	Notice         *feed.Notice
	Version        string
}

// fragmentData is used to render feed increments
type fragmentData struct {
	SessionID string
	Entries   []feed.Entry
}

// indexHandler renders the home page with the first batch of posts, optionally filtered by tag
func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimSpace(r.URL.Query().Get("tag"))
	site := s.config.GetFullConfig().Site

	rec := feed.NewRecorder()
	ctrl := s.newController(rec)

	// posts and articles are independent, a failure of one never affects the other
	var g errgroup.Group
	g.Go(func() error {
		if err := ctrl.Initialize(r.Context(), s.posts, tag); err != nil {
			log.Printf("[WARN] can't initialize feed, tag=%q: %v", tag, err)
		}
		return nil
	})
	var articles []feed.Link
	g.Go(func() error {
		articles = s.recentArticles(r.Context())
		return nil
	})
	_ = g.Wait()
	rec.SetRecent(feed.ListArticles, articles)

	data := pageData{
		SiteTitle:      site.Title,
		Title:          site.Title,
		Theme:          themeFromRequest(r),
		RecentPosts:    rec.Recent(feed.ListPosts),
		RecentArticles: rec.Recent(feed.ListArticles),
		Version:        s.version,
	}
	if mode, ok := rec.Mode(); ok {
		data.Mode = &mode
		data.Title = mode.PageTitle
	}
	if _, ok := rec.Affordance(); ok {
		data.SessionID = s.sessions.add(ctrl, rec)
	}
	data.Entries = rec.Take()

	if err := s.renderPage(w, templateIndex, data); err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to render page", err)
	}
}

// moreHandler reveals the next batch of a page feed and returns only the new fragment.
// If the page session has expired the feed is rebuilt from the offset and tag carried by the request.
func (s *Server) moreHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session")
	offset := -1
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondWithError(w, http.StatusBadRequest, "Invalid offset", fmt.Errorf("offset %q", v))
			return
		}
		offset = n
	}

	if sess, ok := s.sessions.get(id); ok {
		sess.mu.Lock()
		var entries []feed.Entry
		// a trigger already consumed, e.g. double click, reveals nothing
		if offset < 0 || offset == sess.ctrl.State().Displayed {
			sess.rec.Activate()
			entries = sess.rec.Take()
		}
		sess.mu.Unlock()
		s.renderFragment(w, id, entries)
		return
	}

	if offset < 0 {
		s.respondWithError(w, http.StatusBadRequest, "Missing offset", fmt.Errorf("no session %s and no offset", id))
		return
	}

	tag := strings.TrimSpace(r.URL.Query().Get("tag"))
	rec := feed.NewRecorder()
	ctrl := s.newController(rec)
	if err := ctrl.Resume(r.Context(), s.posts, tag, offset); err != nil {
		log.Printf("[WARN] can't resume feed at %d, tag=%q: %v", offset, tag, err)
		rec.AppendNotice(feed.Notice{Kind: feed.NoticeFetchFailed, Text: ctrl.Messages().FetchFailed})
		s.renderFragment(w, "", rec.Take())
		return
	}
	ctrl.RevealNextBatch()

	newID := ""
	if _, ok := rec.Affordance(); ok {
		newID = s.sessions.add(ctrl, rec)
	}
	s.renderFragment(w, newID, rec.Take())
}

// postHandler renders a single post page
func (s *Server) postHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	site := s.config.GetFullConfig().Site
	rec := feed.NewRecorder()
	ctrl := s.newController(rec)

	data := pageData{SiteTitle: site.Title, Title: site.Title, Theme: themeFromRequest(r), Version: s.version}

	var posts []domain.Post
	var postsErr error
	var g errgroup.Group
	g.Go(func() error {
		posts, postsErr = s.posts.Posts(r.Context())
		return nil
	})
	g.Go(func() error {
		data.RecentArticles = s.recentArticles(r.Context())
		return nil
	})
	_ = g.Wait()

	status := http.StatusOK
	switch {
	case postsErr != nil:
		log.Printf("[WARN] can't load posts for %q: %v", id, postsErr)
		status = http.StatusBadGateway
		data.Notice = &feed.Notice{Kind: feed.NoticeFetchFailed, Text: ctrl.Messages().FetchFailed}
	default:
		sorted := feed.SortPosts(posts)
		data.RecentPosts = feed.RecentPosts(sorted, site.RecentCount, feed.DetailLink)
		if p, ok := findPost(sorted, domain.PostID(id)); ok {
			item := ctrl.Item(p)
			data.Post = &item
			data.Title = p.Title + " | " + site.Title
			break
		}
		status = http.StatusNotFound
		data.Notice = &feed.Notice{Kind: feed.NoticeEmpty, Text: "Post not found"}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.renderPage(w, templatePost, data); err != nil {
		log.Printf("[WARN] failed to render post page: %v", err)
	}
}

// themeHandler switches the visitor theme and keeps it in a cookie.
// HTMX requests get the new toggle and a themeChanged event, plain form posts are redirected back.
func (s *Server) themeHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid form", err)
		return
	}

	next := themeFromRequest(r).Toggle(isChecked(r.FormValue("checked")))
	http.SetCookie(w, &http.Cookie{
		Name:     themeCookie,
		Value:    string(next),
		Path:     "/",
		MaxAge:   themeCookieAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	trigger, err := json.Marshal(map[string]any{
		"themeChanged": map[string]string{"theme": string(next), "label": next.Label()},
	})
	if err == nil {
		w.Header().Set("HX-Trigger", string(trigger))
	}

	if r.Header.Get("HX-Request") != "true" {
		http.Redirect(w, r, backURL(r), http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, templateThemeToggle, next); err != nil {
		log.Printf("[WARN] failed to render theme toggle: %v", err)
	}
}

func (s *Server) newController(target feed.RenderTarget) *feed.Controller {
	site := s.config.GetFullConfig().Site
	return feed.New(target,
		feed.WithPageSize(site.PageSize),
		feed.WithRecentCount(site.RecentCount),
		feed.WithLocale(site.Locale),
		feed.WithSiteTitle(site.Title),
		feed.WithMessages(feedMessages(site.Messages)),
	)
}

// recentArticles loads sidebar article links, failures are logged and give an empty list
func (s *Server) recentArticles(ctx context.Context) []feed.Link {
	if s.articles == nil {
		return nil
	}
	articles, err := feed.LoadArticles(ctx, s.articles)
	if err != nil {
		return nil
	}
	return feed.RecentArticles(articles, s.config.GetFullConfig().Site.RecentCount)
}

// renderPage renders a pre-parsed page template
func (s *Server) renderPage(w http.ResponseWriter, templateName string, data any) error {
	tmpl, ok := s.pageTemplates[templateName]
	if !ok {
		return fmt.Errorf("template %s not found", templateName)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// renderFragment writes feed entries without the page layout, an empty list writes nothing
func (s *Server) renderFragment(w http.ResponseWriter, sessionID string, entries []feed.Entry) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if len(entries) == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := s.templates.ExecuteTemplate(w, templateFeedEntries, fragmentData{SessionID: sessionID, Entries: entries}); err != nil {
		log.Printf("[WARN] failed to render feed entries: %v", err)
	}
}

// respondWithError logs the error and sends a plain text response
func (s *Server) respondWithError(w http.ResponseWriter, code int, msg string, err error) {
	log.Printf("[WARN] %s: %v", msg, err)
	http.Error(w, msg, code)
}

func feedMessages(m config.Messages) feed.Messages {
	return feed.Messages{
		LoadMore:      m.LoadMore,
		End:           m.End,
		Empty:         m.Empty,
		FetchFailed:   m.FetchFailed,
		BannerHeading: m.BannerHeading,
		BannerText:    m.BannerText,
	}
}

func themeFromRequest(r *http.Request) domain.Theme {
	c, err := r.Cookie(themeCookie)
	if err != nil {
		return domain.ThemeNeon
	}
	return domain.ParseTheme(c.Value)
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "checked":
		return true
	}
	return false
}

// backURL returns the local part of the referer, the host is dropped to stay on this site
func backURL(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return "/"
	}
	return ref.RequestURI()
}

func findPost(posts []domain.Post, id domain.PostID) (domain.Post, bool) {
	for _, p := range posts {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Post{}, false
}
