package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/blogfeed/pkg/config"
	"github.com/umputun/blogfeed/pkg/domain"
	"github.com/umputun/blogfeed/pkg/feed"
)

//go:generate moq -out mocks/config.go -pkg mocks -skip-ensure -fmt goimports . ConfigProvider
//go:generate moq -out mocks/posts.go -pkg mocks -skip-ensure -fmt goimports . PostSource
//go:generate moq -out mocks/articles.go -pkg mocks -skip-ensure -fmt goimports . ArticleSource

//go:embed templates
var templatesFS embed.FS

// Server represents HTTP server instance
type Server struct {
	config   ConfigProvider
	posts    PostSource
	articles ArticleSource
	version  string
	debug    bool

	sessions      *sessionStore
	generator     *feed.Generator
	templates     *template.Template
	pageTemplates map[string]*template.Template

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
	GetFullConfig() *config.Config
}

// PostSource supplies blog posts
type PostSource interface {
	Posts(ctx context.Context) ([]domain.Post, error)
}

// ArticleSource supplies the secondary articles list
type ArticleSource interface {
	Articles(ctx context.Context) ([]domain.Article, error)
}

// New initializes a new server instance, articles may be nil
func New(cfg ConfigProvider, posts PostSource, articles ArticleSource, version string, debug bool) *Server {
	full := cfg.GetFullConfig()
	s := &Server{
		config:    cfg,
		posts:     posts,
		articles:  articles,
		version:   version,
		debug:     debug,
		sessions:  newSessionStore(full.Server.SessionTTL),
		generator: feed.NewGenerator(full.Server.BaseURL, full.Site.Title),
		router:    routegroup.New(http.NewServeMux()),
	}

	s.templates, s.pageTemplates = mustParseTemplates()
	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	log.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.lock.Lock()
		defer s.lock.Unlock()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("blogfeed", "umputun", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(64 * 1024))
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /{$}", s.indexHandler)
	s.router.HandleFunc("GET /feed/{session}/more", s.moreHandler)
	s.router.HandleFunc("GET /post", s.postHandler)
	s.router.HandleFunc("POST /theme", s.themeHandler)
	s.router.HandleFunc("GET /rss", s.rssHandler)

	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /posts", s.apiPostsHandler)
	})
}

// mustParseTemplates parses embedded templates, shared partials go to the first result
// and every page gets its own copy combined with the base layout
func mustParseTemplates() (*template.Template, map[string]*template.Template) {
	funcs := template.FuncMap{"moreURL": moreURL}
	partials := template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/partials/*.html"))

	pages := map[string]*template.Template{}
	files, err := fs.Glob(templatesFS, "templates/pages/*.html")
	if err != nil {
		panic(fmt.Sprintf("list page templates: %v", err))
	}
	for _, f := range files {
		tmpl := template.Must(template.Must(partials.Clone()).ParseFS(templatesFS, "templates/base.html", f))
		pages[path.Base(f)] = tmpl
	}
	return partials, pages
}

// moreURL makes the load more link of a page session, offset and tag let an expired session resume
func moreURL(sessionID string, a *feed.Affordance) string {
	q := url.Values{"offset": {strconv.Itoa(a.Offset)}}
	if a.Tag != "" {
		q.Set("tag", a.Tag)
	}
	if sessionID == "" {
		sessionID = "expired"
	}
	return "/feed/" + url.PathEscape(sessionID) + "/more?" + q.Encode()
}
