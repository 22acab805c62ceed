package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/blogfeed/pkg/config"
	"github.com/umputun/blogfeed/pkg/repository"
	"github.com/umputun/blogfeed/pkg/scheduler"
	"github.com/umputun/blogfeed/pkg/source"
	"github.com/umputun/blogfeed/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" description:"configuration file, built-in defaults if empty"`
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`
	Import string `long:"import" description:"import posts from a JSON file into the database and exit"`

	// common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug, opts.NoColor)
	log.Printf("[INFO] starting blogfeed version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()
	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	log.Print("[INFO] shutdown complete")
}

func run(ctx context.Context, opts Opts) error {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}

	if opts.Import != "" {
		return importPosts(ctx, cfg, opts.Import)
	}

	var repos *repository.Repositories
	if cfg.Posts.Kind == config.KindSQLite {
		r, err := openRepositories(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := r.Close(); err != nil {
				log.Printf("[WARN] failed to close database: %v", err)
			}
		}()
		repos = r
		logImportInfo(ctx, repos)

		if cfg.Sync.Location != "" {
			sched := scheduler.NewScheduler(scheduler.Params{
				Fetcher:    makeSyncSource(cfg),
				Store:      repos.Post,
				Settings:   repos.Setting,
				SourceName: cfg.Sync.Location,
				Interval:   cfg.Sync.Interval,
			})
			sched.Start(ctx)
			defer sched.Stop()
		}
	}

	posts, err := makePostSource(cfg.Posts, repos)
	if err != nil {
		return err
	}
	articles, err := makeArticleSource(cfg.Articles)
	if err != nil {
		return err
	}
	log.Printf("[INFO] posts from %s", describe(posts))
	if articles != nil {
		log.Printf("[INFO] articles from %s", describe(articles))
	}

	srv := server.New(cfg, posts, articles, revision, opts.Debug)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// importPosts loads posts from a JSON file and replaces the database content with them
func importPosts(ctx context.Context, cfg *config.Config, path string) error {
	posts, err := source.NewFile(path).Posts(ctx)
	if err != nil {
		return fmt.Errorf("failed to read posts: %w", err)
	}

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := repos.Close(); err != nil {
			log.Printf("[WARN] failed to close database: %v", err)
		}
	}()

	if err := repos.Post.Import(ctx, posts); err != nil {
		return fmt.Errorf("failed to import posts: %w", err)
	}

	meta := map[string]string{
		repository.SettingImportedAt:   time.Now().UTC().Format(time.RFC3339),
		repository.SettingImportSource: path,
	}
	for k, v := range meta {
		if err := repos.Setting.SetSetting(ctx, k, v); err != nil {
			return fmt.Errorf("failed to save %s: %w", k, err)
		}
	}

	log.Printf("[INFO] imported %d posts from %s", len(posts), path)
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repository.Repositories, error) {
	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return repos, nil
}

// logImportInfo reports when the database was last filled, an empty database is only a warning
func logImportInfo(ctx context.Context, repos *repository.Repositories) {
	count, err := repos.Post.Count(ctx)
	if err != nil {
		log.Printf("[WARN] can't count posts: %v", err)
		return
	}
	if count == 0 {
		log.Printf("[WARN] database has no posts, run with --import to load them")
		return
	}
	at, _ := repos.Setting.GetSetting(ctx, repository.SettingImportedAt)
	src, _ := repos.Setting.GetSetting(ctx, repository.SettingImportSource)
	log.Printf("[INFO] database has %d posts, imported at %q from %q", count, at, src)
}

func makePostSource(sc config.SourceConfig, repos *repository.Repositories) (server.PostSource, error) {
	switch sc.Kind {
	case config.KindHTTP:
		return source.NewHTTP(sc.Location, sc.Timeout, sc.UserAgent), nil
	case config.KindFile:
		return source.NewFile(sc.Location), nil
	case config.KindSQLite:
		if repos == nil {
			return nil, errors.New("sqlite posts need an open database")
		}
		return repos.Post, nil
	default:
		return nil, fmt.Errorf("unsupported posts kind %q", sc.Kind)
	}
}

// makeArticleSource returns nil when articles are not configured
func makeArticleSource(sc config.SourceConfig) (server.ArticleSource, error) {
	switch sc.Kind {
	case "":
		return nil, nil
	case config.KindHTTP:
		return source.NewHTTP(sc.Location, sc.Timeout, sc.UserAgent), nil
	case config.KindFile:
		return source.NewFile(sc.Location), nil
	case config.KindRSS:
		return source.NewRSS(sc.Location, sc.Timeout, sc.UserAgent), nil
	default:
		return nil, fmt.Errorf("unsupported articles kind %q", sc.Kind)
	}
}

// makeSyncSource picks the loader for the mirrored posts, http(s) urls are fetched, anything else is a file
func makeSyncSource(cfg *config.Config) scheduler.PostFetcher {
	loc := cfg.Sync.Location
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return source.NewHTTP(loc, cfg.Posts.Timeout, cfg.Posts.UserAgent)
	}
	return source.NewFile(loc)
}

func describe(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", v)
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
