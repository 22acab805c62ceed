// Package scheduler keeps the sqlite copy of the posts in sync with a remote posts JSON.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"

	"github.com/umputun/blogfeed/pkg/domain"
	"github.com/umputun/blogfeed/pkg/repository"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . PostFetcher
//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . PostStore
//go:generate moq -out mocks/settings.go -pkg mocks -skip-ensure -fmt goimports . SettingStore

// PostFetcher loads posts from the mirrored location
type PostFetcher interface {
	Posts(ctx context.Context) ([]domain.Post, error)
}

// PostStore replaces stored posts
type PostStore interface {
	Import(ctx context.Context, posts []domain.Post) error
}

// SettingStore keeps sync metadata
type SettingStore interface {
	SetSetting(ctx context.Context, key, value string) error
}

// Params for the scheduler
type Params struct {
	Fetcher    PostFetcher
	Store      PostStore
	Settings   SettingStore
	SourceName string // shown in logs and saved with the sync time

	Interval          time.Duration
	RetryAttempts     int
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration
}

// Scheduler refreshes stored posts periodically
type Scheduler struct {
	fetcher    PostFetcher
	store      PostStore
	settings   SettingStore
	sourceName string

	interval          time.Duration
	retryAttempts     int
	retryInitialDelay time.Duration
	retryMaxDelay     time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
	now    func() time.Time

	mu       sync.Mutex
	lastSync time.Time
	lastErr  error
}

// NewScheduler creates a scheduler, zero retry params get defaults
func NewScheduler(p Params) *Scheduler {
	if p.Interval <= 0 {
		p.Interval = 15 * time.Minute
	}
	if p.RetryAttempts <= 0 {
		p.RetryAttempts = 3
	}
	if p.RetryInitialDelay <= 0 {
		p.RetryInitialDelay = time.Second
	}
	if p.RetryMaxDelay <= 0 {
		p.RetryMaxDelay = 30 * time.Second
	}
	return &Scheduler{
		fetcher:           p.Fetcher,
		store:             p.Store,
		settings:          p.Settings,
		sourceName:        p.SourceName,
		interval:          p.Interval,
		retryAttempts:     p.RetryAttempts,
		retryInitialDelay: p.RetryInitialDelay,
		retryMaxDelay:     p.RetryMaxDelay,
		now:               time.Now,
	}
}

// Start runs a sync immediately and then every interval until Stop or ctx cancellation
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.syncWorker(ctx)

	lgr.Printf("[INFO] scheduler started, syncing posts from %s every %v", s.sourceName, s.interval)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

func (s *Scheduler) syncWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// run immediately on start
	s.syncAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncAndLog(ctx)
		}
	}
}

func (s *Scheduler) syncAndLog(ctx context.Context) {
	if err := s.Sync(ctx); err != nil && ctx.Err() == nil {
		lgr.Printf("[WARN] posts sync from %s failed, keeping stored posts: %v", s.sourceName, err)
	}
}

// Sync fetches posts, retrying transient failures, and replaces the stored set.
// A failed fetch leaves stored posts untouched.
func (s *Scheduler) Sync(ctx context.Context) error {
	var posts []domain.Post
	rep := repeater.NewBackoff(s.retryAttempts, s.retryInitialDelay, repeater.WithMaxDelay(s.retryMaxDelay))
	err := rep.Do(ctx, func() error {
		var fetchErr error
		posts, fetchErr = s.fetcher.Posts(ctx)
		if fetchErr != nil {
			lgr.Printf("[DEBUG] fetch posts from %s: %v", s.sourceName, fetchErr)
		}
		return fetchErr
	})
	if err != nil {
		s.setResult(err)
		return fmt.Errorf("fetch posts: %w", err)
	}

	if err := s.store.Import(ctx, posts); err != nil {
		s.setResult(err)
		return fmt.Errorf("store posts: %w", err)
	}

	at := s.now().UTC()
	var errs []error
	for k, v := range map[string]string{
		repository.SettingImportedAt:   at.Format(time.RFC3339),
		repository.SettingImportSource: s.sourceName,
	} {
		if err := s.settings.SetSetting(ctx, k, v); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", k, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		lgr.Printf("[WARN] posts synced but metadata not saved: %v", err)
	}

	s.mu.Lock()
	s.lastSync, s.lastErr = at, nil
	s.mu.Unlock()
	lgr.Printf("[INFO] synced %d posts from %s", len(posts), s.sourceName)
	return nil
}

// LastSync returns the time of the last successful sync and the error of the last attempt, if it failed
func (s *Scheduler) LastSync() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync, s.lastErr
}

func (s *Scheduler) setResult(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
