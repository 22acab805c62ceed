package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/blogfeed/pkg/domain"
)

// PostRepository handles post-related database operations
type PostRepository struct {
	db *sqlx.DB
}

// postSQL represents a post row
type postSQL struct {
	Seq     int64  `db:"seq"`
	ID      string `db:"id"`
	Title   string `db:"title"`
	Date    string `db:"date"`
	Excerpt string `db:"excerpt"`
}

// tagSQL represents a post_tags row
type tagSQL struct {
	PostID   string `db:"post_id"`
	Position int    `db:"position"`
	Tag      string `db:"tag"`
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Posts returns all posts in import order, it makes the repository a post source
func (r *PostRepository) Posts(ctx context.Context) ([]domain.Post, error) {
	var rows []postSQL
	if err := r.db.SelectContext(ctx, &rows, "SELECT seq, id, title, date, excerpt FROM posts ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("get posts: %w", err)
	}

	var tags []tagSQL
	if err := r.db.SelectContext(ctx, &tags, "SELECT post_id, position, tag FROM post_tags ORDER BY post_id, position"); err != nil {
		return nil, fmt.Errorf("get post tags: %w", err)
	}
	tagsByPost := make(map[string][]string, len(rows))
	for _, t := range tags {
		tagsByPost[t.PostID] = append(tagsByPost[t.PostID], t.Tag)
	}

	posts := make([]domain.Post, 0, len(rows))
	for _, row := range rows {
		p, err := r.toDomainPost(row, tagsByPost[row.ID])
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// Count returns the number of stored posts
func (r *PostRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM posts"); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

// Import replaces all stored posts with the given ones in a single transaction.
// The order of posts is kept, post ids must be unique.
func (r *PostRepository) Import(ctx context.Context, posts []domain.Post) error {
	seen := make(map[domain.PostID]bool, len(posts))
	for _, p := range posts {
		if p.ID == "" {
			return fmt.Errorf("import posts: post %q has no id", p.Title)
		}
		if seen[p.ID] {
			return fmt.Errorf("import posts: duplicate post id %q", p.ID)
		}
		seen[p.ID] = true
	}

	return lockRetrier().Do(ctx, func() error {
		err := r.replaceAll(ctx, posts)
		if err != nil && !isLockError(err) {
			return &criticalError{err: err}
		}
		return err
	})
}

func (r *PostRepository) replaceAll(ctx context.Context, posts []domain.Post) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM post_tags"); err != nil {
		return fmt.Errorf("clear post tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM posts"); err != nil {
		return fmt.Errorf("clear posts: %w", err)
	}

	for _, p := range posts {
		row := postSQL{ID: string(p.ID), Title: p.Title, Excerpt: p.Excerpt}
		if !p.Date.IsZero() {
			row.Date = p.Date.String()
		}
		query := `INSERT INTO posts (id, title, date, excerpt) VALUES (:id, :title, :date, :excerpt)`
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("insert post %s: %w", p.ID, err)
		}
		for i, tag := range p.Tags {
			if _, err := tx.ExecContext(ctx, "INSERT INTO post_tags (post_id, position, tag) VALUES (?, ?, ?)",
				string(p.ID), i, tag); err != nil {
				return fmt.Errorf("insert tag %q of post %s: %w", tag, p.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func (r *PostRepository) toDomainPost(row postSQL, tags []string) (domain.Post, error) {
	p := domain.Post{ID: domain.PostID(row.ID), Title: row.Title, Excerpt: row.Excerpt, Tags: tags}
	if row.Date == "" {
		return p, nil
	}
	d, err := domain.ParseDate(row.Date)
	if err != nil {
		return domain.Post{}, fmt.Errorf("post %s: %w", row.ID, err)
	}
	p.Date = d
	return p, nil
}

// String describes the source for logs and errors
func (r *PostRepository) String() string {
	return "sqlite posts"
}
