package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/umputun/blogfeed/pkg/domain"
)

// File loads posts or articles from a local JSON file, re-read on every call
type File struct {
	path string
}

// NewFile creates a JSON file source
func NewFile(path string) *File {
	return &File{path: path}
}

// Posts reads and decodes the posts list
func (f *File) Posts(_ context.Context) ([]domain.Post, error) {
	var posts []domain.Post
	if err := f.readJSON(&posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Articles reads and decodes the articles list
func (f *File) Articles(_ context.Context) ([]domain.Article, error) {
	var articles []domain.Article
	if err := f.readJSON(&articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// String returns the file path, used in logs
func (f *File) String() string {
	return f.path
}

func (f *File) readJSON(v any) error {
	data, err := os.ReadFile(f.path) //nolint:gosec // path comes from config
	if err != nil {
		return &FetchError{Source: f.path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &FetchError{Source: f.path, Err: fmt.Errorf("decode file: %w", err)}
	}
	return nil
}
