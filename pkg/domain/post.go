package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PostID is an opaque post identifier, posts.json may carry it as a string or a number
type PostID string

// UnmarshalJSON accepts both "id": "abc" and "id": 42
func (id *PostID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode post id: %w", err)
		}
		*id = PostID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("post id must be a string or a number: %w", err)
	}
	*id = PostID(n.String())
	return nil
}

// Post represents a single blog post
type Post struct {
	ID      PostID   `json:"id"`
	Title   string   `json:"title"`
	Date    Date     `json:"date"`
	Excerpt string   `json:"excerpt"`
	Tags    []string `json:"tags"`
}

// HasTag reports whether the post carries tag, compared case-insensitively as a whole label
func (p Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Article is an entry of the secondary articles list, shown as a link only
type Article struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  Date   `json:"date"`
}
