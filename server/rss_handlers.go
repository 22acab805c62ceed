package server

import (
	"log"
	"net/http"
	"strings"
)

const defaultRSSLimit = 50

// rssHandler serves an RSS feed of the latest posts, /rss?tag=... limits it to a tag
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimSpace(r.URL.Query().Get("tag"))

	posts, err := s.posts.Posts(r.Context())
	if err != nil {
		log.Printf("[ERROR] failed to get posts for RSS: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusBadGateway)
		return
	}

	rss, err := s.generator.GenerateRSS(posts, tag, defaultRSSLimit)
	if err != nil {
		log.Printf("[ERROR] failed to generate RSS feed: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(rss)); err != nil {
		log.Printf("[ERROR] failed to write RSS response: %v", err)
	}
}
