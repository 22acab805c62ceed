package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/umputun/blogfeed/pkg/feed"
	"github.com/umputun/blogfeed/pkg/source"
)

const maxAPILimit = 100

// apiPost is a post in API responses
type apiPost struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Date      string   `json:"date"`
	DateLabel string   `json:"date_label"`
	Excerpt   string   `json:"excerpt"`
	Tags      []string `json:"tags"`
	Link      string   `json:"link"`
}

// apiPostsResponse is a page of the post feed
type apiPostsResponse struct {
	Posts      []apiPost `json:"posts"`
	Tag        string    `json:"tag,omitempty"`
	Total      int       `json:"total"`
	Offset     int       `json:"offset"`
	NextOffset int       `json:"next_offset"`
	HasMore    bool      `json:"has_more"`
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":   "ok",
		"version":  s.version,
		"time":     time.Now().UTC(),
		"sessions": s.sessions.len(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// apiPostsHandler returns a page of the sorted, optionally filtered feed.
// It drives the same controller as the HTML feed, positioned at offset.
func (s *Server) apiPostsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	site := s.config.GetFullConfig().Site

	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		renderError(w, r, fmt.Errorf("invalid offset %q", q.Get("offset")), http.StatusBadRequest)
		return
	}
	limit, err := queryInt(q.Get("limit"), site.PageSize)
	if err != nil || limit < 1 || limit > maxAPILimit {
		renderError(w, r, fmt.Errorf("invalid limit %q, must be 1..%d", q.Get("limit"), maxAPILimit), http.StatusBadRequest)
		return
	}
	tag := strings.TrimSpace(q.Get("tag"))

	rec := feed.NewRecorder()
	ctrl := feed.New(rec, feed.WithPageSize(limit), feed.WithLocale(site.Locale))
	if err := ctrl.Resume(r.Context(), s.posts, tag, offset); err != nil {
		code := http.StatusInternalServerError
		if source.IsFetchError(err) {
			code = http.StatusBadGateway
		}
		log.Printf("[ERROR] can't load posts for api: %v", err)
		renderError(w, r, err, code)
		return
	}
	ctrl.RevealNextBatch()

	st := ctrl.State()
	resp := apiPostsResponse{
		Posts:      []apiPost{},
		Tag:        tag,
		Total:      st.Total(),
		Offset:     min(offset, st.Total()),
		NextOffset: st.Displayed,
		HasMore:    st.Phase == feed.PhaseActive && !st.Exhausted(),
	}
	for _, it := range rec.Items() {
		resp.Posts = append(resp.Posts, apiPost{
			ID:        it.ID,
			Title:     it.Title,
			Date:      it.Date,
			DateLabel: it.DateLabel,
			Excerpt:   string(it.Excerpt),
			Tags:      it.Tags,
			Link:      it.Link,
		})
	}
	renderJSON(w, r, http.StatusOK, resp)
}

func queryInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
