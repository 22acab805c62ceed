// Package feed implements the post feed: loading, tag filtering, incremental reveal and sidebar lists.
// The controller never touches HTML directly, all output goes to a RenderTarget.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/umputun/blogfeed/pkg/domain"
	"github.com/umputun/blogfeed/pkg/source"
)

// defaults used when options are not set
const (
	DefaultPageSize    = 10
	DefaultRecentCount = 5
)

// PostSource supplies an unordered collection of posts
type PostSource interface {
	Posts(ctx context.Context) ([]domain.Post, error)
}

// Phase is the lifecycle stage of a feed within one page load
type Phase int

// feed phases, Empty, Error and Active never transition back
const (
	PhaseLoading Phase = iota
	PhaseEmpty
	PhaseError
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseEmpty:
		return "empty"
	case PhaseError:
		return "error"
	case PhaseActive:
		return "active"
	}
	return "unknown"
}

// State is the pagination state of a single feed
type State struct {
	Posts     []domain.Post // sorted and filtered
	Displayed int
	PageSize  int
	FilterTag string
	Phase     Phase

	endShown bool
}

// Total returns the number of posts in the feed
func (s State) Total() int {
	return len(s.Posts)
}

// Exhausted reports whether every post has been rendered
func (s State) Exhausted() bool {
	return s.Phase == PhaseActive && s.Displayed >= len(s.Posts)
}

// Messages holds user-visible texts of the feed
type Messages struct {
	LoadMore      string
	End           string
	Empty         string
	FetchFailed   string
	BannerHeading string // format with a single %s for the upper-cased tag
	BannerText    string
}

// DefaultMessages returns english texts
func DefaultMessages() Messages {
	return Messages{
		LoadMore:      "Load more",
		End:           "That's all for now",
		Empty:         "No posts with this tag yet...",
		FetchFailed:   "Oops... could not load the posts.",
		BannerHeading: "%s MODE ON",
		BannerText:    "Everything tagged with this topic, newest first.",
	}
}

// Controller owns the state of one feed and renders it to a target
type Controller struct {
	target    RenderTarget
	state     State
	recentN   int
	siteTitle string
	messages  Messages
	dates     domain.DateFormatter
	sanitizer *Sanitizer
	linkFn    func(id domain.PostID) string
}

// Option configures a Controller
type Option func(c *Controller)

// WithPageSize sets the reveal batch size, values below 1 are ignored
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.state.PageSize = n
		}
	}
}

// WithRecentCount sets the size of the recent posts list
func WithRecentCount(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.recentN = n
		}
	}
}

// WithLocale sets the locale used for item dates
func WithLocale(locale string) Option {
	return func(c *Controller) { c.dates = domain.NewDateFormatter(locale) }
}

// WithSiteTitle sets the title used to build the page title in filter mode
func WithSiteTitle(title string) Option {
	return func(c *Controller) { c.siteTitle = title }
}

// WithMessages overrides user-visible texts, empty fields keep defaults
func WithMessages(m Messages) Option {
	return func(c *Controller) {
		def := c.messages
		c.messages = Messages{
			LoadMore:      firstNonEmpty(m.LoadMore, def.LoadMore),
			End:           firstNonEmpty(m.End, def.End),
			Empty:         firstNonEmpty(m.Empty, def.Empty),
			FetchFailed:   firstNonEmpty(m.FetchFailed, def.FetchFailed),
			BannerHeading: firstNonEmpty(m.BannerHeading, def.BannerHeading),
			BannerText:    firstNonEmpty(m.BannerText, def.BannerText),
		}
	}
}

// WithLinkBuilder sets the function making detail page links
func WithLinkBuilder(fn func(id domain.PostID) string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.linkFn = fn
		}
	}
}

// WithSanitizer sets the excerpt sanitizer
func WithSanitizer(s *Sanitizer) Option {
	return func(c *Controller) {
		if s != nil {
			c.sanitizer = s
		}
	}
}

// New makes a controller rendering to target
func New(target RenderTarget, opts ...Option) *Controller {
	c := &Controller{
		target:    target,
		state:     State{PageSize: DefaultPageSize, Phase: PhaseLoading},
		recentN:   DefaultRecentCount,
		messages:  DefaultMessages(),
		dates:     domain.NewDateFormatter(""),
		sanitizer: NewSanitizer(),
		linkFn:    DetailLink,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DetailLink returns the default detail page link for a post
func DetailLink(id domain.PostID) string {
	return "/post?" + url.Values{"id": {string(id)}}.Encode()
}

// State returns a copy of the current feed state
func (c *Controller) State() State {
	return c.state
}

// Initialize loads posts, applies the optional tag filter and renders the first batch.
// On a fetch failure the fallback notice is rendered and the error returned, the target stays valid.
func (c *Controller) Initialize(ctx context.Context, src PostSource, filterTag string) error {
	if c.state.Phase != PhaseLoading {
		return errors.New("feed already initialized")
	}

	all, err := c.load(ctx, src)
	if err != nil {
		c.state.Phase = PhaseError
		c.target.AppendNotice(Notice{Kind: NoticeFetchFailed, Text: c.messages.FetchFailed})
		return err
	}

	c.state.FilterTag = strings.TrimSpace(filterTag)
	c.state.Posts = all
	if c.state.FilterTag != "" {
		c.state.Posts = FilterByTag(all, c.state.FilterTag)
		c.target.SetMode(Mode{Tag: c.state.FilterTag, PageTitle: c.modeTitle()})
		if len(c.state.Posts) > 0 {
			c.target.AppendNotice(Notice{
				Kind:    NoticeFilterBanner,
				Heading: fmt.Sprintf(c.messages.BannerHeading, strings.ToUpper(c.state.FilterTag)),
				Text:    c.messages.BannerText,
			})
		}
	}

	if len(c.state.Posts) == 0 {
		c.state.Phase = PhaseEmpty
		c.target.AppendNotice(Notice{Kind: NoticeEmpty, Text: c.messages.Empty})
	} else {
		c.state.Phase = PhaseActive
		c.RevealNextBatch()
	}

	// recent list always comes from the unfiltered collection
	c.target.SetRecent(ListPosts, RecentPosts(all, c.recentN, c.linkFn))
	return nil
}

// Resume restores the feed positioned after displayed posts without rendering anything.
// It is used to continue a feed whose state was lost between reveals.
func (c *Controller) Resume(ctx context.Context, src PostSource, filterTag string, displayed int) error {
	if c.state.Phase != PhaseLoading {
		return errors.New("feed already initialized")
	}

	all, err := c.load(ctx, src)
	if err != nil {
		c.state.Phase = PhaseError
		return err
	}

	c.state.FilterTag = strings.TrimSpace(filterTag)
	c.state.Posts = all
	if c.state.FilterTag != "" {
		c.state.Posts = FilterByTag(all, c.state.FilterTag)
	}
	if len(c.state.Posts) == 0 {
		c.state.Phase = PhaseEmpty
		return nil
	}

	c.state.Phase = PhaseActive
	c.state.Displayed = min(max(displayed, 0), len(c.state.Posts))
	// the end notice was already shown by whoever exhausted the feed
	c.state.endShown = c.state.Displayed == len(c.state.Posts)
	return nil
}

// RevealNextBatch renders the next page of posts and updates the load more trigger.
// Returns the number of posts rendered, zero once the feed is exhausted or not active.
func (c *Controller) RevealNextBatch() int {
	if c.state.Phase != PhaseActive {
		return 0
	}

	start := c.state.Displayed
	end := min(start+c.state.PageSize, len(c.state.Posts))
	for _, p := range c.state.Posts[start:end] {
		c.target.AppendItem(c.Item(p))
	}
	c.state.Displayed = end

	if c.state.Displayed < len(c.state.Posts) {
		// items were added below the old trigger, move it after them
		c.target.ClearAffordance()
		c.target.ShowMoreAffordance(Affordance{
			Label:    c.messages.LoadMore,
			Offset:   c.state.Displayed,
			Tag:      c.state.FilterTag,
			Activate: c.RevealNextBatch,
		})
		return end - start
	}

	c.target.ClearAffordance()
	if !c.state.endShown {
		c.state.endShown = true
		c.target.AppendNotice(Notice{Kind: NoticeEnd, Text: c.messages.End})
	}
	return end - start
}

func (c *Controller) load(ctx context.Context, src PostSource) ([]domain.Post, error) {
	posts, err := src.Posts(ctx)
	if err != nil {
		if !source.IsFetchError(err) {
			err = &source.FetchError{Source: "posts", Err: err}
		}
		log.Printf("[WARN] can't load posts: %v", err)
		return nil, err
	}
	return SortPosts(posts), nil
}

// Messages returns the user-visible texts in use
func (c *Controller) Messages() Messages {
	return c.messages
}

// Item renders a single post the same way feed items are rendered
func (c *Controller) Item(p domain.Post) Item {
	return Item{
		ID:        string(p.ID),
		Title:     p.Title,
		Date:      p.Date.String(),
		DateLabel: c.dates.Format(p.Date),
		Excerpt:   c.sanitizer.HTML(p.Excerpt),
		Tags:      p.Tags,
		Link:      c.linkFn(p.ID),
	}
}

func (c *Controller) modeTitle() string {
	if c.siteTitle == "" {
		return c.state.FilterTag
	}
	return c.state.FilterTag + ": " + c.siteTitle
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
