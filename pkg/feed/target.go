package feed

import "html/template"

// RenderTarget is an ordered output surface the controller appends to.
// Implementations must not call back into the controller synchronously.
type RenderTarget interface {
	AppendItem(item Item)
	AppendNotice(notice Notice)
	ShowMoreAffordance(a Affordance)
	ClearAffordance()
	SetMode(mode Mode)
	SetRecent(list ListKind, links []Link)
}

// Item is a rendered post
type Item struct {
	ID        string
	Title     string
	Date      string // YYYY-MM-DD, for the datetime attribute
	DateLabel string // localized date
	Excerpt   template.HTML
	Tags      []string
	Link      string
}

// NoticeKind identifies a message rendered in place of, or after, feed items
type NoticeKind int

// notice kinds
const (
	NoticeFetchFailed NoticeKind = iota
	NoticeEmpty
	NoticeFilterBanner
	NoticeEnd
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeFetchFailed:
		return "fetch-failed"
	case NoticeEmpty:
		return "empty"
	case NoticeFilterBanner:
		return "filter-banner"
	case NoticeEnd:
		return "end"
	}
	return "unknown"
}

// Notice is a non-item message of the feed
type Notice struct {
	Kind    NoticeKind
	Heading string
	Text    string
}

// Affordance is the "load more" trigger positioned after the last rendered item
type Affordance struct {
	Label    string
	Offset   int    // number of posts already rendered
	Tag      string // active filter tag, empty if none
	Activate func() int
}

// Mode is the decoration applied to the page while a tag filter is active
type Mode struct {
	Tag       string
	PageTitle string
}

// ListKind names a sidebar list
type ListKind string

// sidebar lists
const (
	ListPosts    ListKind = "recent-posts"
	ListArticles ListKind = "recent-articles"
)

// Link is an entry of a sidebar list
type Link struct {
	Title string
	URL   string
}
