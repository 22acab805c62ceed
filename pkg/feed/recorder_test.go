package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_AffordanceStaysLast(t *testing.T) {
	r := NewRecorder()
	r.AppendItem(Item{ID: "1"})
	r.ShowMoreAffordance(Affordance{Label: "more", Offset: 1})
	r.AppendItem(Item{ID: "2"})
	r.ShowMoreAffordance(Affordance{Label: "more", Offset: 2})

	entries := r.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "1", entries[0].Item.ID)
	assert.Equal(t, "2", entries[1].Item.ID)
	require.NotNil(t, entries[2].Affordance)
	assert.Equal(t, 2, entries[2].Affordance.Offset)

	a, ok := r.Affordance()
	require.True(t, ok)
	assert.Equal(t, 2, a.Offset)
}

func TestRecorder_ClearAffordance(t *testing.T) {
	r := NewRecorder()
	r.ClearAffordance() // nothing to clear
	r.AppendItem(Item{ID: "1"})
	r.ShowMoreAffordance(Affordance{Label: "more"})
	r.ClearAffordance()
	r.ClearAffordance()

	assert.Len(t, r.Entries(), 1)
	_, ok := r.Affordance()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Activate())
}

func TestRecorder_Take(t *testing.T) {
	r := NewRecorder()
	r.SetMode(Mode{Tag: "go"})
	r.SetRecent(ListPosts, []Link{{Title: "a", URL: "/a"}})
	r.AppendNotice(Notice{Kind: NoticeFilterBanner})
	r.AppendItem(Item{ID: "1"})
	r.ShowMoreAffordance(Affordance{Offset: 1, Activate: func() int { return 7 }})

	taken := r.Take()
	assert.Len(t, taken, 3)
	assert.Empty(t, r.Entries())

	// trigger, mode and sidebar survive
	_, ok := r.Affordance()
	assert.True(t, ok)
	assert.Equal(t, 7, r.Activate())
	m, ok := r.Mode()
	require.True(t, ok)
	assert.Equal(t, "go", m.Tag)
	assert.Len(t, r.Recent(ListPosts), 1)

	// clearing a taken trigger only forgets it
	r.AppendItem(Item{ID: "2"})
	r.ClearAffordance()
	assert.Len(t, r.Entries(), 1)
}

func TestRecorder_Lists(t *testing.T) {
	r := NewRecorder(ListArticles)
	r.SetRecent(ListPosts, []Link{{Title: "p"}})
	r.SetRecent(ListArticles, []Link{{Title: "a"}})
	assert.Nil(t, r.Recent(ListPosts))
	assert.Equal(t, []Link{{Title: "a"}}, r.Recent(ListArticles))

	all := NewRecorder()
	all.SetRecent(ListPosts, []Link{{Title: "p"}})
	assert.Len(t, all.Recent(ListPosts), 1)
}

func TestRecorder_Notices(t *testing.T) {
	r := NewRecorder()
	r.AppendNotice(Notice{Kind: NoticeEmpty, Text: "empty"})
	r.AppendNotice(Notice{Kind: NoticeEnd, Text: "end"})
	assert.Len(t, r.Notices(NoticeEmpty), 1)
	assert.Equal(t, "end", r.Notices(NoticeEnd)[0].Text)
	assert.Empty(t, r.Notices(NoticeFetchFailed))
	assert.Empty(t, r.Items())
}
