package feed

// Entry is a single element recorded in output order, exactly one field is set
type Entry struct {
	Item       *Item
	Notice     *Notice
	Affordance *Affordance
}

// Recorder is an in-memory RenderTarget keeping output in order.
// Entries are collected until Take, the affordance and sidebar lists survive Take.
// Recorder is not thread-safe, callers serialize access the same way they serialize the controller.
type Recorder struct {
	entries    []Entry
	affordance *Affordance
	mode       *Mode
	recent     map[ListKind][]Link
	lists      map[ListKind]bool
}

// NewRecorder makes a recorder. If lists are given only those sidebar lists exist on the target,
// SetRecent for any other list is ignored. No lists means all lists exist.
func NewRecorder(lists ...ListKind) *Recorder {
	r := &Recorder{recent: map[ListKind][]Link{}}
	if len(lists) > 0 {
		r.lists = map[ListKind]bool{}
		for _, l := range lists {
			r.lists[l] = true
		}
	}
	return r
}

// AppendItem records a rendered post
func (r *Recorder) AppendItem(item Item) {
	r.entries = append(r.entries, Entry{Item: &item})
}

// AppendNotice records a notice
func (r *Recorder) AppendNotice(notice Notice) {
	r.entries = append(r.entries, Entry{Notice: &notice})
}

// ShowMoreAffordance places a trigger after the last entry, replacing any existing one
func (r *Recorder) ShowMoreAffordance(a Affordance) {
	r.ClearAffordance()
	r.affordance = &a
	r.entries = append(r.entries, Entry{Affordance: r.affordance})
}

// ClearAffordance removes the trigger if present
func (r *Recorder) ClearAffordance() {
	if r.affordance == nil {
		return
	}
	for i, e := range r.entries {
		if e.Affordance == r.affordance {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
	r.affordance = nil
}

// SetMode records the filter mode marker
func (r *Recorder) SetMode(mode Mode) {
	r.mode = &mode
}

// SetRecent fills a sidebar list, a no-op for lists the target doesn't have
func (r *Recorder) SetRecent(list ListKind, links []Link) {
	if r.lists != nil && !r.lists[list] {
		return
	}
	r.recent[list] = links
}

// Entries returns recorded entries not yet taken
func (r *Recorder) Entries() []Entry {
	return r.entries
}

// Take returns recorded entries and forgets them, used to emit output in increments
func (r *Recorder) Take() []Entry {
	res := r.entries
	r.entries = nil
	return res
}

// Items returns recorded items not yet taken
func (r *Recorder) Items() []Item {
	var res []Item
	for _, e := range r.entries {
		if e.Item != nil {
			res = append(res, *e.Item)
		}
	}
	return res
}

// Notices returns recorded notices of the given kind not yet taken
func (r *Recorder) Notices(kind NoticeKind) []Notice {
	var res []Notice
	for _, e := range r.entries {
		if e.Notice != nil && e.Notice.Kind == kind {
			res = append(res, *e.Notice)
		}
	}
	return res
}

// Affordance returns the current "load more" trigger
func (r *Recorder) Affordance() (Affordance, bool) {
	if r.affordance == nil {
		return Affordance{}, false
	}
	return *r.affordance, true
}

// Activate fires the current trigger, returns number of posts revealed
func (r *Recorder) Activate() int {
	if r.affordance == nil || r.affordance.Activate == nil {
		return 0
	}
	return r.affordance.Activate()
}

// Mode returns the filter mode marker if set
func (r *Recorder) Mode() (Mode, bool) {
	if r.mode == nil {
		return Mode{}, false
	}
	return *r.mode, true
}

// Recent returns a sidebar list
func (r *Recorder) Recent(list ListKind) []Link {
	return r.recent[list]
}
