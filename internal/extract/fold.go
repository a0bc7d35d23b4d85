package extract

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/olgkv/readmecheck/internal/domain"
)

// ErrLinkBeforeHeader is returned when a link appears before the first heading,
// leaving it without a section to belong to.
var ErrLinkBeforeHeader = errors.New("link appears before the first header")

type listFrame struct {
	index int
	taken bool
}

type folder struct {
	doc     domain.Document
	current *domain.Header
	lists   []*listFrame
}

// Fold builds a Document from a stream of events. It keeps no state beyond the
// call, so the same events always produce the same Document.
func Fold(events iter.Seq[Event]) (*domain.Document, error) {
	f := &folder{}
	for ev := range events {
		if err := f.apply(ev); err != nil {
			return nil, err
		}
	}
	return f.finish(), nil
}

func (f *folder) apply(ev Event) error {
	switch e := ev.(type) {
	case HeadingEvent:
		f.current = &domain.Header{Text: e.Text, Level: e.Level, Slug: Slugify(e.Text)}
		f.doc.Headers = append(f.doc.Headers, f.current)
	case LinkEvent:
		return f.link(e)
	case ListOpenEvent:
		f.lists = append(f.lists, &listFrame{index: len(f.doc.LinkLists)})
		f.doc.LinkLists = append(f.doc.LinkLists, domain.LinkList{Header: f.current})
	case ListCloseEvent:
		if len(f.lists) == 0 {
			return errors.New("list closed without being opened")
		}
		f.lists = f.lists[:len(f.lists)-1]
	case ItemOpenEvent:
		if top := f.top(); top != nil {
			top.taken = false
		}
	case ItemCloseEvent:
	default:
		return fmt.Errorf("unknown event %T", ev)
	}
	return nil
}

func (f *folder) link(e LinkEvent) error {
	if f.current == nil {
		return fmt.Errorf("%w: %s", ErrLinkBeforeHeader, e.URL)
	}
	l := domain.Link{
		URL:    normalizeURL(e.URL),
		Title:  e.Title,
		Text:   e.Text,
		Kind:   e.Kind,
		Header: f.current,
	}
	f.doc.Links = append(f.doc.Links, l)

	// Only anchors count for list order; images are decoration.
	top := f.top()
	if top == nil || top.taken || l.Kind == domain.KindImage {
		return nil
	}
	top.taken = true
	list := &f.doc.LinkLists[top.index]
	list.Links = append(list.Links, l)
	return nil
}

func (f *folder) top() *listFrame {
	if len(f.lists) == 0 {
		return nil
	}
	return f.lists[len(f.lists)-1]
}

func (f *folder) finish() *domain.Document {
	lists := f.doc.LinkLists[:0]
	for _, ll := range f.doc.LinkLists {
		if len(ll.Links) > 0 {
			lists = append(lists, ll)
		}
	}
	f.doc.LinkLists = lists
	return &f.doc
}

// markdown escaping leaves "\_" in some destinations
func normalizeURL(url string) string {
	return strings.ReplaceAll(url, `\_`, "_")
}
