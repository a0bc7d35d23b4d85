package extract

import "github.com/olgkv/readmecheck/internal/domain"

// Event is one structural element of a markdown document, in document order.
type Event interface {
	event()
}

type HeadingEvent struct {
	Level int
	Text  string
}

type LinkEvent struct {
	URL   string
	Title string
	Text  string
	Kind  domain.LinkKind
}

type ListOpenEvent struct{}

type ListCloseEvent struct{}

type ItemOpenEvent struct{}

type ItemCloseEvent struct{}

func (HeadingEvent) event()   {}
func (LinkEvent) event()      {}
func (ListOpenEvent) event()  {}
func (ListCloseEvent) event() {}
func (ItemOpenEvent) event()  {}
func (ItemCloseEvent) event() {}
