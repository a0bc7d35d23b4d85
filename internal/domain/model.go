package domain

import "strings"

type LinkKind string

const (
	KindLink  LinkKind = "link"
	KindImage LinkKind = "image"
	KindHTML  LinkKind = "html"
)

// Header is a markdown heading together with its GitHub-style anchor slug.
type Header struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
	Slug  string `json:"slug"`
}

// Link is a markdown link or image. Two links are the same link when their
// URLs are equal; see UniqueByURL.
type Link struct {
	URL    string   `json:"url"`
	Title  string   `json:"title,omitempty"`
	Text   string   `json:"text"`
	Kind   LinkKind `json:"kind"`
	Header *Header  `json:"-"`
}

func (l Link) IsExternal() bool { return strings.HasPrefix(l.URL, "http") }

func (l Link) IsInternal() bool { return strings.HasPrefix(l.URL, "#") }

// Anchor returns the slug an internal link points at.
func (l Link) Anchor() string { return strings.TrimLeft(l.URL, "#") }

func (l Link) String() string {
	if l.Header == nil {
		return "[" + l.Text + "](" + l.URL + ")"
	}
	return "[" + l.Text + "](" + l.URL + ") under " + l.Header.Text
}

// LinkList holds the first link of every item of one list block.
type LinkList struct {
	Header *Header
	Links  []Link
}

type Document struct {
	Headers   []*Header
	Links     []Link
	LinkLists []LinkList
}

// UniqueByURL drops repeated URLs, keeping the first occurrence and its order.
func UniqueByURL(links []Link) []Link {
	seen := make(map[string]struct{}, len(links))
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l.URL]; ok {
			continue
		}
		seen[l.URL] = struct{}{}
		out = append(out, l)
	}
	return out
}

// ExternalLinks returns the deduplicated http(s) links in first-seen order.
func (d *Document) ExternalLinks() []Link {
	var out []Link
	for _, l := range UniqueByURL(d.Links) {
		if l.IsExternal() {
			out = append(out, l)
		}
	}
	return out
}

func (d *Document) InternalLinks() []Link {
	var out []Link
	for _, l := range d.Links {
		if l.IsInternal() {
			out = append(out, l)
		}
	}
	return out
}
