package check

import (
	"fmt"

	"github.com/olgkv/readmecheck/internal/domain"
)

// InternalLinksValid reports internal links whose anchor matches no header.
func InternalLinksValid(doc *domain.Document) Result {
	slugs := make(map[string]bool, len(doc.Headers))
	for _, h := range doc.Headers {
		slugs[h.Slug] = true
	}

	res := Result{Name: NameInternalLinksValid}
	for _, l := range doc.InternalLinks() {
		res.Checked++
		if !slugs[l.Anchor()] {
			res.Violations = append(res.Violations, Violation{Subject: l.URL, Message: "anchor matches no header"})
		}
	}
	return res
}

// AllHeadersLinked requires the anchors used by internal links to be exactly
// the slugs of the headers that should be linked: no header left out of the
// table of contents and no link to a header that should not be there.
func AllHeadersLinked(doc *domain.Document, opts Options) Result {
	linked := make(map[string]bool)
	for _, l := range doc.InternalLinks() {
		linked[l.Anchor()] = true
	}

	eligible := make(map[string]bool)
	res := Result{Name: NameAllHeadersLinked}
	for _, h := range doc.Headers {
		if opts.HeaderLinkSkip[h.Text] || h.Level > opts.MaxHeaderLevel {
			continue
		}
		res.Checked++
		eligible[h.Slug] = true
		if !linked[h.Slug] {
			res.Violations = append(res.Violations, Violation{
				Subject: fmt.Sprintf("%s (#%s)", h.Text, h.Slug),
				Message: "missing header link",
			})
		}
	}

	reported := make(map[string]bool)
	for _, l := range doc.InternalLinks() {
		anchor := l.Anchor()
		if eligible[anchor] || reported[anchor] {
			continue
		}
		reported[anchor] = true
		res.Violations = append(res.Violations, Violation{Subject: l.URL, Message: "spurious header link"})
	}
	return res
}

func SecondLevelHeadersSorted(doc *domain.Document, opts Options) Result {
	var texts []string
	for _, h := range doc.Headers {
		if h.Level == 2 && !opts.HeaderSortSkip[h.Text] {
			texts = append(texts, h.Text)
		}
	}

	res := Result{Name: NameSecondLevelSorted, Checked: len(texts)}
	for _, inv := range Sorted(texts) {
		res.Violations = append(res.Violations, Violation{
			Subject: fmt.Sprintf("%q before %q", inv.Before, inv.After),
			Message: "2nd level headers not sorted",
		})
	}
	return res
}

// ThirdLevelHeadersSorted checks each set of level-3 siblings, i.e. the
// level-3 headers between two headers of level 1 or 2. Deeper headers do not
// split a set.
func ThirdLevelHeadersSorted(doc *domain.Document) Result {
	res := Result{Name: NameThirdLevelSorted}

	var parent *domain.Header
	var group []string
	flush := func() {
		res.Checked += len(group)
		for _, inv := range Sorted(group) {
			subject := fmt.Sprintf("%q before %q", inv.Before, inv.After)
			if parent != nil {
				subject += " under " + parent.Text
			}
			res.Violations = append(res.Violations, Violation{Subject: subject, Message: "3rd level headers not sorted"})
		}
		group = nil
	}

	for _, h := range doc.Headers {
		switch {
		case h.Level < 3:
			flush()
			parent = h
		case h.Level == 3:
			group = append(group, h.Text)
		}
	}
	flush()
	return res
}

// LinksSortedInLists checks the link text order of every list under a header
// no deeper than MaxHeaderLevel.
func LinksSortedInLists(doc *domain.Document, opts Options) Result {
	res := Result{Name: NameLinksSortedInLists}
	for _, ll := range doc.LinkLists {
		if ll.Header == nil || ll.Header.Level > opts.MaxHeaderLevel {
			continue
		}
		skip := opts.LinkSortSkip[ll.Header.Text]

		var texts []string
		for _, l := range ll.Links {
			if !skip[l.Text] {
				texts = append(texts, l.Text)
			}
		}
		res.Checked += len(texts)
		for _, inv := range Sorted(texts) {
			res.Violations = append(res.Violations, Violation{
				Subject: fmt.Sprintf("%q before %q under %s", inv.Before, inv.After, ll.Header.Text),
				Message: "links not sorted in a list",
			})
		}
	}
	return res
}

// Structural runs every check that needs no network.
func Structural(doc *domain.Document, opts Options) []Result {
	return []Result{
		InternalLinksValid(doc),
		AllHeadersLinked(doc, opts),
		SecondLevelHeadersSorted(doc, opts),
		ThirdLevelHeadersSorted(doc),
		LinksSortedInLists(doc, opts),
	}
}
