package extract

import (
	"bytes"
	"iter"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/olgkv/readmecheck/internal/domain"
)

// Events parses source with goldmark and replays the AST as a stream of
// structural events.
func Events(source []byte, opts Options) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		md := goldmark.New(goldmark.WithExtensions(extension.GFM))
		root := md.Parser().Parse(text.NewReader(source))

		emit := func(ev Event) gmast.WalkStatus {
			if !yield(ev) {
				return gmast.WalkStop
			}
			return gmast.WalkContinue
		}

		_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
			switch node := n.(type) {
			case *gmast.Heading:
				if entering {
					return emit(HeadingEvent{Level: node.Level, Text: plainText(node, source)}), nil
				}
			case *gmast.Link:
				if entering {
					return emit(LinkEvent{
						URL:   string(node.Destination),
						Title: string(node.Title),
						Text:  plainText(node, source),
						Kind:  domain.KindLink,
					}), nil
				}
			case *gmast.Image:
				if entering {
					return emit(LinkEvent{
						URL:   string(node.Destination),
						Title: string(node.Title),
						Text:  plainText(node, source),
						Kind:  domain.KindImage,
					}), nil
				}
			case *gmast.List:
				if entering {
					return emit(ListOpenEvent{}), nil
				}
				return emit(ListCloseEvent{}), nil
			case *gmast.ListItem:
				if entering {
					return emit(ItemOpenEvent{}), nil
				}
				return emit(ItemCloseEvent{}), nil
			case *gmast.HTMLBlock:
				if entering && opts.RawHTML {
					return emitAll(htmlLinks(htmlBlockBytes(node, source)), emit), nil
				}
			case *gmast.RawHTML:
				if entering && opts.RawHTML {
					return emitAll(htmlLinks(rawHTMLBytes(node, source)), emit), nil
				}
			}
			return gmast.WalkContinue, nil
		})
	}
}

func emitAll(events []LinkEvent, emit func(Event) gmast.WalkStatus) gmast.WalkStatus {
	for _, ev := range events {
		if emit(ev) == gmast.WalkStop {
			return gmast.WalkStop
		}
	}
	return gmast.WalkContinue
}

// plainText concatenates the text below n, ignoring inline markup. Escapes
// and character references are decoded as they render, except in code spans.
func plainText(n gmast.Node, source []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.CodeSpan:
			for child := t.FirstChild(); child != nil; child = child.NextSibling() {
				if txt, ok := child.(*gmast.Text); ok {
					b.Write(txt.Segment.Value(source))
				}
			}
			return gmast.WalkSkipChildren, nil
		case *gmast.Text:
			b.Write(decodeText(t.Segment.Value(source)))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			if t.IsCode() || t.IsRaw() {
				b.Write(t.Value)
			} else {
				b.Write(decodeText(t.Value))
			}
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func decodeText(v []byte) []byte {
	v = util.UnescapePunctuations(v)
	v = util.ResolveNumericReferences(v)
	return util.ResolveEntityNames(v)
}

func htmlBlockBytes(n *gmast.HTMLBlock, source []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	if n.HasClosure() {
		buf.Write(n.ClosureLine.Value(source))
	}
	return buf.Bytes()
}

func rawHTMLBytes(n *gmast.RawHTML, source []byte) []byte {
	var buf bytes.Buffer
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.Bytes()
}
