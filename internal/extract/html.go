package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/olgkv/readmecheck/internal/domain"
)

// htmlLinks pulls <a href> and <img src> out of a raw HTML fragment.
// Anchor text is only available when the closing tag is in the same fragment.
func htmlLinks(fragment []byte) []LinkEvent {
	z := html.NewTokenizer(bytes.NewReader(fragment))

	var (
		out    []LinkEvent
		anchor = -1
		text   strings.Builder
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if anchor >= 0 {
				out[anchor].Text = strings.TrimSpace(text.String())
			}
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.A:
				href := attr(tok, "href")
				if href == "" {
					continue
				}
				out = append(out, LinkEvent{URL: href, Title: attr(tok, "title"), Kind: domain.KindHTML})
				anchor = len(out) - 1
				text.Reset()
			case atom.Img:
				if src := attr(tok, "src"); src != "" {
					out = append(out, LinkEvent{URL: src, Title: attr(tok, "title"), Text: attr(tok, "alt"), Kind: domain.KindImage})
				}
			}
		case html.TextToken:
			if anchor >= 0 {
				text.Write(z.Text())
			}
		case html.EndTagToken:
			if tok := z.Token(); tok.DataAtom == atom.A && anchor >= 0 {
				out[anchor].Text = strings.TrimSpace(text.String())
				anchor = -1
			}
		}
	}
}

func attr(tok html.Token, name string) string {
	for _, a := range tok.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
