// Package parse turns raw HTML bodies into structured pages.
package parse

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/leadspider/spider/internal/crawl"
)

// Parser extracts the title, visible text, and outbound links from HTML. It
// is total over arbitrary input: malformed markup yields whatever partial
// page was recovered before the tokenizer stopped, never an error.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// Parse tokenizes body and assembles a Page. Text nodes inside script,
// style, and noscript elements are not visible and are discarded; title
// text counts as visible and appears in both Title and Text. Links are
// href values of anchor tags resolved absolute against pageURL, restricted
// to http and https, with fragments stripped. Duplicate links are kept in
// document order; deduplication is the frontier's job.
func (p *Parser) Parse(pageURL string, body []byte) (*crawl.Page, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var (
		textParts []string
		links     []string
		title     strings.Builder
		inTitle   bool
		skip      string
	)

	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return &crawl.Page{
				Title: title.String(),
				Text:  strings.Join(textParts, " "),
				Links: links,
			}, nil
		}

		tok := z.Token()
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			switch tok.Data {
			case "a":
				if href, ok := attr(tok, "href"); ok {
					if resolved, ok := resolveLink(base, href); ok {
						links = append(links, resolved)
					}
				}
			case "title":
				if tt == html.StartTagToken {
					inTitle = true
				}
			case "script", "style", "noscript":
				if tt == html.StartTagToken {
					skip = tok.Data
				}
			}
		case html.EndTagToken:
			switch {
			case tok.Data == "title":
				inTitle = false
			case skip != "" && tok.Data == skip:
				skip = ""
			}
		case html.TextToken:
			if skip != "" {
				continue
			}
			clean := strings.TrimSpace(tok.Data)
			if clean == "" {
				continue
			}
			if inTitle {
				title.WriteString(clean)
			}
			textParts = append(textParts, clean)
		}
	}
}

func attr(tok html.Token, name string) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// resolveLink makes href absolute against the page URL. Only http and
// https targets survive; fragments are stripped. No case or trailing-slash
// normalization is applied, so such variants stay distinct URLs.
func resolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	resolved.Fragment = ""
	return resolved.String(), true
}
