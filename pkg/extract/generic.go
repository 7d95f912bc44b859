package extract

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// Generic reads every span.IPA inside the level-2 section named after the
// language. It handles both the current heading markup (<h2 id="English">)
// and the legacy one (<h2><span class="mw-headline" id="English">).
var Generic Extractor = Func(extractGeneric)

func extractGeneric(ctx context.Context, _ string, doc *html.Node, opts Options) ([]string, error) {
	open, closing := "/", "/"
	if opts.Phonetic {
		open, closing = "[", "]"
	}
	anchor := strings.ReplaceAll(opts.Language, " ", "_")

	var prons []string
	inSection := false
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "h2" {
				inSection = headingMatches(n, opts.Language, anchor)
				return
			}
			if inSection && n.Data == "span" && hasClass(n, "IPA") {
				if p, ok := unwrap(textContent(n), open, closing); ok && !slices.Contains(prons, p) {
					prons = append(prons, p)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return prons, ctx.Err()
}

func headingMatches(h *html.Node, language, anchor string) bool {
	if attr(h, "id") == anchor {
		return true
	}
	if strings.TrimSpace(textContent(h)) == language {
		return true
	}
	found := false
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, "mw-headline") && attr(n, "id") == anchor {
			found = true
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(h)
	return found
}

// unwrap strips the transcription delimiters. Transcriptions using the other
// delimiter pair are rejected.
func unwrap(s, open, closing string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) <= len(open)+len(closing) || !strings.HasPrefix(s, open) || !strings.HasSuffix(s, closing) {
		return "", false
	}
	inner := strings.TrimSpace(s[len(open) : len(s)-len(closing)])
	return inner, inner != ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
