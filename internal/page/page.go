// Package page turns a fetched body into the summary shown under the
// response: title, links, readable text and tokenizer diagnostics.
package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/mochi-browser/taskbridge/core"
	"github.com/mochi-browser/taskbridge/internal/htmltok"
)

// DefaultBatch is the number of tokens Task reads per increment.
const DefaultBatch = 256

// Link is an anchor with an href.
type Link struct {
	Href string
	Text string
}

// Document summarizes one page.
type Document struct {
	Title string
	Links []Link
	// Text is the visible body text with whitespace collapsed.
	Text string

	// TokenCount is the number of tokens the strict tokenizer read, up to
	// TokenError if it stopped early.
	TokenCount int
	TokenError error
}

// WellFormed reports whether the strict tokenizer accepted the whole body.
func (d *Document) WellFormed() bool { return d.TokenError == nil }

// Analyze parses body leniently and extracts the title, links and text.
// It does not run the strict tokenizer.
func Analyze(body string) (*Document, error) {
	root, err := htmlquery.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &Document{}
	if n := htmlquery.FindOne(root, "//title"); n != nil {
		doc.Title = collapse(htmlquery.InnerText(n))
	}
	for _, n := range htmlquery.Find(root, "//a[@href]") {
		doc.Links = append(doc.Links, Link{
			Href: strings.TrimSpace(htmlquery.SelectAttr(n, "href")),
			Text: collapse(htmlquery.InnerText(n)),
		})
	}
	if body := htmlquery.FindOne(root, "//body"); body != nil {
		var sb strings.Builder
		visibleText(body, &sb)
		doc.Text = collapse(sb.String())
	}
	return doc, nil
}

// Task tokenizes body batch tokens per increment, then analyzes it. On the
// cooperative backend each batch is a separate host turn, so large pages do
// not stall the UI. A tokenizer error is recorded, not returned.
func Task(body string, batch int) core.Task[*Document] {
	if batch <= 0 {
		batch = DefaultBatch
	}
	z := htmltok.New(body)
	count := 0

	return core.Steps(func(ctx context.Context) (*Document, bool, error) {
		for i := 0; i < batch; i++ {
			_, err := z.Next()
			if err == nil {
				count++
				continue
			}

			doc, aerr := Analyze(body)
			if aerr != nil {
				return nil, true, aerr
			}
			doc.TokenCount = count
			if !errors.Is(err, io.EOF) {
				doc.TokenError = err
			}
			return doc, true, nil
		}
		return nil, false, nil
	}).Named("analyze")
}

func visibleText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		}
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(c, sb)
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
