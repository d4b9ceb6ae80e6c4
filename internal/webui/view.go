// Package webui renders a browser.Session into the DOM of a web page. The
// DOM binding only builds for js/wasm; the text rendering is shared.
package webui

import (
	"fmt"
	"strings"

	"github.com/mochi-browser/taskbridge/internal/browser"
)

// View is the text content of each page region.
type View struct {
	Label   string
	Status  string
	Busy    bool
	Headers string
	Page    string
	Body    string
}

// Render derives the page regions from s.
func Render(s *browser.Session) View {
	v := View{
		Label:  s.Label,
		Status: s.Status,
		Busy:   s.Loading,
	}
	if v.Status == "" {
		v.Status = "Ready"
	}

	r := s.Response
	if r == nil {
		return v
	}

	var headers strings.Builder
	if r.Status != 0 {
		fmt.Fprintf(&headers, "Status: %d\n", r.Status)
	}
	for _, h := range r.Headers {
		fmt.Fprintf(&headers, "%s: %s\n", h.Name, h.Value)
	}
	v.Headers = headers.String()
	v.Body = r.Body

	if d := s.Document; d != nil {
		var p strings.Builder
		if d.Title != "" {
			fmt.Fprintf(&p, "title: %s\n", d.Title)
		}
		fmt.Fprintf(&p, "links: %d\n", len(d.Links))
		for _, l := range d.Links {
			fmt.Fprintf(&p, "  %s  %s\n", l.Href, l.Text)
		}
		fmt.Fprintf(&p, "tokens: %d\n", d.TokenCount)
		if d.TokenError != nil {
			fmt.Fprintf(&p, "token error: %v\n", d.TokenError)
		}
		v.Page = p.String()
	}
	return v
}
