// Package extractor turns fetched HTML into structured page data.
package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"clearcrawl/internal/types"
)

// contentSelector matches the content-bearing elements whose visible text is
// concatenated into PageData.Content.
const contentSelector = "p, h1, h2, h3, h4, h5, h6, li, span, div"

// Extract parses HTML fetched from baseURL into PageData. It is a pure
// function of its inputs: no network access, no mutable state.
//
// Link policy: only internal links are kept — the resolved host must equal
// the base host, the scheme must be http or https, and the path must not
// contain a fragment marker. External domains are discovered but never
// traversed. Links are truncated to linkLimit in document order.
//
// Malformed HTML never fails: the parser builds a best-effort tree and
// extraction proceeds on whatever structure was recovered.
func Extract(baseURL, htmlContent string, linkLimit int) (types.PageData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return types.PageData{}, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return types.PageData{}, err
	}

	data := types.PageData{
		Content:   extractText(doc),
		Links:     extractLinks(doc, base, linkLimit),
		Resources: extractResources(doc, base),
		Metadata:  extractMetadata(doc),
	}

	return data, nil
}

func extractText(doc *goquery.Document) string {
	parts := make([]string, 0)
	doc.Find(contentSelector).Each(func(i int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

func extractLinks(doc *goquery.Document, base *url.URL, limit int) []string {
	links := make([]string, 0)

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		if len(links) >= limit {
			return
		}

		href, _ := s.Attr("href")
		resolved := resolveURL(base, href)
		if resolved == nil {
			return
		}

		// Internal links only, http(s) only, no fragment markers in the path.
		if resolved.Host != base.Host && resolved.Host != "" {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if strings.Contains(resolved.Path, "#") {
			return
		}

		links = append(links, resolved.String())
	})

	return links
}

func extractResources(doc *goquery.Document, base *url.URL) types.Resources {
	res := types.Resources{
		Images:      make([]string, 0),
		Scripts:     make([]string, 0),
		Stylesheets: make([]string, 0),
	}

	doc.Find("img[src]").Each(func(i int, s *goquery.Selection) {
		if src, _ := s.Attr("src"); src != "" {
			if u := resolveURL(base, src); u != nil {
				res.Images = append(res.Images, u.String())
			}
		}
	})

	doc.Find("script[src]").Each(func(i int, s *goquery.Selection) {
		if src, _ := s.Attr("src"); src != "" {
			if u := resolveURL(base, src); u != nil {
				res.Scripts = append(res.Scripts, u.String())
			}
		}
	})

	doc.Find("link[rel='stylesheet'][href]").Each(func(i int, s *goquery.Selection) {
		if href, _ := s.Attr("href"); href != "" {
			if u := resolveURL(base, href); u != nil {
				res.Stylesheets = append(res.Stylesheets, u.String())
			}
		}
	})

	return res
}

func extractMetadata(doc *goquery.Document) types.PageMetadata {
	meta := types.PageMetadata{Title: "No title"}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		meta.Title = title
	}
	if desc, ok := doc.Find("meta[name='description']").First().Attr("content"); ok {
		meta.Description = desc
	}
	if kw, ok := doc.Find("meta[name='keywords']").First().Attr("content"); ok {
		meta.Keywords = kw
	}

	return meta
}

func resolveURL(base *url.URL, ref string) *url.URL {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil
	}
	return base.ResolveReference(u)
}
