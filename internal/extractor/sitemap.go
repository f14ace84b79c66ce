package extractor

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractSitemapURLs pulls <loc> entries out of a sitemap XML document.
// The lenient HTML parser handles sitemap XML well enough for this purpose
// and tolerates the malformed feeds some sites serve.
func ExtractSitemapURLs(xmlContent string) []string {
	doc, err := html.Parse(strings.NewReader(xmlContent))
	if err != nil {
		return nil
	}

	urls := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "loc" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				urls = append(urls, strings.TrimSpace(n.FirstChild.Data))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return urls
}
