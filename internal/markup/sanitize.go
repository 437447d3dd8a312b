// Package markup sanitizes the rich-content slides before they are served.
// Anything that can execute or escape the slide container is stripped;
// formatting survives.
package markup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Tags removed wholesale, children included.
var strippedTags = []string{"script", "style", "iframe", "object", "embed", "form", "link", "meta", "base"}

// Sanitize returns the body HTML with active content removed: scripts,
// embeds, inline event handlers and javascript: URLs. The input is parsed
// leniently, so truncated markup still comes back well-formed.
func Sanitize(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	for _, tag := range strippedTags {
		doc.Find(tag).Remove()
	}

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		for _, node := range sel.Nodes {
			kept := node.Attr[:0]
			for _, attr := range node.Attr {
				name := strings.ToLower(attr.Key)
				if strings.HasPrefix(name, "on") {
					continue
				}
				if (name == "href" || name == "src" || name == "action") && isScriptURL(attr.Val) {
					continue
				}
				kept = append(kept, attr)
			}
			node.Attr = kept
		}
	})

	return doc.Find("body").Html()
}

func isScriptURL(raw string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	// Strip control characters that browsers ignore inside the scheme.
	var b strings.Builder
	for _, r := range trimmed {
		if r > 0x20 {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	return strings.HasPrefix(cleaned, "javascript:") || strings.HasPrefix(cleaned, "vbscript:") || strings.HasPrefix(cleaned, "data:text/html")
}
