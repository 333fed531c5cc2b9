// Package extract pulls SEO-relevant page elements out of HTML and loads
// target query lists from text, CSV and Excel files.
package extract

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperjump/kurabe/internal/models"
)

// headingTags are extracted in this order, before images and definition lists.
var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// FromHTML parses the document and returns the elements relevant to search
// intent: title, meta description, headings, images inside picture tags, and
// definition list terms. Empty values are skipped. Source is attached to
// every item so groups can be formed downstream.
func FromHTML(content string, source string) ([]models.TextItem, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var items []models.TextItem
	add := func(itemType, value string) {
		value = strings.TrimSpace(value)
		if value != "" {
			items = append(items, models.TextItem{Type: itemType, Value: value, Source: source})
		}
	}

	for _, n := range findAll(doc, "title") {
		add("title", nodeText(n))
	}
	for _, n := range findAll(doc, "meta") {
		if attr(n, "name") == "description" {
			add("meta description", attr(n, "content"))
		}
	}
	for _, tag := range headingTags {
		for _, n := range findAll(doc, tag) {
			add(tag, nodeText(n))
		}
	}
	for _, pic := range findAll(doc, "picture") {
		for _, img := range findAll(pic, "img") {
			if src := attr(img, "src"); src != "" {
				add("img src", srcBasename(src))
			}
			add("img alt", attr(img, "alt"))
		}
	}
	for _, n := range findAll(doc, "dt") {
		add("dt", nodeText(n))
	}
	for _, n := range findAll(doc, "dd") {
		add("dd", nodeText(n))
	}

	return items, nil
}

// findAll returns every element node with the given tag, in document order.
func findAll(n *html.Node, tag string) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			found = append(found, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

// nodeText concatenates all text descendants of n.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// srcBasename reduces an image URL to its filename, which carries the
// SEO-relevant naming without the noise of the full path.
func srcBasename(src string) string {
	if u, err := url.Parse(src); err == nil {
		return path.Base(u.Path)
	}
	return path.Base(src)
}
