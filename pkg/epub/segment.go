package epub

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/quillreader/quill/pkg/htmlutil"
	"github.com/robinjoseph08/golib/logger"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SegmentedChapter is one spine item ready for storage. Offsets are assigned
// by the store's write path, not here, so segmentation stays pure with
// respect to ordering.
type SegmentedChapter struct {
	Href       string
	HTML       string
	CharLength int
}

// Segmented is the result of walking the whole spine once.
type Segmented struct {
	Chapters []SegmentedChapter
	// Styles is the deduplicated concatenation of every inline <style> and
	// linked stylesheet encountered across the spine.
	Styles string
}

// Segment walks the spine in order and extracts each item's body content.
// Image and SVG-image references are rewritten through the resolver;
// references that don't resolve are stripped rather than left broken. A
// spine item that fails to load or parse is skipped with a warning — the
// rest of the batch continues, and counts reflect only the items that
// succeeded.
func Segment(c Container, pkg *Package, resolver *ResourceResolver, log logger.Logger) *Segmented {
	result := &Segmented{}

	var styles []string
	seenStyles := map[string]bool{}
	addStyle := func(css string) {
		css = strings.TrimSpace(css)
		if css == "" || seenStyles[css] {
			return
		}
		seenStyles[css] = true
		styles = append(styles, css)
	}

	for _, href := range pkg.Spine {
		chapter, err := segmentItem(c, href, resolver, addStyle)
		if err != nil {
			log.Err(err).Warn("skipping unreadable spine item", logger.Data{"href": href})
			continue
		}
		result.Chapters = append(result.Chapters, *chapter)
	}

	result.Styles = strings.Join(styles, "\n\n")
	return result
}

func segmentItem(c Container, href string, resolver *ResourceResolver, addStyle func(string)) (*SegmentedChapter, error) {
	data, ok := c.Lookup(href)
	if !ok {
		return nil, errors.Errorf("epub: spine item not in container: %s", href)
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "epub: parse spine item %s", href)
	}

	// Styles can live in <head>, so collect over the whole document before
	// narrowing to the body.
	collectStyles(doc, href, resolver, addStyle)

	body := findBody(doc)
	if body == nil {
		return nil, errors.Errorf("epub: spine item has no body: %s", href)
	}

	rewriteResourceRefs(body, href, resolver)

	inner, err := innerHTML(body)
	if err != nil {
		return nil, errors.Wrapf(err, "epub: render spine item %s", href)
	}

	length, err := htmlutil.TextLength(inner)
	if err != nil {
		return nil, errors.Wrapf(err, "epub: measure spine item %s", href)
	}

	return &SegmentedChapter{Href: href, HTML: inner, CharLength: length}, nil
}

// collectStyles gathers inline <style> text and the contents of
// <link rel="stylesheet"> targets.
func collectStyles(n *html.Node, fromHref string, resolver *ResourceResolver, addStyle func(string)) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Style:
			var buf strings.Builder
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				if child.Type == html.TextNode {
					buf.WriteString(child.Data)
				}
			}
			addStyle(buf.String())
		case atom.Link:
			if isStylesheetLink(n) {
				if href := attrValue(n, "href"); href != "" {
					if css, ok := resolver.Data(href, fromHref); ok {
						addStyle(string(css))
					}
				}
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectStyles(child, fromHref, resolver, addStyle)
	}
}

// rewriteResourceRefs rewrites every <img src> and SVG <image href>
// (including xlink:href) through the resolver. Unresolvable references have
// the attribute removed entirely so clients don't render broken-image
// placeholders. Script elements are dropped while we're here — stored
// chapter HTML is served back verbatim.
func rewriteResourceRefs(n *html.Node, fromHref string, resolver *ResourceResolver) {
	var child *html.Node
	for c := n.FirstChild; c != nil; c = child {
		child = c.NextSibling
		if c.Type == html.ElementNode && c.DataAtom == atom.Script {
			n.RemoveChild(c)
			continue
		}
		rewriteResourceRefs(c, fromHref, resolver)
	}

	if n.Type != html.ElementNode {
		return
	}

	switch {
	case n.DataAtom == atom.Img:
		rewriteAttr(n, "src", fromHref, resolver)
	case n.Data == "image":
		// SVG image elements reference via href or xlink:href.
		rewriteAttr(n, "href", fromHref, resolver)
	}
}

func rewriteAttr(n *html.Node, key, fromHref string, resolver *ResourceResolver) {
	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		if attr.Key != key {
			kept = append(kept, attr)
			continue
		}
		if rewritten, ok := resolver.Resolve(attr.Val, fromHref); ok {
			attr.Val = rewritten
			kept = append(kept, attr)
		}
		// A miss drops the attribute.
	}
	n.Attr = kept
}

func isStylesheetLink(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key == "rel" && strings.EqualFold(strings.TrimSpace(attr.Val), "stylesheet") {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if body := findBody(child); body != nil {
			return body
		}
	}
	return nil
}

// innerHTML renders the children of a node, i.e. the chapter content without
// the <body> wrapper itself.
func innerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return "", errors.WithStack(err)
		}
	}
	return buf.String(), nil
}
