package epub

import (
	"strings"
	"testing"

	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chapterDoc(head, body string) []byte {
	return []byte(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head>` + head + `</head><body>` + body + `</body></html>`)
}

func segmentFixture(t *testing.T, c Container, spine ...string) *Segmented {
	t.Helper()
	pkg := &Package{OPFDir: "OEBPS", Spine: spine}
	resolver := NewResourceResolver(c, recordingRehost(map[string]int{}))
	return Segment(c, pkg, resolver, logger.New())
}

func TestSegmentBodyContentAndLength(t *testing.T) {
	t.Parallel()

	c := Container{
		"OEBPS/ch1.xhtml": chapterDoc("<title>One</title>", "<h1>Hello</h1><p>World &amp; more</p>"),
	}
	seg := segmentFixture(t, c, "OEBPS/ch1.xhtml")

	require.Len(t, seg.Chapters, 1)
	ch := seg.Chapters[0]
	assert.Equal(t, "OEBPS/ch1.xhtml", ch.Href)
	assert.Contains(t, ch.HTML, "<h1>Hello</h1>")
	assert.NotContains(t, ch.HTML, "<body")
	assert.NotContains(t, ch.HTML, "<title>")
	// "Hello World & more" measured as plain text.
	assert.Equal(t, len("Hello World & more"), ch.CharLength)
}

func TestSegmentStyleCollectionDedup(t *testing.T) {
	t.Parallel()

	shared := "p { margin: 0 }"
	c := Container{
		"OEBPS/ch1.xhtml":       chapterDoc(`<style>`+shared+`</style>`, "<p>a</p>"),
		"OEBPS/ch2.xhtml":       chapterDoc(`<style>`+shared+`</style><link rel="stylesheet" href="css/extra.css"/>`, "<p>b</p>"),
		"OEBPS/css/extra.css":   []byte("h1 { color: red }"),
		"META-INF/ignored.file": []byte("x"),
	}
	seg := segmentFixture(t, c, "OEBPS/ch1.xhtml", "OEBPS/ch2.xhtml")

	assert.Equal(t, 1, strings.Count(seg.Styles, shared))
	assert.Contains(t, seg.Styles, "h1 { color: red }")
}

func TestSegmentRewritesImages(t *testing.T) {
	t.Parallel()

	c := Container{
		"OEBPS/ch1.xhtml": chapterDoc("", `<p><img src="images/pic.png" alt="a pic"/></p>
			<svg xmlns="http://www.w3.org/2000/svg"><image xlink:href="images/pic.png"/></svg>`),
		"OEBPS/images/pic.png": pngBytes,
	}
	seg := segmentFixture(t, c, "OEBPS/ch1.xhtml")

	require.Len(t, seg.Chapters, 1)
	html := seg.Chapters[0].HTML
	assert.Contains(t, html, `src="/assets/OEBPS/images/pic.png"`)
	assert.Contains(t, html, `href="/assets/OEBPS/images/pic.png"`)
	assert.Contains(t, html, `alt="a pic"`)
	assert.NotContains(t, html, `"images/pic.png"`)
}

func TestSegmentStripsUnresolvableReferences(t *testing.T) {
	t.Parallel()

	c := Container{
		"OEBPS/ch1.xhtml": chapterDoc("", `<img src="gone.png" alt="still here"/>`),
	}
	seg := segmentFixture(t, c, "OEBPS/ch1.xhtml")

	require.Len(t, seg.Chapters, 1)
	html := seg.Chapters[0].HTML
	assert.NotContains(t, html, "src=")
	assert.Contains(t, html, `alt="still here"`)
}

func TestSegmentDropsScripts(t *testing.T) {
	t.Parallel()

	c := Container{
		"OEBPS/ch1.xhtml": chapterDoc("", `<p>text</p><script>alert(1)</script>`),
	}
	seg := segmentFixture(t, c, "OEBPS/ch1.xhtml")

	require.Len(t, seg.Chapters, 1)
	assert.NotContains(t, seg.Chapters[0].HTML, "script")
	assert.Contains(t, seg.Chapters[0].HTML, "<p>text</p>")
}

func TestSegmentSkipsMissingSpineItems(t *testing.T) {
	t.Parallel()

	c := Container{
		"OEBPS/ch1.xhtml": chapterDoc("", "<p>one</p>"),
		"OEBPS/ch3.xhtml": chapterDoc("", "<p>three</p>"),
	}
	seg := segmentFixture(t, c, "OEBPS/ch1.xhtml", "OEBPS/ch2.xhtml", "OEBPS/ch3.xhtml")

	require.Len(t, seg.Chapters, 2)
	assert.Equal(t, "OEBPS/ch1.xhtml", seg.Chapters[0].Href)
	assert.Equal(t, "OEBPS/ch3.xhtml", seg.Chapters[1].Href)
}

func TestSegmentEmptySpine(t *testing.T) {
	t.Parallel()

	seg := segmentFixture(t, Container{})
	assert.Empty(t, seg.Chapters)
	assert.Empty(t, seg.Styles)
}
