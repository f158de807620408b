package testgen

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// GenerateEPUB returns a valid EPUB as bytes: mimetype, container.xml,
// content.opf, the requested number of chapters, and optionally a cover
// image under OEBPS/.
func GenerateEPUB(t *testing.T, opts EPUBOptions) []byte {
	t.Helper()

	if opts.ChapterCount <= 0 {
		opts.ChapterCount = 1
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// mimetype must be first and uncompressed.
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("failed to create mimetype entry: %v", err)
	}
	if _, err := w.Write([]byte("application/epub+zip")); err != nil {
		t.Fatalf("failed to write mimetype: %v", err)
	}

	containerXML := `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`
	if err := writeZipFile(zw, "META-INF/container.xml", []byte(containerXML)); err != nil {
		t.Fatalf("failed to write container.xml: %v", err)
	}

	coverMimeType := opts.CoverMimeType
	if coverMimeType == "" {
		coverMimeType = "image/jpeg"
	}
	var coverFilename string
	if opts.HasCover {
		coverData := generateImage(t, coverMimeType)
		if coverMimeType == "image/png" {
			coverFilename = "cover.png"
		} else {
			coverFilename = "cover.jpg"
		}
		if err := writeZipFile(zw, "OEBPS/"+coverFilename, coverData); err != nil {
			t.Fatalf("failed to write cover image: %v", err)
		}
	}

	opfContent := generateOPF(opts, coverFilename, coverMimeType)
	if err := writeZipFile(zw, "OEBPS/content.opf", []byte(opfContent)); err != nil {
		t.Fatalf("failed to write content.opf: %v", err)
	}

	for i := 1; i <= opts.ChapterCount; i++ {
		if err := writeZipFile(zw, fmt.Sprintf("OEBPS/chapter%d.xhtml", i), []byte(generateChapter(opts, i))); err != nil {
			t.Fatalf("failed to write chapter%d.xhtml: %v", i, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finalize EPUB: %v", err)
	}

	return buf.Bytes()
}

func generateChapter(opts EPUBOptions, n int) string {
	head := fmt.Sprintf("<title>Chapter %d</title>", n)
	if opts.InlineStyle != "" {
		head += "<style>" + opts.InlineStyle + "</style>"
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>%s</head>
<body>
  <h1>Chapter %d</h1>
  <p>This is the body text of chapter %d.</p>
</body>
</html>`, head, n, n)
}

func generateOPF(opts EPUBOptions, coverFilename, coverMimeType string) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package version="3.0" xmlns="http://www.idpf.org/2007/opf" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
`)

	// Title and author are optional so metadata-absence paths are testable.
	if opts.Title != "" {
		buf.WriteString(fmt.Sprintf("    <dc:title id=\"title\">%s</dc:title>\n", escapeXML(opts.Title)))
	}
	if opts.Author != "" {
		buf.WriteString(fmt.Sprintf("    <dc:creator id=\"creator\" opf:role=\"aut\">%s</dc:creator>\n", escapeXML(opts.Author)))
	}

	buf.WriteString("    <dc:identifier id=\"bookid\">urn:uuid:test-book-id</dc:identifier>\n")
	buf.WriteString("    <dc:language>en</dc:language>\n")

	if coverFilename != "" && opts.CoverViaMeta {
		buf.WriteString("    <meta name=\"cover\" content=\"cover-image\"/>\n")
	}

	buf.WriteString("  </metadata>\n")

	buf.WriteString("  <manifest>\n")
	for i := 1; i <= opts.ChapterCount; i++ {
		buf.WriteString(fmt.Sprintf("    <item id=\"chapter%d\" href=\"chapter%d.xhtml\" media-type=\"application/xhtml+xml\"/>\n", i, i))
	}
	if coverFilename != "" {
		properties := ""
		if !opts.CoverViaMeta {
			properties = " properties=\"cover-image\""
		}
		buf.WriteString(fmt.Sprintf("    <item id=\"cover-image\" href=\"%s\" media-type=\"%s\"%s/>\n", coverFilename, coverMimeType, properties))
	}
	buf.WriteString("  </manifest>\n")

	buf.WriteString("  <spine>\n")
	for i := 1; i <= opts.ChapterCount; i++ {
		buf.WriteString(fmt.Sprintf("    <itemref idref=\"chapter%d\"/>\n", i))
	}
	buf.WriteString("  </spine>\n")

	buf.WriteString("</package>")

	return buf.String()
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func generateImage(t *testing.T, mimeType string) []byte {
	t.Helper()

	// A small solid-color image is enough for sniffing and serving.
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	blue := color.RGBA{0, 100, 200, 255}
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, blue)
		}
	}

	var buf bytes.Buffer
	switch mimeType {
	case "image/png":
		if err := png.Encode(&buf, img); err != nil {
			t.Fatalf("failed to encode PNG: %v", err)
		}
	default: // image/jpeg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			t.Fatalf("failed to encode JPEG: %v", err)
		}
	}

	return buf.Bytes()
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&apos;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
