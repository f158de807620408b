package epub

import (
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Cover is the extracted cover image.
type Cover struct {
	Data        []byte
	ContentType string
	Ext         string
}

// extContentTypes maps cover file extensions to content types. Anything
// unrecognized is assumed to be JPEG, the overwhelmingly common case.
var extContentTypes = map[string]string{
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
}

// mimeExts maps sniffed image content types back to extensions when the
// byte signature contradicts the filename.
var mimeExts = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

// ExtractCover resolves the package's cover reference to bytes and a
// content type. The href is percent-decoded and resolved against the OPF
// directory first, then tried raw, since real-world EPUBs are inconsistent
// about encoding. Returns nil when there is no cover or the reference
// doesn't resolve. Deterministic: the same container and package always
// yield the same result.
func ExtractCover(c Container, pkg *Package) *Cover {
	if pkg == nil || pkg.CoverRef == "" {
		return nil
	}

	href := pkg.CoverRef
	decoded := href
	if d, err := url.PathUnescape(href); err == nil {
		decoded = d
	}

	data, ok := c.Lookup(joinPath(pkg.OPFDir, decoded))
	if !ok {
		data, ok = c.Lookup(href)
	}
	if !ok {
		return nil
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(decoded), "."))
	contentType, known := extContentTypes[ext]
	if !known {
		contentType = "image/jpeg"
		ext = "jpg"
	}

	// A mislabeled extension would serve the wrong content type, so the byte
	// signature wins when it identifies a known image format.
	if sniffed := mimetype.Detect(data); strings.HasPrefix(sniffed.String(), "image/") {
		if sniffedExt, ok := mimeExts[sniffed.String()]; ok {
			contentType = sniffed.String()
			ext = sniffedExt
		}
	}

	return &Cover{Data: data, ContentType: contentType, Ext: ext}
}
