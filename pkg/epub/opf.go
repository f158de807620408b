package epub

import (
	"encoding/xml"
	"path"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrMissingPackage is returned when container.xml or the OPF document it
// points at can't be found. Metadata and cover extraction degrade to empty;
// segmentation can't proceed at all.
var ErrMissingPackage = errors.New("epub: missing container.xml or package document")

const containerXMLPath = "META-INF/container.xml"

// Package is the resolved OPF package: reading order plus the metadata the
// reader surfaces. Spine entries are archive paths in exactly the order the
// spine lists them.
type Package struct {
	OPFPath  string
	OPFDir   string
	Title    string
	Author   string
	Spine    []string
	CoverRef string
}

// opfPackage mirrors the parts of the OPF document the engine needs.
type opfPackage struct {
	XMLName  xml.Name `xml:"package"`
	Metadata struct {
		Titles   []string `xml:"title"`
		Creators []string `xml:"creator"`
		Metas    []struct {
			Name     string `xml:"name,attr"`
			Content  string `xml:"content,attr"`
			Property string `xml:"property,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID         string `xml:"id,attr"`
			Href       string `xml:"href,attr"`
			MediaType  string `xml:"media-type,attr"`
			Properties string `xml:"properties,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Itemrefs []struct {
			Idref string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// rootfileTagRE matches the rootfile element of container.xml; the document
// has a small fixed shape, so an attribute scan beats a schema struct, but it
// must tolerate attribute order and quoting variance.
var (
	rootfileTagRE  = regexp.MustCompile(`(?s)<rootfile\b[^>]*>`)
	fullPathAttrRE = regexp.MustCompile(`full-path\s*=\s*["']([^"']+)["']`)
)

// conventionalCoverNames are probed, in order, when neither an EPUB3
// cover-image property nor an EPUB2 meta cover is declared.
var conventionalCoverNames = []string{
	"cover.jpg", "cover.jpeg", "cover.png", "cover.gif", "cover.webp",
	"Cover.jpg", "Cover.jpeg", "Cover.png",
}

// ResolvePackage locates container.xml, follows its first rootfile to the
// OPF document, and resolves title, author, spine order, and a cover
// reference. Spine order is preserved exactly as listed.
func ResolvePackage(c Container) (*Package, error) {
	containerXML, ok := c.Lookup(containerXMLPath)
	if !ok {
		return nil, errors.WithStack(ErrMissingPackage)
	}

	opfPath := extractRootfilePath(containerXML)
	if opfPath == "" {
		return nil, errors.WithStack(ErrMissingPackage)
	}

	opfData, ok := c.Lookup(opfPath)
	if !ok {
		return nil, errors.WithStack(ErrMissingPackage)
	}

	doc := &opfPackage{}
	if err := xml.Unmarshal(opfData, doc); err != nil {
		return nil, errors.Wrap(err, "epub: parse package document")
	}

	pkg := &Package{
		OPFPath: opfPath,
		OPFDir:  dirOf(opfPath),
	}

	// First match wins; absence is not an error.
	for _, t := range doc.Metadata.Titles {
		if strings.TrimSpace(t) != "" {
			pkg.Title = strings.TrimSpace(t)
			break
		}
	}
	for _, cr := range doc.Metadata.Creators {
		if strings.TrimSpace(cr) != "" {
			pkg.Author = strings.TrimSpace(cr)
			break
		}
	}

	itemsByID := map[string]int{}
	for i, item := range doc.Manifest.Items {
		itemsByID[item.ID] = i
	}

	for _, ref := range doc.Spine.Itemrefs {
		i, ok := itemsByID[ref.Idref]
		if !ok {
			continue
		}
		href := doc.Manifest.Items[i].Href
		if href == "" {
			continue
		}
		pkg.Spine = append(pkg.Spine, joinPath(pkg.OPFDir, href))
	}

	pkg.CoverRef = resolveCoverRef(c, doc, pkg.OPFDir)

	return pkg, nil
}

// extractRootfilePath pulls the full-path attribute from the first rootfile
// element of container.xml.
func extractRootfilePath(containerXML []byte) string {
	tag := rootfileTagRE.Find(containerXML)
	if tag == nil {
		return ""
	}
	m := fullPathAttrRE.FindSubmatch(tag)
	if m == nil {
		return ""
	}
	return string(m[1])
}

// resolveCoverRef applies the three cover strategies in precedence order:
// an item with a cover-image property, an EPUB2 meta cover pointing at a
// manifest ID, then conventional filenames probed in the archive root, the
// OPF directory, and an images/ subfolder.
func resolveCoverRef(c Container, doc *opfPackage, opfDir string) string {
	for _, item := range doc.Manifest.Items {
		for _, prop := range strings.Fields(item.Properties) {
			if prop == "cover-image" {
				return item.Href
			}
		}
	}

	for _, m := range doc.Metadata.Metas {
		if !strings.EqualFold(m.Name, "cover") || m.Content == "" {
			continue
		}
		for _, item := range doc.Manifest.Items {
			if item.ID == m.Content && item.Href != "" {
				return item.Href
			}
		}
	}

	for _, name := range conventionalCoverNames {
		candidates := []string{name, joinPath(opfDir, name), joinPath(opfDir, "images/"+name), "images/" + name}
		for _, candidate := range candidates {
			if _, ok := c[candidate]; ok {
				return candidate
			}
		}
	}

	return ""
}

// dirOf returns everything before the last '/', or "" for a root-level path.
func dirOf(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

// joinPath resolves href against dir, normalizing any ../ segments into an
// archive path without a leading slash.
func joinPath(dir, href string) string {
	if dir == "" {
		return path.Clean(href)
	}
	return strings.TrimPrefix(path.Clean(dir+"/"+href), "/")
}
