package epub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

func testOPF(manifest, spine, meta string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>The Test Book</dc:title>
    <dc:creator>Ada Writer</dc:creator>
    ` + meta + `
  </metadata>
  <manifest>` + manifest + `</manifest>
  <spine>` + spine + `</spine>
</package>`
}

func TestResolvePackage(t *testing.T) {
	t.Parallel()

	c := Container{
		"META-INF/container.xml": []byte(testContainerXML),
		"OEBPS/content.opf": []byte(testOPF(
			`<item id="c1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
			 <item id="c2" href="text/chapter2.xhtml" media-type="application/xhtml+xml"/>
			 <item id="cov" href="images/cover.jpg" media-type="image/jpeg" properties="cover-image"/>`,
			`<itemref idref="c1"/><itemref idref="c2"/>`,
			"")),
	}

	pkg, err := ResolvePackage(c)
	require.NoError(t, err)
	assert.Equal(t, "OEBPS/content.opf", pkg.OPFPath)
	assert.Equal(t, "OEBPS", pkg.OPFDir)
	assert.Equal(t, "The Test Book", pkg.Title)
	assert.Equal(t, "Ada Writer", pkg.Author)
	assert.Equal(t, []string{"OEBPS/chapter1.xhtml", "OEBPS/text/chapter2.xhtml"}, pkg.Spine)
	assert.Equal(t, "images/cover.jpg", pkg.CoverRef)
}

func TestResolvePackageSpineOrderPreserved(t *testing.T) {
	t.Parallel()

	// Spine order intentionally disagrees with manifest order and with any
	// lexical order.
	c := Container{
		"META-INF/container.xml": []byte(testContainerXML),
		"OEBPS/content.opf": []byte(testOPF(
			`<item id="a" href="zz.xhtml"/><item id="b" href="aa.xhtml"/><item id="c" href="mm.xhtml"/>`,
			`<itemref idref="c"/><itemref idref="a"/><itemref idref="b"/>`,
			"")),
	}

	pkg, err := ResolvePackage(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"OEBPS/mm.xhtml", "OEBPS/zz.xhtml", "OEBPS/aa.xhtml"}, pkg.Spine)
}

func TestResolvePackageAttributeOrderVariance(t *testing.T) {
	t.Parallel()

	// full-path after media-type, single quotes.
	containerXML := `<container><rootfiles>
		<rootfile media-type='application/oebps-package+xml' full-path='content.opf'/>
	</rootfiles></container>`

	c := Container{
		"META-INF/container.xml": []byte(containerXML),
		"content.opf": []byte(testOPF(
			`<item id="c1" href="ch1.xhtml"/>`,
			`<itemref idref="c1"/>`,
			"")),
	}

	pkg, err := ResolvePackage(c)
	require.NoError(t, err)
	assert.Equal(t, "content.opf", pkg.OPFPath)
	assert.Equal(t, "", pkg.OPFDir)
	assert.Equal(t, []string{"ch1.xhtml"}, pkg.Spine)
}

func TestResolvePackageMetaCoverFallback(t *testing.T) {
	t.Parallel()

	c := Container{
		"META-INF/container.xml": []byte(testContainerXML),
		"OEBPS/content.opf": []byte(testOPF(
			`<item id="c1" href="ch1.xhtml"/><item id="cover-id" href="art/front.png" media-type="image/png"/>`,
			`<itemref idref="c1"/>`,
			`<meta name="cover" content="cover-id"/>`)),
	}

	pkg, err := ResolvePackage(c)
	require.NoError(t, err)
	assert.Equal(t, "art/front.png", pkg.CoverRef)
}

func TestResolvePackageConventionalCoverFallback(t *testing.T) {
	t.Parallel()

	c := Container{
		"META-INF/container.xml": []byte(testContainerXML),
		"OEBPS/content.opf": []byte(testOPF(
			`<item id="c1" href="ch1.xhtml"/>`,
			`<itemref idref="c1"/>`,
			"")),
		"OEBPS/images/cover.jpg": []byte("jpegbytes"),
	}

	pkg, err := ResolvePackage(c)
	require.NoError(t, err)
	assert.Equal(t, "OEBPS/images/cover.jpg", pkg.CoverRef)
}

func TestResolvePackageNoCover(t *testing.T) {
	t.Parallel()

	c := Container{
		"META-INF/container.xml": []byte(testContainerXML),
		"OEBPS/content.opf": []byte(testOPF(
			`<item id="c1" href="ch1.xhtml"/>`,
			`<itemref idref="c1"/>`,
			"")),
	}

	pkg, err := ResolvePackage(c)
	require.NoError(t, err)
	assert.Empty(t, pkg.CoverRef)
}

func TestResolvePackageMissingContainerXML(t *testing.T) {
	t.Parallel()

	_, err := ResolvePackage(Container{"mimetype": []byte("application/epub+zip")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingPackage)
}

func TestResolvePackageMissingOPF(t *testing.T) {
	t.Parallel()

	c := Container{"META-INF/container.xml": []byte(testContainerXML)}
	_, err := ResolvePackage(c)
	assert.ErrorIs(t, err, ErrMissingPackage)
}

func TestResolvePackageMissingMetadataIsNotAnError(t *testing.T) {
	t.Parallel()

	opf := `<package><manifest><item id="c1" href="ch1.xhtml"/></manifest><spine><itemref idref="c1"/></spine></package>`
	c := Container{
		"META-INF/container.xml": []byte(testContainerXML),
		"OEBPS/content.opf":      []byte(opf),
	}

	pkg, err := ResolvePackage(c)
	require.NoError(t, err)
	assert.Empty(t, pkg.Title)
	assert.Empty(t, pkg.Author)
}
