package epub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal valid file signatures, enough for byte sniffing to identify them.
var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	gifBytes = []byte("GIF89a\x01\x00\x01\x00")
)

func TestExtractCoverResolvesAgainstOPFDir(t *testing.T) {
	t.Parallel()

	c := Container{"OEBPS/images/cover.png": pngBytes}
	pkg := &Package{OPFDir: "OEBPS", CoverRef: "images/cover.png"}

	cover := ExtractCover(c, pkg)
	require.NotNil(t, cover)
	assert.Equal(t, pngBytes, cover.Data)
	assert.Equal(t, "image/png", cover.ContentType)
	assert.Equal(t, "png", cover.Ext)
}

func TestExtractCoverRawFallback(t *testing.T) {
	t.Parallel()

	// The ref is already an archive path; resolving it against the OPF dir
	// misses, and the raw lookup recovers it.
	c := Container{"OEBPS/images/cover.gif": gifBytes}
	pkg := &Package{OPFDir: "OEBPS", CoverRef: "OEBPS/images/cover.gif"}

	cover := ExtractCover(c, pkg)
	require.NotNil(t, cover)
	assert.Equal(t, "image/gif", cover.ContentType)
}

func TestExtractCoverPercentDecoding(t *testing.T) {
	t.Parallel()

	c := Container{"OEBPS/my cover.png": pngBytes}
	pkg := &Package{OPFDir: "OEBPS", CoverRef: "my%20cover.png"}

	cover := ExtractCover(c, pkg)
	require.NotNil(t, cover)
	assert.Equal(t, "image/png", cover.ContentType)
}

func TestExtractCoverUnknownExtensionDefaultsToJPEG(t *testing.T) {
	t.Parallel()

	c := Container{"cover.image": []byte("not really an image")}
	pkg := &Package{CoverRef: "cover.image"}

	cover := ExtractCover(c, pkg)
	require.NotNil(t, cover)
	assert.Equal(t, "image/jpeg", cover.ContentType)
	assert.Equal(t, "jpg", cover.Ext)
}

func TestExtractCoverSniffOverridesExtension(t *testing.T) {
	t.Parallel()

	// Mislabeled: a PNG stored as .jpg. The byte signature wins.
	c := Container{"cover.jpg": pngBytes}
	pkg := &Package{CoverRef: "cover.jpg"}

	cover := ExtractCover(c, pkg)
	require.NotNil(t, cover)
	assert.Equal(t, "image/png", cover.ContentType)
	assert.Equal(t, "png", cover.Ext)
}

func TestExtractCoverMissing(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ExtractCover(Container{}, &Package{CoverRef: "nope.jpg"}))
	assert.Nil(t, ExtractCover(Container{}, &Package{}))
	assert.Nil(t, ExtractCover(Container{}, nil))
}
