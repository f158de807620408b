package epub

import (
	"net/url"
	"sort"
	"strings"
)

// RehostFunc re-hosts an archive entry somewhere a reading client can fetch
// it (a blob store) and returns the URL to use in rewritten markup.
type RehostFunc func(archivePath string, data []byte) (string, error)

// ResourceResolver maps asset references found inside chapter documents to
// retrievable URLs. Embedders generate inconsistent relative-path
// conventions, so several normalizations of each reference are tried — but
// never anything looser: a reference that matches none of them is reported
// missing rather than guessed at.
type ResourceResolver struct {
	container Container
	rehost    RehostFunc

	// urls caches archive path -> re-hosted URL so shared assets upload once.
	urls map[string]string
}

func NewResourceResolver(c Container, rehost RehostFunc) *ResourceResolver {
	return &ResourceResolver{
		container: c,
		rehost:    rehost,
		urls:      map[string]string{},
	}
}

// Resolve maps a possibly-relative asset reference to a URL, re-hosting the
// underlying bytes on first use. fromHref is the archive path of the
// referencing document. References that already carry a scheme (or are data
// URIs) are returned untouched. Returns false when the reference can't be
// located in the container.
func (r *ResourceResolver) Resolve(ref, fromHref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	if strings.Contains(ref, "://") || strings.HasPrefix(ref, "data:") {
		return ref, true
	}

	archivePath, data, ok := r.locate(ref, fromHref)
	if !ok {
		return "", false
	}

	if cached, ok := r.urls[archivePath]; ok {
		return cached, true
	}

	rehosted, err := r.rehost(archivePath, data)
	if err != nil {
		return "", false
	}
	r.urls[archivePath] = rehosted
	return rehosted, true
}

// Data returns the raw bytes of a referenced resource without re-hosting it.
// Used for stylesheets, whose text is inlined rather than linked.
func (r *ResourceResolver) Data(ref, fromHref string) ([]byte, bool) {
	if ref == "" || strings.Contains(ref, "://") || strings.HasPrefix(ref, "data:") {
		return nil, false
	}
	_, data, ok := r.locate(ref, fromHref)
	return data, ok
}

// locate tries each normalization of ref in a fixed precedence order:
// resolved against the referencing document's directory, raw as given, raw
// without a leading "./", the percent-decoded resolved form, and finally the
// bare filename. The first form present in the container wins.
func (r *ResourceResolver) locate(ref, fromHref string) (string, []byte, bool) {
	// Fragments identify positions inside a resource, not resources.
	if idx := strings.IndexByte(ref, '#'); idx >= 0 {
		ref = ref[:idx]
	}
	if ref == "" {
		return "", nil, false
	}

	resolved := joinPath(dirOf(fromHref), ref)

	candidates := []string{
		resolved,
		ref,
		strings.TrimPrefix(ref, "./"),
	}
	if decoded, err := url.PathUnescape(resolved); err == nil && decoded != resolved {
		candidates = append(candidates, decoded)
	}

	for _, candidate := range candidates {
		if data, ok := r.container[candidate]; ok {
			return candidate, data, true
		}
	}

	// Last resort: match on the filename alone. Sorted iteration keeps the
	// fallback deterministic when multiple entries share a basename.
	base := ref
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	if base == "" {
		return "", nil, false
	}
	names := make([]string, 0, len(r.container))
	for name := range r.container {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name == base || strings.HasSuffix(name, "/"+base) {
			return name, r.container[name], true
		}
	}

	return "", nil, false
}
