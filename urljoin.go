package resources

import (
	"fmt"
	"net/url"
	"strings"
)

// ResolveSourceURL resolves an artifact's remote path against the object
// store URL and a section prefix.
//
// The base is treated as a directory, so "https://host/root" and
// "https://host/root/" both keep "root". Prefix and remote are joined with
// exactly one slash. A remote that is already an absolute http(s) URL is
// returned as is.
//
//	ResolveSourceURL("https://store.example/", "data/v1", "a/b.bin")
//	// "https://store.example/data/v1/a/b.bin"
func ResolveSourceURL(base, prefix, remote string) (string, error) {
	if u, err := url.Parse(remote); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return u.String(), nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing object store URL %q: %w", base, err)
	}
	if !baseURL.IsAbs() || baseURL.Host == "" {
		return "", fmt.Errorf("object store URL %q is not absolute", base)
	}
	if !strings.HasSuffix(baseURL.Path, "/") {
		baseURL.Path += "/"
		if baseURL.RawPath != "" {
			baseURL.RawPath += "/"
		}
	}

	// "./" keeps a colon in the first segment from reading as a scheme.
	rel := "./" + joinRelative(prefix, remote)
	relURL, err := url.Parse(rel)
	if err != nil {
		return "", fmt.Errorf("parsing remote path %q: %w", rel, err)
	}

	return baseURL.ResolveReference(relURL).String(), nil
}

// joinRelative joins non-empty segments with single slashes and strips the
// leading slash so the result stays relative to the base.
func joinRelative(parts ...string) string {
	var segs []string
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			segs = append(segs, p)
		}
	}
	return strings.Join(segs, "/")
}
