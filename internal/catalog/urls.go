package catalog

import "strings"

// Origin derives the scheme and host from a page URL by keeping the first
// three slash-delimited segments: "https://shop.test/a/b" becomes
// "https://shop.test". Inputs without that shape are returned unchanged.
func Origin(pageURL string) string {
	parts := strings.Split(pageURL, "/")
	if len(parts) < 3 {
		return strings.TrimSuffix(pageURL, "/")
	}
	return strings.Join(parts[:3], "/")
}

// ResolveURL turns a possibly-relative candidate into an absolute URL
// against the given origin. Absolute URLs pass through untouched,
// root-relative paths are joined directly, and bare relative paths get a
// separating slash.
func ResolveURL(candidate, origin string) string {
	if candidate == "" {
		return ""
	}
	if strings.HasPrefix(candidate, "http") {
		return candidate
	}
	if strings.HasPrefix(candidate, "/") {
		return origin + candidate
	}
	return origin + "/" + candidate
}
