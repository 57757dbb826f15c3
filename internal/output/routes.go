package output

import "strings"

// NormalizeRoute maps a page route onto its output directory path: leading
// and trailing slashes are stripped, and at most one trailing literal "index"
// segment is dropped. The empty string denotes the site root. Normalized
// routes map 1:1 to output directories; distinct raw routes may therefore
// collide (e.g. "blog/post-1" and "blog/post-1/index"), and the later page
// overwrites the earlier one.
func NormalizeRoute(route string) string {
	segments := splitSegments(route)
	if n := len(segments); n > 0 && segments[n-1] == "index" {
		segments = segments[:n-1]
	}
	return strings.Join(segments, "/")
}

// BaseHref computes the relative <base> href for a normalized route: one
// ".." per path segment, or "./" for the root route, so asset references
// resolve regardless of route depth.
func BaseHref(normalizedRoute string) string {
	segments := splitSegments(normalizedRoute)
	if len(segments) == 0 {
		return "./"
	}
	return strings.Repeat("../", len(segments))
}

func splitSegments(route string) []string {
	var segments []string
	for _, s := range strings.Split(route, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
