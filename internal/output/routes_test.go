package output

import "testing"

func TestNormalizeRoute(t *testing.T) {
	cases := []struct {
		route string
		want  string
	}{
		{"", ""},
		{"/", ""},
		{"index", ""},
		{"/index/", ""},
		{"blog/post-1", "blog/post-1"},
		{"blog/post-1/index", "blog/post-1"},
		{"/blog/post-1/", "blog/post-1"},
		{"//a//b//", "a/b"},
		{"indexing", "indexing"}, // only a literal trailing segment is stripped
		{"blog/index/post", "blog/index/post"},
	}
	for _, tc := range cases {
		if got := NormalizeRoute(tc.route); got != tc.want {
			t.Errorf("NormalizeRoute(%q) = %q, want %q", tc.route, got, tc.want)
		}
	}
}

func TestNormalizeRouteIdempotent(t *testing.T) {
	routes := []string{"", "/", "blog/post-1", "blog/post-1/index", "/a/b/c/", "index"}
	for _, r := range routes {
		once := NormalizeRoute(r)
		if twice := NormalizeRoute(once); twice != once {
			t.Errorf("NormalizeRoute not idempotent for %q: %q -> %q", r, once, twice)
		}
	}
}

func TestBaseHref(t *testing.T) {
	cases := []struct {
		route string
		want  string
	}{
		{"", "./"},
		{"a", "../"},
		{"a/b", "../../"},
		{"a/b/c", "../../../"},
	}
	for _, tc := range cases {
		if got := BaseHref(tc.route); got != tc.want {
			t.Errorf("BaseHref(%q) = %q, want %q", tc.route, got, tc.want)
		}
	}
}
