package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrigin(t *testing.T) {
	tests := []struct {
		name    string
		pageURL string
		want    string
	}{
		{name: "deep path", pageURL: "https://shop.test/collezione/donna", want: "https://shop.test"},
		{name: "bare host", pageURL: "https://shop.test", want: "https://shop.test"},
		{name: "trailing slash", pageURL: "http://shop.test/", want: "http://shop.test"},
		{name: "query string", pageURL: "https://shop.test/p?id=3", want: "https://shop.test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Origin(tt.pageURL))
		})
	}
}

func TestResolveURL(t *testing.T) {
	origin := "https://shop.test"

	tests := []struct {
		name      string
		candidate string
		want      string
	}{
		{name: "root relative", candidate: "/img/a.jpg", want: "https://shop.test/img/a.jpg"},
		{name: "bare relative", candidate: "img/a.jpg", want: "https://shop.test/img/a.jpg"},
		{name: "absolute untouched", candidate: "https://cdn.test/a.jpg", want: "https://cdn.test/a.jpg"},
		{name: "http absolute untouched", candidate: "http://cdn.test/a.jpg", want: "http://cdn.test/a.jpg"},
		{name: "empty", candidate: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveURL(tt.candidate, origin))
		})
	}
}

func TestResolveURLIdempotent(t *testing.T) {
	once := ResolveURL("/img/a.jpg", "https://shop.test")
	assert.Equal(t, once, ResolveURL(once, "https://other.test"))
}
