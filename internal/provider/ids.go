package provider

import (
	"context"
	"strconv"
	"strings"

	"github.com/actuallystonmai/taste-service/internal/domain"
)

const nativePrefix = "tmdb:"

// IMDbID returns the cross-reference id of a library id, dropping any
// season/episode suffix ("tt0903747:1:2" -> "tt0903747"). Empty when not a cross reference.
func IMDbID(raw string) string {
	if !strings.HasPrefix(raw, "tt") {
		return ""
	}
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

// NativeID parses "tmdb:<n>" or a bare integer without any lookup. Returns 0 otherwise.
func NativeID(raw string) int {
	raw = strings.TrimPrefix(raw, nativePrefix)
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		raw = raw[:i]
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// ResolveID maps a library id to a native provider id, using one cross-reference
// lookup for "tt" ids. Returns 0 with a nil error when the id cannot be resolved.
func ResolveID(ctx context.Context, p Provider, raw string, t domain.ContentType) (int, error) {
	if imdb := IMDbID(raw); imdb != "" {
		id, err := p.FindByIMDbID(ctx, imdb, t)
		if err != nil {
			return 0, &UpstreamError{Op: "find " + imdb, Err: err}
		}
		return id, nil
	}
	return NativeID(raw), nil
}
