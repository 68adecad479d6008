// Package imagecode derives normalized slugs ("image codes") from image
// names and filenames, and resolves per-store collisions.
package imagecode

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	invalidChars  = regexp.MustCompile(`[^A-Za-z0-9 ]`)
	multiSpace    = regexp.MustCompile(`\s+`)
	multiUnderbar = regexp.MustCompile(`_+`)

	slugInvalid = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpace   = regexp.MustCompile(`[\s-]+`)
)

// Normalize turns a raw name, filename or caller-supplied code into an
// image code: strips a file extension if present, drops characters
// outside [A-Za-z0-9 ], collapses whitespace, lowercases, replaces
// spaces with underscores, collapses repeated underscores and trims
// leading/trailing ones.
//
// Underscores in the input are treated as word separators so that an
// already-normalized caller-supplied code passes through unchanged.
func Normalize(raw string) string {
	name := strings.TrimSpace(raw)
	if ext := path.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	// keep caller-supplied codes stable: underscores are word separators
	name = strings.ReplaceAll(name, "_", " ")
	name = invalidChars.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	code := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	code = multiUnderbar.ReplaceAllString(code, "_")
	return strings.Trim(code, "_")
}

// FromURL derives a code from the basename of a remote URL, falling
// back to the given name when the URL has no usable path.
func FromURL(rawURL, fallbackName string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			if code := Normalize(base); code != "" {
				return code
			}
		}
	}
	return Normalize(fallbackName)
}

// Slugify converts a display name into a URL path segment: lowercase,
// alphanumerics kept, runs of whitespace and hyphens collapsed into a
// single hyphen.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpace.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// maxResolveAttempts bounds the collision-suffix loop; in practice a
// handful of suffixes suffice.
const maxResolveAttempts = 1000

// TakenFunc reports whether a code is already used by a DIFFERENT row
// in the store's image table (the row being updated must be excluded by
// the caller).
type TakenFunc func(ctx context.Context, code string) (bool, error)

// ResolveUnique returns proposed unchanged when it is free, otherwise
// appends _1, _2, ... until an unused code is found.
//
// The check-then-write is not atomic against concurrent writers: two
// writers can both pass this pre-check. The unique index is the source
// of truth; callers retry resolution when the insert reports a
// unique-index conflict.
func ResolveUnique(ctx context.Context, proposed string, taken TakenFunc) (string, error) {
	code := proposed
	for i := 1; i <= maxResolveAttempts; i++ {
		used, err := taken(ctx, code)
		if err != nil {
			return "", err
		}
		if !used {
			return code, nil
		}
		code = fmt.Sprintf("%s_%d", proposed, i)
	}
	return "", fmt.Errorf("could not resolve unique image code for %q", proposed)
}
