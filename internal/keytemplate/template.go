// Package keytemplate renders cache and rate-limit keys from templates such
// as "{username}_posts:page_{page}" against request parameters.
package keytemplate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrUnresolved = errors.New("unresolved placeholder")
	ErrResourceID = errors.New("could not infer id for resource being cached")
)

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// DefaultResourceIDField is tried when the declared field is absent.
const DefaultResourceIDField = "id"

// Context holds the values placeholders resolve against.
type Context map[string]string

// Merge builds a Context from layers in priority order: a name already set
// by an earlier layer is not overwritten by a later one.
func Merge(layers ...map[string]string) Context {
	ctx := make(Context)
	for _, layer := range layers {
		for k, v := range layer {
			if _, ok := ctx[k]; !ok {
				ctx[k] = v
			}
		}
	}
	return ctx
}

// Render substitutes every {name} in tmpl. Text outside placeholders,
// including wildcard characters, is kept verbatim.
func Render(tmpl string, ctx Context) (string, error) {
	var missing string
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := ctx[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return m
		}
		return v
	})

	if missing != "" {
		return "", fmt.Errorf("%w {%s} in %q", ErrUnresolved, missing, tmpl)
	}
	return out, nil
}

// ResourceID looks up field first and falls back to "id".
func ResourceID(ctx Context, field string) (string, error) {
	if field != "" {
		if v := ctx[field]; v != "" {
			return v, nil
		}
	}
	if v := ctx[DefaultResourceIDField]; v != "" {
		return v, nil
	}
	return "", ErrResourceID
}

// Key renders tmpl and appends the resolved resource id: "<prefix>:<id>".
func Key(tmpl string, ctx Context, idField string) (string, error) {
	prefix, err := Render(tmpl, ctx)
	if err != nil {
		return "", err
	}

	id, err := ResourceID(ctx, idField)
	if err != nil {
		return "", err
	}

	return prefix + ":" + id, nil
}

// IsPattern reports whether s uses glob syntax understood by a key scan.
func IsPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
