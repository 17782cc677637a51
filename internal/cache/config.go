package cache

import (
	"errors"
	"time"
)

// Config declares how one route is cached and what its writes invalidate.
//
// On GET the response is read through KeyTemplate rendered with the
// request's path and query parameters, suffixed with ":" and the resource id.
// On any other method, after a 2xx response, the same key is deleted along
// with every key matching InvalidationPatterns and every "prefix:id" pair in
// ExtraInvalidation (both sides are templates).
type Config struct {
	KeyTemplate     string
	ResourceIDField string

	// Zero uses the cache default.
	Expiration time.Duration

	// Paginated adds normalized page and items_per_page to the template context.
	Paginated bool

	InvalidationPatterns []string
	ExtraInvalidation    map[string]string
}

func (c Config) Validate() error {
	if c.KeyTemplate == "" && len(c.InvalidationPatterns) == 0 && len(c.ExtraInvalidation) == 0 {
		return errors.New("cache config needs a key template or something to invalidate")
	}
	if c.Expiration < 0 {
		return errors.New("cache expiration must not be negative")
	}
	return nil
}
