package cache

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/aman-churiwal/blog-api/internal/keytemplate"
	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const headerCache = "X-Cache"

// bodyWriter tees everything the handler writes.
type bodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Handler returns the caching middleware for one route. It panics on an
// invalid config, like route registration does.
func (c *Cache) Handler(cfg Config) gin.HandlerFunc {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	return func(ctx *gin.Context) {
		kctx, ok := templateContext(ctx, cfg)
		if !ok {
			// Bad pagination input: let the handler reject it uncached.
			ctx.Next()
			return
		}

		if ctx.Request.Method == http.MethodGet {
			c.readThrough(ctx, cfg, kctx)
			return
		}

		ctx.Next()

		if status := ctx.Writer.Status(); status >= 200 && status < 300 {
			c.invalidate(ctx, cfg, kctx)
		}
	}
}

func (c *Cache) readThrough(ctx *gin.Context, cfg Config, kctx keytemplate.Context) {
	if cfg.KeyTemplate == "" {
		ctx.Next()
		return
	}

	key, err := keytemplate.Key(cfg.KeyTemplate, kctx, cfg.ResourceIDField)
	if err != nil {
		response.Error(ctx, apperrors.Wrap(apperrors.KindInternal, "cache key", err))
		return
	}

	entry, hit, err := c.Get(ctx.Request.Context(), key)
	if err != nil {
		response.Error(ctx, apperrors.StoreUnavailable("Cache store unavailable", err))
		return
	}
	if hit {
		ctx.Header(headerCache, "HIT")
		ctx.Data(entry.Status, entry.ContentType, entry.Body)
		ctx.Abort()
		return
	}

	ctx.Header(headerCache, "MISS")
	w := &bodyWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
	ctx.Writer = w

	ctx.Next()

	if w.Status() != http.StatusOK || len(ctx.Errors) > 0 {
		return
	}

	err = c.Set(ctx.Request.Context(), key, Entry{
		Status:      w.Status(),
		ContentType: w.Header().Get("Content-Type"),
		Body:        w.body.Bytes(),
	}, cfg.Expiration)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to store cached response")
	}
}

func (c *Cache) invalidate(ctx *gin.Context, cfg Config, kctx keytemplate.Context) {
	var keys, patterns []string

	if cfg.KeyTemplate != "" {
		key, err := keytemplate.Key(cfg.KeyTemplate, kctx, cfg.ResourceIDField)
		if err != nil {
			log.Warn().Err(err).Str("template", cfg.KeyTemplate).Msg("skipping cache key invalidation")
		} else {
			keys = append(keys, key)
		}
	}

	for prefixTmpl, idTmpl := range cfg.ExtraInvalidation {
		prefix, err := keytemplate.Render(prefixTmpl, kctx)
		if err != nil {
			log.Warn().Err(err).Msg("skipping extra cache invalidation")
			continue
		}
		id, err := keytemplate.Render(idTmpl, kctx)
		if err != nil {
			log.Warn().Err(err).Msg("skipping extra cache invalidation")
			continue
		}
		keys = append(keys, prefix+":"+id)
	}

	for _, tmpl := range cfg.InvalidationPatterns {
		p, err := keytemplate.Render(tmpl, kctx)
		if err != nil {
			log.Warn().Err(err).Str("pattern", tmpl).Msg("skipping cache pattern invalidation")
			continue
		}
		patterns = append(patterns, p)
	}

	if _, err := c.Invalidate(ctx.Request.Context(), keys, patterns); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Strs("patterns", patterns).Msg("cache invalidation incomplete")
	}
}

// templateContext merges path params over query params. Paginated routes
// get normalized page values on top; false means they did not parse.
func templateContext(ctx *gin.Context, cfg Config) (keytemplate.Context, bool) {
	pathParams := make(map[string]string, len(ctx.Params))
	for _, p := range ctx.Params {
		pathParams[p.Key] = p.Value
	}

	query := make(map[string]string)
	for k, v := range ctx.Request.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	if !cfg.Paginated {
		return keytemplate.Merge(pathParams, query), true
	}

	params, err := models.ParsePageParams(ctx.Query("page"), ctx.Query("items_per_page"))
	if err != nil {
		return nil, false
	}
	page := map[string]string{
		"page":           strconv.Itoa(params.Page),
		"items_per_page": strconv.Itoa(params.ItemsPerPage),
	}
	return keytemplate.Merge(page, pathParams, query), true
}
