// Package response writes JSON bodies with sonic and maps errors to
// {"error": message} bodies.
package response

import (
	"net/http"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const ContentTypeJSON = "application/json; charset=utf-8"

var jsonAPI = sonic.Config{
	EscapeHTML:           false,
	SortMapKeys:          false,
	CompactMarshaler:     true,
	NoQuoteTextMarshaler: true,
	NoNullSliceOrMap:     true,
}.Froze()

// Marshal encodes v exactly as JSON responses are encoded.
func Marshal(v any) ([]byte, error) {
	return jsonAPI.Marshal(v)
}

type SonicJSON struct {
	Data any
}

func (r SonicJSON) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)
	b, err := jsonAPI.Marshal(r.Data)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func (r SonicJSON) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentTypeJSON)
}

func JSON(c *gin.Context, status int, data any) {
	c.Render(status, SonicJSON{Data: data})
}

func Message(c *gin.Context, status int, message string) {
	JSON(c, status, gin.H{"message": message})
}

// Error aborts the chain with the error's status and public message.
// Server faults are logged with their cause; the caller only sees the message.
func Error(c *gin.Context, err error) {
	status := apperrors.Status(err)
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}

	body := gin.H{"error": apperrors.Public(err)}
	if details := apperrors.Details(err); len(details) > 0 {
		body["details"] = details
	}

	c.Header("Cache-Control", "no-store")
	c.Abort()
	JSON(c, status, body)
}
