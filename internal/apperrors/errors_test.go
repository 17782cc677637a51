package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{Unauthorized(""), http.StatusUnauthorized},
		{Forbidden(""), http.StatusForbidden},
		{NotFound("User not found"), http.StatusNotFound},
		{Duplicate("Username not available"), http.StatusConflict},
		{RateLimited(""), http.StatusTooManyRequests},
		{StoreUnavailable("", errors.New("dial tcp")), http.StatusServiceUnavailable},
		{Validation([]string{"x"}), http.StatusUnprocessableEntity},
		{BadRequest("bad"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, Status(tt.err), tt.err.Error())
	}
}

func TestWrappedErrorsKeepTheirKind(t *testing.T) {
	base := NotFound("Post not found")
	wrapped := fmt.Errorf("loading post 7: %w", base)

	assert.Equal(t, http.StatusNotFound, Status(wrapped))
	assert.Equal(t, "Post not found", Public(wrapped))
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindForbidden))
}

func TestPublicHidesInternalDetail(t *testing.T) {
	cause := errors.New("pq: relation \"users\" does not exist")

	assert.Equal(t, "Internal Server Error", Public(cause))
	assert.Equal(t, "Internal Server Error", Public(Wrap(KindInternal, "query failed", cause)))

	unavailable := StoreUnavailable("Rate limit store unavailable", cause)
	assert.Equal(t, "Rate limit store unavailable", Public(unavailable))
	assert.ErrorIs(t, unavailable, cause)
}

func TestValidationDetails(t *testing.T) {
	err := Validation([]string{"username is required", "Invalid email format"})
	assert.Equal(t, []string{"username is required", "Invalid email format"}, Details(err))
	assert.Nil(t, Details(errors.New("plain")))
}
