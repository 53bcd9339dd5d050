package errcodes

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsConflict(t *testing.T) {
	t.Parallel()

	assert.True(t, IsConflict(Conflict("dup")))
	assert.True(t, IsConflict(errors.Wrap(Conflict("dup"), "insert book")))
	assert.False(t, IsConflict(NotFound("Book")))
	assert.False(t, IsConflict(errors.New("boom")))
	assert.False(t, IsConflict(nil))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFound(errors.WithStack(NotFound("Book"))))
	assert.False(t, IsNotFound(Conflict("dup")))
}

func TestPayloadFor(t *testing.T) {
	t.Parallel()

	code, payload := payloadFor(NotFound("Book"))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", payload["error"].(map[string]interface{})["code"])

	code, payload = payloadFor(echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"))
	assert.Equal(t, http.StatusMethodNotAllowed, code)
	assert.Equal(t, "method_not_allowed", payload["error"].(map[string]interface{})["code"])

	code, payload = payloadFor(errors.New("database exploded"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal Server Error", payload["error"].(map[string]interface{})["message"])
}
