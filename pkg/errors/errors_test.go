package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, ErrInternal.Message, appErr.Message)
}

func TestCloneDoesNotShareFields(t *testing.T) {
	base := Validation("invalid", map[string]string{"email": "required"})
	clone := Clone(base, "other")
	clone.Fields["email"] = "changed"

	assert.Equal(t, "required", base.Fields["email"])
	assert.Equal(t, "other", clone.Message)
}

func TestWithRedirectLeavesSentinelUntouched(t *testing.T) {
	redirected := WithRedirect(ErrCVRequired, "/api/v1/profile")
	assert.Equal(t, "/api/v1/profile", redirected.Redirect)
	assert.Empty(t, ErrCVRequired.Redirect)
}

func TestIsMatchesByCode(t *testing.T) {
	err := Wrap(errors.New("dup"), ErrAlreadyApplied.Code, ErrAlreadyApplied.Status, "already")
	assert.True(t, Is(err, ErrAlreadyApplied))
	assert.False(t, Is(err, ErrNotFound))
	assert.False(t, Is(errors.New("plain"), ErrNotFound))
}
