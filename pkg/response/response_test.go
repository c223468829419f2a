package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

func TestErrorSetsLocationForRedirects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Error(c, appErrors.WithRedirect(appErrors.ErrLoginRequired, "/api/v1/auth/login"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/api/v1/auth/login", rec.Header().Get("Location"))

	var body struct {
		Error appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "LOGIN_REQUIRED", body.Error.Code)
	assert.Equal(t, "/api/v1/auth/login", body.Error.Redirect)
}

func TestErrorHidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Error(c, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestErrorWithDataKeepsPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	ErrorWithData(c, appErrors.ErrInvalidStatus, gin.H{"applications": []string{"a1"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"applications":["a1"]`)
	assert.Contains(t, rec.Body.String(), `"INVALID_STATUS"`)
}
