package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth([]string{"key-1", "key-2"}))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, AdminID(c))
	})
	return r
}

func doGet(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRejectsMissingAPIKey(t *testing.T) {
	w := doGet(authTestRouter(), nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing X-API-Key header")
}

func TestAuthRejectsInvalidAPIKey(t *testing.T) {
	w := doGet(authTestRouter(), map[string]string{"X-API-Key": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid API key")
}

func TestAuthRequiresAdminIdentity(t *testing.T) {
	w := doGet(authTestRouter(), map[string]string{"X-API-Key": "key-1"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing X-Admin-ID header")
}

func TestAuthExposesAdminID(t *testing.T) {
	w := doGet(authTestRouter(), map[string]string{
		"X-API-Key":  "key-2",
		"X-Admin-ID": "admin-7",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-7", w.Body.String())
}
