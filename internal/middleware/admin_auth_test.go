package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

// adminRouter mounts two admin routes and counts how often they are reached.
func adminRouter(apiKey string, reached *int) *gin.Engine {
	r := gin.New()
	admin := r.Group("/admin", AdminAuthMiddleware(apiKey))
	handler := func(c *gin.Context) {
		*reached++
		c.Status(http.StatusNoContent)
	}
	admin.POST("/instruments/seed", handler)
	admin.PUT("/instruments/:symbol/price", handler)
	return r
}

// parseBody decodes a JSON response, failing the test on malformed output.
func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result), rec.Body.String())
	return result
}

func adminCall(r *gin.Engine, method, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAdminAuthMiddleware(t *testing.T) {
	const key = "k3y-for-admin-ops"

	cases := []struct {
		name       string
		configured string
		sent       string
		status     int
		code       string
	}{
		{"matching key", key, key, http.StatusNoContent, ""},
		{"wrong key", key, "nope", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"no header", key, "", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"prefix of key", key, key[:5], http.StatusUnauthorized, "INVALID_API_KEY"},
		{"key with suffix", key, key + "x", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"admin disabled", "", "anything", http.StatusServiceUnavailable, "ADMIN_NOT_CONFIGURED"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var reached int
			r := adminRouter(tc.configured, &reached)

			for _, call := range []struct{ method, path string }{
				{http.MethodPost, "/admin/instruments/seed"},
				{http.MethodPut, "/admin/instruments/TCS/price"},
			} {
				rec := adminCall(r, call.method, call.path, tc.sent)
				assert.Equal(t, tc.status, rec.Code, call.path)

				if tc.code == "" {
					continue
				}
				errObj, _ := parseBody(t, rec)["error"].(map[string]interface{})
				assert.Equal(t, tc.code, errObj["code"])
			}

			if tc.code == "" {
				assert.Equal(t, 2, reached)
			} else {
				assert.Zero(t, reached, "handler must not run on rejected requests")
			}
		})
	}
}
