package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	h := NewHandler(nil, nil, nil, nil, nil)
	h.SetupRoutes(router)

	// SetupRoutes owns the middleware chain: recovery, metrics, logging,
	// each installed exactly once.
	assert.Len(t, router.Handlers, 3)

	paths := make(map[string]bool)
	for _, route := range router.Routes() {
		paths[route.Method+" "+route.Path] = true
	}
	assert.True(t, paths["POST /api/v1/orders"])
	assert.True(t, paths["POST /api/v1/orders/:id/pay"])
	assert.True(t, paths["POST /api/v1/areas/:id/queue/call-next"])
	assert.True(t, paths["POST /api/v1/print-jobs/:id/retry"])
	assert.True(t, paths["GET /metrics"])

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
