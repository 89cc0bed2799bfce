package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealer/backend/internal/infrastructure/logger"
	"github.com/dealer/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantMiddleware(t *testing.T) {
	tenantID := uuid.New()

	var gotTenant uuid.UUID
	var gotUser, ctxTenant string
	router := gin.New()
	router.Use(RequestID(), TenantMiddleware())
	handler := func(c *gin.Context) {
		gotTenant = GetTenantUUID(c)
		gotUser = GetUserName(c)
		ctxTenant = logger.GetTenantID(c.Request.Context())
		c.Status(http.StatusOK)
	}
	router.GET("/api/v1/deals", handler)
	router.GET("/api/v1/public/documents/:token", handler)
	router.GET("/health", handler)

	t.Run("sets tenant and user from headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/deals", nil)
		req.Header.Set(TenantHeaderKey, tenantID.String())
		req.Header.Set(UserNameHeaderKey, " Sam Patel ")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tenantID, gotTenant)
		assert.Equal(t, "Sam Patel", gotUser)
		assert.Equal(t, tenantID.String(), ctxTenant)
	})

	t.Run("rejects missing tenant", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/deals", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("rejects malformed and nil tenant", func(t *testing.T) {
		for _, v := range []string{"acme", uuid.Nil.String()} {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/deals", nil)
			req.Header.Set(TenantHeaderKey, v)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code, v)
		}
	})

	t.Run("skips public and health paths", func(t *testing.T) {
		for _, path := range []string{"/api/v1/public/documents/abc", "/health"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code, path)
			assert.Equal(t, uuid.Nil, gotTenant)
		}
	})
}
