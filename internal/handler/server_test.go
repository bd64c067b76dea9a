package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	h := New(Deps{
		Identity: new(MockIdentityProvider),
		Sessions: NewSessionManager(testSessionSecret, time.Hour, false),
	})
	e, err := NewServer(h, false)
	require.NoError(t, err)

	t.Run("ヘルスチェックとセキュリティヘッダー", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	})

	t.Run("CSRFトークンの無いPOSTは拒否する", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader("x=1"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.GreaterOrEqual(t, rec.Code, http.StatusBadRequest)
		assert.NotContains(t, rec.Body.String(), "ログアウトしました")
	})
}
