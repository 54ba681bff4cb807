package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"postpulse/internal/router"
	"postpulse/internal/services"
	"postpulse/internal/testutils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	engine *gin.Engine
	conn   *gorm.DB
	tokens *services.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn := testutils.NewDB(t)
	posts, err := services.NewPostService(conn, 16, time.Minute)
	require.NoError(t, err)
	tokens := services.NewTokenService("test-jwt-secret", time.Hour)
	// 测试请求没有真实的对端地址，只依赖请求头
	ledger := services.NewLedger(posts, services.NewGormStore(conn), services.IdentityResolver{UseRemoteAddr: false}, nil, nil)

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-session-secret"))))
	router.RegisterRoutes(r, router.Deps{
		Ledger: ledger,
		Posts:  posts,
		Users:  services.NewUserService(conn),
		Tokens: tokens,
	})
	return &testServer{engine: r, conn: conn, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
