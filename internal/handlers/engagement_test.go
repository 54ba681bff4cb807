package handlers_test

import (
	"net/http"
	"testing"

	"postpulse/internal/services"
	"postpulse/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagement_Scenario(t *testing.T) {
	s := newTestServer(t)
	testutils.CreatePost(t, s.conn, "hello")

	w := s.do(t, http.MethodGet, "/api/posts/hello/views", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]int{"views": 0}, decode[map[string]int](t, w))

	// tokA 浏览两次只计一次
	w = s.do(t, http.MethodPost, "/api/posts/hello/views", map[string]string{"clientId": "tokA"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.ViewResult{Viewed: true, Views: 1}, decode[services.ViewResult](t, w))

	w = s.do(t, http.MethodPost, "/api/posts/hello/views", map[string]string{"clientId": "tokA"}, nil)
	assert.Equal(t, services.ViewResult{Viewed: false, Views: 1}, decode[services.ViewResult](t, w))

	// 同一个 IP 换 token 仍然是同一访客
	ip := http.Header{"X-Forwarded-For": {"198.51.100.7, 10.0.0.1"}}
	w = s.do(t, http.MethodPost, "/api/posts/hello/views", map[string]string{"clientId": "tokB"}, ip)
	assert.Equal(t, services.ViewResult{Viewed: true, Views: 2}, decode[services.ViewResult](t, w))
	w = s.do(t, http.MethodPost, "/api/posts/hello/views", map[string]string{"clientId": "tokC"}, ip)
	assert.Equal(t, services.ViewResult{Viewed: false, Views: 2}, decode[services.ViewResult](t, w))

	// 点赞切换
	w = s.do(t, http.MethodPost, "/api/posts/hello/likes", map[string]string{"clientId": "tokA"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.LikeResult{Liked: true, Count: 1}, decode[services.LikeResult](t, w))

	w = s.do(t, http.MethodGet, "/api/posts/hello/likes?clientId=tokA", nil, nil)
	assert.Equal(t, services.LikeState{Count: 1, HasLiked: true}, decode[services.LikeState](t, w))
	w = s.do(t, http.MethodGet, "/api/posts/hello/likes?clientId=tokZ", nil, nil)
	assert.Equal(t, services.LikeState{Count: 1, HasLiked: false}, decode[services.LikeState](t, w))
	w = s.do(t, http.MethodGet, "/api/posts/hello/likes", nil, nil)
	assert.Equal(t, services.LikeState{Count: 1, HasLiked: false}, decode[services.LikeState](t, w))

	w = s.do(t, http.MethodPost, "/api/posts/hello/likes", map[string]string{"clientId": "tokA"}, nil)
	assert.Equal(t, services.LikeResult{Liked: false, Count: 0}, decode[services.LikeResult](t, w))

	w = s.do(t, http.MethodGet, "/api/posts/hello/views", nil, nil)
	assert.Equal(t, map[string]int{"views": 2}, decode[map[string]int](t, w))
}

func TestEngagement_AnonymousRequests(t *testing.T) {
	s := newTestServer(t)
	testutils.CreatePost(t, s.conn, "hello")

	// 没有任何身份信号：浏览不计数但成功返回
	w := s.do(t, http.MethodPost, "/api/posts/hello/views", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.ViewResult{Viewed: false, Views: 0}, decode[services.ViewResult](t, w))

	// 点赞必须能识别身份
	w = s.do(t, http.MethodPost, "/api/posts/hello/likes", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w), "error")

	// 非法请求体按"没有 clientId"处理
	w = s.do(t, http.MethodPost, "/api/posts/hello/likes", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/posts/hello/views", "{not json", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEngagement_NotFound(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/posts/missing"},
		{http.MethodGet, "/api/posts/missing/views"},
		{http.MethodPost, "/api/posts/missing/views"},
		{http.MethodGet, "/api/posts/missing/likes"},
		{http.MethodPost, "/api/posts/missing/likes"},
	} {
		w := s.do(t, tc.method, tc.path, map[string]string{"clientId": "tokA"}, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, map[string]string{"error": "Post not found"}, decode[map[string]string](t, w))
	}
}

func TestEngagement_VerifiedEmailOutranksToken(t *testing.T) {
	s := newTestServer(t)
	testutils.CreatePost(t, s.conn, "hello")
	user := testutils.CreateUser(t, s.conn, "reader@example.com", "x", "PUBLIC")
	token, err := s.tokens.Issue(user)
	require.NoError(t, err)
	auth := http.Header{"Authorization": {"Bearer " + token}}

	w := s.do(t, http.MethodPost, "/api/posts/hello/likes", map[string]string{"clientId": "shared"}, auth)
	assert.Equal(t, services.LikeResult{Liked: true, Count: 1}, decode[services.LikeResult](t, w))

	// 同一个 token 的匿名访客是另一个身份
	w = s.do(t, http.MethodPost, "/api/posts/hello/likes", map[string]string{"clientId": "shared"}, nil)
	assert.Equal(t, services.LikeResult{Liked: true, Count: 2}, decode[services.LikeResult](t, w))

	w = s.do(t, http.MethodGet, "/api/posts/hello/likes?clientId=other", nil, auth)
	assert.Equal(t, services.LikeState{Count: 2, HasLiked: true}, decode[services.LikeState](t, w))
}

func TestEngagement_Reconcile(t *testing.T) {
	s := newTestServer(t)
	post := testutils.CreatePost(t, s.conn, "hello")
	admin := testutils.CreateUser(t, s.conn, "admin@example.com", "x", "ADMIN")
	reader := testutils.CreateUser(t, s.conn, "reader@example.com", "x", "PUBLIC")

	s.do(t, http.MethodPost, "/api/posts/hello/views", map[string]string{"clientId": "tokA"}, nil)
	require.NoError(t, s.conn.Table("posts").Where("id = ?", post.ID).Update("views", 42).Error)

	w := s.do(t, http.MethodPost, "/api/posts/hello/views/reconcile", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	readerToken, err := s.tokens.Issue(reader)
	require.NoError(t, err)
	w = s.do(t, http.MethodPost, "/api/posts/hello/views/reconcile", nil, http.Header{"Authorization": {"Bearer " + readerToken}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken, err := s.tokens.Issue(admin)
	require.NoError(t, err)
	w = s.do(t, http.MethodPost, "/api/posts/hello/views/reconcile", nil, http.Header{"Authorization": {"Bearer " + adminToken}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]int{"views": 1}, decode[map[string]int](t, w))
}

func TestPostDetail(t *testing.T) {
	s := newTestServer(t)
	testutils.CreatePost(t, s.conn, "hello")
	s.do(t, http.MethodPost, "/api/posts/hello/likes", map[string]string{"clientId": "tokA"}, nil)

	w := s.do(t, http.MethodGet, "/api/posts/hello", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "hello", body["slug"])
	assert.Contains(t, body["content_html"], "<h1")
	assert.EqualValues(t, 1, body["likes"])
	assert.EqualValues(t, 0, body["views"])
	author, ok := body["author"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, author, "password")
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
