package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/yucheyahyasukaca/trainingcenter/internal/auth"
)

type stubValidator struct {
	identities map[string]*auth.Identity
}

func (s stubValidator) Validate(token string) (*auth.Identity, error) {
	if id, ok := s.identities[token]; ok {
		return id, nil
	}
	return nil, errors.New("invalid")
}

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/who", func(c *gin.Context) {
		if id := CurrentUser(c); id != nil {
			c.String(http.StatusOK, id.UserID.String())
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return r
}

func doGet(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOptionalJWT(t *testing.T) {
	user := &auth.Identity{UserID: uuid.New(), Role: "participant"}
	r := newTestRouter(OptionalJWT(stubValidator{identities: map[string]*auth.Identity{"good": user}}))

	t.Run("valid_token", func(t *testing.T) {
		w := doGet(r, "Bearer good")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, user.UserID.String(), w.Body.String())
	})
	t.Run("invalid_token_is_anonymous", func(t *testing.T) {
		w := doGet(r, "Bearer bad")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "anonymous", w.Body.String())
	})
	t.Run("no_header", func(t *testing.T) {
		assert.Equal(t, "anonymous", doGet(r, "").Body.String())
	})
}

func TestJWT(t *testing.T) {
	user := &auth.Identity{UserID: uuid.New()}
	r := newTestRouter(JWT(stubValidator{identities: map[string]*auth.Identity{"good": user}}))

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Token good").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Bearer bad").Code)
	assert.Equal(t, http.StatusOK, doGet(r, "Bearer good").Code)
}

func TestRequireRole(t *testing.T) {
	v := stubValidator{identities: map[string]*auth.Identity{
		"admin":       {UserID: uuid.New(), Role: auth.RoleAdmin},
		"participant": {UserID: uuid.New(), Role: "participant"},
	}}
	r := newTestRouter(OptionalJWT(v), RequireRole(auth.RoleAdmin))

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
	assert.Equal(t, http.StatusForbidden, doGet(r, "Bearer participant").Code)
	assert.Equal(t, http.StatusOK, doGet(r, "Bearer admin").Code)
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(RequestID())

	w := doGet(r, "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	r := newTestRouter(CORS("http://localhost:3000"))

	req := httptest.NewRequest(http.MethodOptions, "/who", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
