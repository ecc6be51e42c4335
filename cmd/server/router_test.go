package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/yucheyahyasukaca/trainingcenter/internal/auth"
	"github.com/yucheyahyasukaca/trainingcenter/internal/certificates"
	"github.com/yucheyahyasukaca/trainingcenter/internal/registrations"
	"github.com/yucheyahyasukaca/trainingcenter/internal/webinars"
)

type noTokens struct{}

func (noTokens) Validate(string) (*auth.Identity, error) { return nil, errors.New("invalid") }

func testRouter(health func(context.Context) error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return newRouter(routerDeps{
		tokens:        noTokens{},
		corsOrigins:   "*",
		webinars:      webinars.NewHandler(nil, nil),
		registrations: registrations.NewHandler(nil, nil),
		certificates:  certificates.NewHandler(nil, nil, nil, nil),
		healthCheck:   health,
	})
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouter_Health(t *testing.T) {
	w := serve(testRouter(func(context.Context) error { return nil }), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"status":"ok"}}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve(testRouter(func(context.Context) error { return errors.New("down") }), http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_IssueRequiresAdmin(t *testing.T) {
	w := serve(testRouter(nil), http.MethodPost, "/webinars/w1/issue-certificates")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_MeRequiresToken(t *testing.T) {
	r := testRouter(nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me/registrations").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me/certificates").Code)
}

func TestRouter_MalformedSlugIsNotFound(t *testing.T) {
	r := testRouter(nil)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/webinars/Not_A_Slug").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPost, "/webinars/Not_A_Slug/register").Code)
}
