package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
)

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not_found", models.ErrNotFound("webinar %q not found", "x"), http.StatusNotFound, `webinar "x" not found`},
		{"unauthorized", models.ErrUnauthorized("login required"), http.StatusUnauthorized, "login required"},
		{"forbidden", models.ErrForbidden("admins only"), http.StatusForbidden, "admins only"},
		{"precondition_wrapped", fmt.Errorf("issue: %w", models.ErrPreconditionFailed("not ended")), http.StatusPreconditionFailed, "not ended"},
		{"untyped", errors.New("connection refused"), http.StatusInternalServerError, "something failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Error(c, tt.err, "something failed")

			assert.Equal(t, tt.status, w.Code)
			var body Body
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Error)
			assert.Equal(t, tt.status < 500, IsClientError(tt.err))
		})
	}
}

func TestFailKeepsData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Fail(c, http.StatusInternalServerError, gin.H{"webinars": []int{}}, "failed to list webinars")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"data":{"webinars":[]},"error":"failed to list webinars"}`, w.Body.String())
}
