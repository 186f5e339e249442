package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func perform(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestSuccess(t *testing.T) {
	w, body := perform(t, func(c *gin.Context) { Success(c, gin.H{"id": 1}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, map[string]interface{}{"id": float64(1)}, body.Data)
}

func TestErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		h      gin.HandlerFunc
		status int
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "nope") }, http.StatusBadRequest},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "nope") }, http.StatusForbidden},
		{"not found", func(c *gin.Context) { NotFound(c, "nope") }, http.StatusNotFound},
		{"internal", func(c *gin.Context) { InternalError(c, errors.New("boom")) }, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := perform(t, tc.h)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.status, body.Code)
			assert.Nil(t, body.Data)
		})
	}
}
