package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldenvr/stagepass/internal/models"
)

func newCheckoutRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true

	handler := NewCheckoutHandler(nil, nil, nil, nil, nil, nil)
	r.POST("/v1/checkout", handler.Create)
	return r
}

func postCheckout(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func responseCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Code
}

func TestCheckoutMissingEventID(t *testing.T) {
	r := newCheckoutRouter()
	w := postCheckout(t, r, `{"email":"buyer@example.com","items":[{"unit_id":"5e0a0f0a-0000-0000-0000-000000000001","quantity":1}]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.CodeMissingEventID, responseCode(t, w))
}

func TestCheckoutMissingEmail(t *testing.T) {
	r := newCheckoutRouter()
	w := postCheckout(t, r, `{"event_id":"5e0a0f0a-0000-0000-0000-000000000001","items":[{"unit_id":"5e0a0f0a-0000-0000-0000-000000000002","quantity":1}]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.CodeMissingEmail, responseCode(t, w))
}

func TestCheckoutNoItems(t *testing.T) {
	r := newCheckoutRouter()

	w := postCheckout(t, r, `{"event_id":"5e0a0f0a-0000-0000-0000-000000000001","email":"buyer@example.com","items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.CodeNoItems, responseCode(t, w))

	// Omitting the list entirely behaves the same as sending it empty.
	w = postCheckout(t, r, `{"event_id":"5e0a0f0a-0000-0000-0000-000000000001","email":"buyer@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.CodeNoItems, responseCode(t, w))
}

func TestCheckoutMalformedBody(t *testing.T) {
	r := newCheckoutRouter()
	w := postCheckout(t, r, `{"event_id":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutMethodNotAllowed(t *testing.T) {
	r := newCheckoutRouter()
	req := httptest.NewRequest(http.MethodGet, "/v1/checkout", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
