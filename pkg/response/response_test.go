package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
	"github.com/noah-isme/officer-registry-api/pkg/middleware/requestid"
)

func serve(t *testing.T, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.GET("/officers/:id", handler)
	req := httptest.NewRequest(http.MethodGet, "/officers/off-1", nil)
	req.Header.Set(requestid.HeaderKey, "req-9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorEnvelopeCarriesRequestID(t *testing.T) {
	w := serve(t, func(c *gin.Context) { Error(c, appErrors.ErrNotFound) })

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	var env struct {
		Error *appErrors.Error       `json:"error"`
		Meta  map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrNotFound.Code, env.Error.Code)
	assert.Equal(t, "req-9", env.Meta["request_id"])
}

func TestAttachment(t *testing.T) {
	w := serve(t, func(c *gin.Context) {
		Attachment(c, "transfers_D-101.csv", "text/csv; charset=utf-8", []byte("a,b\n"))
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="transfers_D-101.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "a,b\n", w.Body.String())
}
