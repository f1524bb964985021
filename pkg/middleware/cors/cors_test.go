package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func request(allowed []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(allowed))
	r.GET("/officers", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/officers", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(method, "/officers", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListedOriginMayUseCredentials(t *testing.T) {
	w := request([]string{"https://registry.example/"}, http.MethodGet, "https://registry.example")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://registry.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestOpenPolicyNeverSendsCredentials(t *testing.T) {
	w := request(nil, http.MethodGet, "https://anywhere.example")

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestPreflight(t *testing.T) {
	allowed := []string{"https://registry.example"}

	ok := request(allowed, http.MethodOptions, "https://registry.example")
	assert.Equal(t, http.StatusNoContent, ok.Code)
	assert.Contains(t, ok.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	denied := request(allowed, http.MethodOptions, "https://evil.example")
	assert.Equal(t, http.StatusForbidden, denied.Code)
	assert.Empty(t, denied.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnlistedOriginGetsNoAllowHeader(t *testing.T) {
	w := request([]string{"https://registry.example"}, http.MethodGet, "https://evil.example")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
