package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/margindesk/margindesk_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func whoami(c *gin.Context) {
	id, _ := utils.GetUserIdFromContext(c.Request.Context())
	role, _ := utils.GetRoleFromContext(c.Request.Context())
	cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"id": id, "role": role, "cid": cid, "triggered_by": utils.TriggeredBy(c.Request.Context())})
}

func serve(r *gin.Engine, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCorrelationIdIsEchoedOrGenerated(t *testing.T) {
	r := gin.New()
	r.Use(CorrelationMiddleware())
	r.GET("/me", whoami)

	w := serve(r, map[string]string{CorrelationHeader: "abc-1"})
	assert.Equal(t, "abc-1", w.Header().Get(CorrelationHeader))
	assert.Contains(t, w.Body.String(), `"cid":"abc-1"`)

	w = serve(r, nil)
	assert.Len(t, w.Header().Get(CorrelationHeader), 36)
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	r := gin.New()
	r.Use(AuthMiddleware("k", true))
	r.GET("/me", whoami)

	assert.Equal(t, http.StatusUnauthorized, serve(r, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, map[string]string{"Authorization": "Bearer junk"}).Code)
}

func TestAuthPutsClaimsInContext(t *testing.T) {
	tok, err := utils.JwtGenerate("k", 42, "finance", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.Use(AuthMiddleware("k", true))
	r.GET("/me", whoami)

	w := serve(r, map[string]string{"Authorization": "Bearer " + tok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":42`)
	assert.Contains(t, w.Body.String(), `"role":"finance"`)
	assert.Contains(t, w.Body.String(), `"triggered_by":"user:42"`)
}

func TestAuthOptionalLetsAnonymousThrough(t *testing.T) {
	r := gin.New()
	r.Use(AuthMiddleware("k", false))
	r.GET("/me", whoami)

	w := serve(r, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"triggered_by":"manual"`)
	assert.Equal(t, http.StatusUnauthorized, serve(r, map[string]string{"token": "junk"}).Code)
}
