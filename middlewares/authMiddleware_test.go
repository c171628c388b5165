package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bitbucket.org/mmdatafocus/transfer_console/utils"
	"github.com/gin-gonic/gin"
)

func authRouter(t *testing.T) (*gin.Engine, *int) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var seenUserId int
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		if id, ok := utils.GetUserIdFromContext(c.Request.Context()); ok {
			seenUserId = id
		}
		c.Status(http.StatusNoContent)
	})
	return r, &seenUserId
}

func doAuth(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddlewarePassThroughWithoutHeader(t *testing.T) {
	r, _ := authRouter(t)
	if rec := doAuth(r, ""); rec.Code != http.StatusNoContent {
		t.Errorf("no header: status %d, want 204", rec.Code)
	}
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	t.Setenv("TOKEN_HOUR_LIFESPAN", "1")
	token, err := utils.JwtGenerate(7, "Aye Chan")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	r, seenUserId := authRouter(t)
	if rec := doAuth(r, "Bearer "+token); rec.Code != http.StatusNoContent {
		t.Fatalf("valid token: status %d, want 204", rec.Code)
	}
	if *seenUserId != 7 {
		t.Errorf("user id in context = %d, want 7", *seenUserId)
	}
}

func TestAuthMiddlewareRejectsMalformedHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"shorter than the scheme", "Bear"},
		{"wrong scheme", "Token abc.def.ghi"},
		{"scheme only", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := authRouter(t)
			if rec := doAuth(r, tt.header); rec.Code != http.StatusUnauthorized {
				t.Errorf("status %d, want 401", rec.Code)
			}
		})
	}
}
