package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/types"
)

func performWithHeaders(t *testing.T, headers map[string]string) types.Actor {
	t.Helper()
	gin.SetMode(gin.ReleaseMode)

	var got types.Actor

	e := gin.New()
	e.Use(ActorMiddleware())
	e.GET("/", func(c *gin.Context) {
		got = GetActor(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	e.ServeHTTP(httptest.NewRecorder(), req)

	return got
}

func TestActorMiddlewareParsesIdentity(t *testing.T) {
	actor := performWithHeaders(t, map[string]string{
		HeaderUser: "alice@example.com",
		HeaderRole: "admin",
	})

	if actor.UserUID != "alice@example.com" || !actor.IsAdmin {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestActorMiddlewareAnonymousInRelease(t *testing.T) {
	actor := performWithHeaders(t, nil)

	if actor.UserUID != "" || actor.IsAdmin {
		t.Fatalf("missing headers must yield an anonymous actor: %+v", actor)
	}
}

func TestActorMiddlewareNonAdminRole(t *testing.T) {
	actor := performWithHeaders(t, map[string]string{
		HeaderUser: "bob",
		HeaderRole: "member",
	})

	if actor.UserUID != "bob" || actor.IsAdmin {
		t.Fatalf("non-admin role must not grant admin: %+v", actor)
	}
}
