package handle

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/errs"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		kind errs.Kind
		want int
	}{
		{errs.KindValidation, http.StatusBadRequest},
		{errs.KindAuthentication, http.StatusUnauthorized},
		{errs.KindAuthorization, http.StatusForbidden},
		{errs.KindNotFound, http.StatusNotFound},
		{errs.KindConflict, http.StatusConflict},
		{errs.KindPreconditionFailed, http.StatusPreconditionFailed},
		{errs.KindPreconditionRequired, http.StatusPreconditionRequired},
		{errs.KindLocked, http.StatusLocked},
		{errs.KindStorage, http.StatusBadGateway},
		{errs.KindInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := statusOf(tc.kind); got != tc.want {
			t.Errorf("statusOf(%s) = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestIfMatchHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		header string
		want   string
	}{
		{`"abc123"`, "abc123"},
		{`W/"abc123"`, "abc123"},
		{"abc123", "abc123"},
		{"  abc123  ", "abc123"},
		{"", ""},
	}

	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPatch, "/", nil)

		if tc.header != "" {
			c.Request.Header.Set("If-Match", tc.header)
		}

		if got := ifMatchHeader(c); got != tc.want {
			t.Errorf("ifMatchHeader(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestWriteErrorSerializesKindAndCode(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/files/x", nil)

	writeError(c, errs.NotFound("file_not_found", "file %s not found", "x"))

	if w.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", w.Code)
	}

	if !strings.Contains(w.Body.String(), "file_not_found") {
		t.Fatalf("response must carry the machine code: %s", w.Body.String())
	}
}
