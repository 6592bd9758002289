package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newAllowlistRouter(t *testing.T, allowedIPs []string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	r := gin.New()
	l := NewIPAllowlist(logger, allowedIPs)
	r.GET("/admin/status", l.Restrict(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func allowlistRequest(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIPAllowlistRestrict(t *testing.T) {
	cases := []struct {
		name       string
		allowedIPs []string
		remoteAddr string
		wantCode   int
	}{
		{"loopback always allowed", nil, "127.0.0.1:9999", http.StatusOK},
		{"external rejected with empty allowlist", nil, "203.0.113.5:1234", http.StatusForbidden},
		{"exact ip allowed", []string{"203.0.113.5"}, "203.0.113.5:1234", http.StatusOK},
		{"cidr range allowed", []string{"10.0.0.0/8"}, "10.1.2.3:555", http.StatusOK},
		{"ip outside cidr rejected", []string{"10.0.0.0/8"}, "192.0.2.7:555", http.StatusForbidden},
		{"invalid cidr entry skipped", []string{"not-a-cidr/xx"}, "192.0.2.7:555", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newAllowlistRouter(t, tc.allowedIPs)
			w := allowlistRequest(r, tc.remoteAddr)
			assert.Equal(t, tc.wantCode, w.Code)
			if tc.wantCode == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), "IP_NOT_ALLOWED")
			}
		})
	}
}
