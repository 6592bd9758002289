package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// IPAllowlist restricts the administrative endpoints to loopback plus a
// configured list of IPs or CIDR ranges. An empty list means localhost
// only.
type IPAllowlist struct {
	logger     *logrus.Logger
	allowedIPs []string
}

func NewIPAllowlist(logger *logrus.Logger, allowedIPs []string) *IPAllowlist {
	return &IPAllowlist{logger: logger, allowedIPs: allowedIPs}
}

// Restrict rejects requests from addresses outside the allowlist.
func (l *IPAllowlist) Restrict() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if l.isAllowed(clientIP) {
			c.Next()
			return
		}

		// A proxy may have rewritten ClientIP; a direct loopback
		// connection is still acceptable.
		remoteIP, _, _ := net.SplitHostPort(c.Request.RemoteAddr)
		if remoteIP != clientIP && isLoopback(remoteIP) {
			c.Next()
			return
		}

		l.logger.WithFields(logrus.Fields{
			"client_ip": clientIP,
			"remote_ip": remoteIP,
			"path":      c.Request.URL.Path,
			"method":    c.Request.Method,
		}).Warn("rejected non-allowlisted access to admin API")

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "this API is only accessible from allowed IP addresses",
			"code":    "IP_NOT_ALLOWED",
		})
	}
}

func isLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ip == "localhost"
	}
	return parsed.IsLoopback()
}

func (l *IPAllowlist) isAllowed(ip string) bool {
	if isLoopback(ip) {
		return true
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	for _, allowed := range l.allowedIPs {
		allowed = strings.TrimSpace(allowed)
		if strings.Contains(allowed, "/") {
			_, ipNet, err := net.ParseCIDR(allowed)
			if err != nil {
				l.logger.WithField("cidr", allowed).Warn("invalid CIDR in admin allowlist")
				continue
			}
			if ipNet.Contains(parsed) {
				return true
			}
			continue
		}
		if allowedIP := net.ParseIP(allowed); allowedIP != nil && allowedIP.Equal(parsed) {
			return true
		}
	}
	return false
}
