package http

import (
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

type securityMetrics struct {
	rateLimitHits      int64
	suspiciousRequests int64
}

// Forwarding headers are honoured only from loopback and private ranges,
// where a reverse proxy in front of the radar would live.
var trustedProxies = mustParseCIDRs("127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16")

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic("bad trusted proxy CIDR " + c + ": " + err.Error())
		}
		nets = append(nets, n)
	}
	return nets
}

func fromTrustedProxy(ip net.IP) bool {
	for _, n := range trustedProxies {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP returns the peer address, or the first forwarded address
// when the peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	ip := net.ParseIP(peer)
	if ip == nil || !fromTrustedProxy(ip) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return peer
}

// Nothing under the radar API looks like these; seeing one means someone
// is scanning the host.
var (
	probeFragments = []string{
		"../", "..\\", ".env", ".git", ".ssh", "wp-admin", "wp-login",
		"phpmyadmin", ".php", "etc/passwd", "cmd.exe", "<script",
		"javascript:", "union select", "eval(",
	}
	scannerAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirbuster", "masscan",
		"zgrab", "nuclei", "wpscan",
	}
)

const maxURLLength = 2048

// suspicionReason names what makes r look like a probe, or returns "".
// Plain command line clients such as curl are expected callers of this API
// and are not flagged.
func suspicionReason(r *http.Request) string {
	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	for _, f := range probeFragments {
		if strings.Contains(target, f) {
			return "probe pattern " + f
		}
	}

	ua := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(ua, a) {
			return "scanner user agent " + a
		}
	}

	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", http.MethodConnect:
		return "unusual method " + r.Method
	}

	if len(r.URL.String()) > maxURLLength {
		return "oversized URL"
	}
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		return "long forwarding chain"
	}
	return ""
}

// detectSuspiciousRequest counts and returns the reason r was flagged.
func detectSuspiciousRequest(r *http.Request, metrics *securityMetrics) (string, bool) {
	reason := suspicionReason(r)
	if reason == "" {
		return "", false
	}
	if metrics != nil {
		atomic.AddInt64(&metrics.suspiciousRequests, 1)
	}
	return reason, true
}
