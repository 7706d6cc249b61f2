package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/alumni/internal/core"
)

// WithRequestMetadata stores the client address and user agent for the
// import audit trail.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.WithClient(ctx, clientIP(r), r.UserAgent())
}

// clientIP returns the host part of RemoteAddr, which TrustedRealIP has
// already replaced when the request came through a trusted proxy.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
