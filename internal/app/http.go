package app

import (
	"net"
	"net/http"
	"time"
)

// newOutboundHTTPClient builds the shared client behind search and page
// fetches. One itinerary request fans out to five category searches plus a
// page fetch per selected result, so the per-host idle pool is kept large and
// connect-phase timeouts short. The overall ceiling is a safety net; per-fetch
// deadlines come from the gateway.
func newOutboundHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   1024,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}
