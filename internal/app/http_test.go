package app

import (
	"net/http"
	"testing"
)

func TestNewOutboundHTTPClient(t *testing.T) {
	t.Parallel()
	c := newOutboundHTTPClient()
	if c.Timeout == 0 {
		t.Fatalf("expected non-zero overall timeout")
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", c.Transport)
	}
	if tr.MaxIdleConnsPerHost < 100 {
		t.Fatalf("idle pool too small for the per-request fan-out: %d", tr.MaxIdleConnsPerHost)
	}
	if tr == http.DefaultTransport {
		t.Fatalf("must not share the default transport")
	}
}
