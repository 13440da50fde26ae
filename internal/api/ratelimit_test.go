package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPLimiterBurstExhaustion(t *testing.T) {
	// Refill is negligible at this rate, so exactly burst requests pass.
	l := newIPLimiter(0.001, 3)

	for i := range 3 {
		if !l.allow("10.0.0.1") {
			t.Fatalf("request %d denied, want burst of 3 allowed", i+1)
		}
	}
	if l.allow("10.0.0.1") {
		t.Error("request past the burst allowed, want denied")
	}
}

func TestIPLimiterBucketsPerIP(t *testing.T) {
	l := newIPLimiter(0.001, 1)

	if !l.allow("10.0.0.1") {
		t.Fatal("first request from 10.0.0.1 denied")
	}
	if l.allow("10.0.0.1") {
		t.Error("second request from 10.0.0.1 allowed, bucket should be empty")
	}
	if !l.allow("10.0.0.2") {
		t.Error("request from 10.0.0.2 denied, buckets must be independent")
	}
}

func TestIPLimiterSweepDropsStaleBuckets(t *testing.T) {
	l := newIPLimiter(0.001, 1)

	l.allow("10.0.0.1")
	l.allow("10.0.0.2")

	// Age one bucket past the stale threshold and force the next allow to
	// run a sweep.
	l.mu.Lock()
	l.buckets["10.0.0.1"].lastSeen = time.Now().Add(-limiterStaleAfter - time.Minute)
	l.lastSweep = time.Now().Add(-limiterSweepInterval - time.Minute)
	l.mu.Unlock()

	l.allow("10.0.0.3")

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.buckets["10.0.0.1"]; ok {
		t.Error("stale bucket for 10.0.0.1 survived the sweep")
	}
	if _, ok := l.buckets["10.0.0.2"]; !ok {
		t.Error("fresh bucket for 10.0.0.2 was swept")
	}
	if _, ok := l.buckets["10.0.0.3"]; !ok {
		t.Error("bucket for 10.0.0.3 missing after allow")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{
			name:       "remote addr host port",
			remoteAddr: "192.0.2.10:54321",
			want:       "192.0.2.10",
		},
		{
			name:       "proxy headers ignored when untrusted",
			remoteAddr: "192.0.2.10:54321",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			want:       "192.0.2.10",
		},
		{
			name:       "x real ip wins when trusted",
			remoteAddr: "192.0.2.10:54321",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			trustProxy: true,
			want:       "203.0.113.7",
		},
		{
			name:       "first forwarded for entry",
			remoteAddr: "192.0.2.10:54321",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 198.51.100.2"},
			trustProxy: true,
			want:       "203.0.113.7",
		},
		{
			name:       "garbage header falls through to remote addr",
			remoteAddr: "192.0.2.10:54321",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			trustProxy: true,
			want:       "192.0.2.10",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.0.2.10",
			want:       "192.0.2.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
