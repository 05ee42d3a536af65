package etherscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/opensource-finance/preflight/internal/domain"
)

const testContract = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"

func TestCheckVerified(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   domain.Verification
		err    bool
	}{
		{"Verified", http.StatusOK, `{"status":"1","message":"OK","result":"[{\"type\":\"function\"}]"}`, domain.VerificationVerified, false},
		{"Unverified", http.StatusOK, `{"status":"0","message":"NOTOK","result":"Contract source code not verified"}`, domain.VerificationUnverified, false},
		{"InvalidKey", http.StatusOK, `{"status":"0","message":"NOTOK","result":"Invalid API Key"}`, domain.VerificationUnknown, false},
		{"RateLimited", http.StatusOK, `{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`, domain.VerificationUnknown, true},
		{"OtherNotOK", http.StatusOK, `{"status":"0","message":"NOTOK","result":"Invalid Address format"}`, domain.VerificationUnknown, true},
		{"ServerError", http.StatusBadGateway, `oops`, domain.VerificationUnknown, true},
		{"Malformed", http.StatusOK, `{`, domain.VerificationUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("module") != "contract" || q.Get("action") != "getabi" {
					t.Errorf("unexpected query %s", r.URL.RawQuery)
				}
				if q.Get("address") != testContract || q.Get("apikey") != "key" {
					t.Errorf("unexpected address/key in %s", r.URL.RawQuery)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(Config{BaseURL: srv.URL, APIKey: "key", RequestsPerSecond: 1000})
			got, err := c.CheckVerified(context.Background(), testContract)
			if (err != nil) != tt.err {
				t.Fatalf("err = %v, want error %v", err, tt.err)
			}
			if got != tt.want {
				t.Errorf("CheckVerified() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCheckVerifiedWithoutKey(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	for _, key := range []string{"", "YourEtherscanApiKeyHere"} {
		c := New(Config{BaseURL: srv.URL, APIKey: key})
		if c.HasKey() {
			t.Errorf("HasKey() = true for %q", key)
		}
		got, err := c.CheckVerified(context.Background(), testContract)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != domain.VerificationUnknown {
			t.Errorf("CheckVerified() = %s, want unknown", got)
		}
	}

	if hits.Load() != 0 {
		t.Errorf("server called %d times without a key", hits.Load())
	}
}

func TestCheckVerifiedCanceled(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1", APIKey: "key"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := c.CheckVerified(ctx, testContract)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if got != domain.VerificationUnknown {
		t.Errorf("CheckVerified() = %s, want unknown", got)
	}
}
