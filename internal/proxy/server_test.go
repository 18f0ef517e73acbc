package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newUpstream records the last request it saw and answers with a fixed body
func newUpstream(t *testing.T, status int, body string) (*httptest.Server, chan *http.Request) {
	t.Helper()
	seen := make(chan *http.Request, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Clone(context.Background())
		w.Header().Set("Access-Control-Allow-Origin", "https://upstream.example")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func newProxy(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Hub().Close()
		srv.Close()
	})
	return srv
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Target: "https://dev3.xicomtechnologies.com/xttest"}, false},
		{"prefix without slash", Config{Target: "http://a.test", PathPrefix: "api"}, false},
		{"missing target", Config{}, true},
		{"bad scheme", Config{Target: "ftp://a.test"}, true},
		{"no host", Config{Target: "http://"}, true},
		{"root prefix", Config{Target: "http://a.test", PathPrefix: "/"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStripPrefix(t *testing.T) {
	tests := []struct {
		path, prefix, want string
	}{
		{"/api/getdata.php", "/api", "/getdata.php"},
		{"/api", "/api", "/"},
		{"/api/", "/api/", "/"},
		{"/apiary/x", "/api", "/apiary/x"},
		{"/other", "", "/other"},
	}
	for _, tt := range tests {
		if got := stripPrefix(tt.path, tt.prefix); got != tt.want {
			t.Errorf("stripPrefix(%q, %q) = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
	}
}

func TestProxy_ForwardsWithPrefixStripped(t *testing.T) {
	upstream, seen := newUpstream(t, http.StatusOK, `{"status":"success","images":[]}`)
	proxy := newProxy(t, Config{Target: upstream.URL + "/xttest"})

	req, _ := http.NewRequest(http.MethodPost, proxy.URL+"/api/getdata.php?x=1", strings.NewReader("user_id=108"))
	req.Header.Set("Origin", "http://localhost:8081")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"status":"success","images":[]}` {
		t.Errorf("body = %s", body)
	}

	got := <-seen
	if got.URL.Path != "/xttest/getdata.php" {
		t.Errorf("upstream path = %s, want /xttest/getdata.php", got.URL.Path)
	}
	if got.URL.RawQuery != "x=1" {
		t.Errorf("upstream query = %s, want x=1", got.URL.RawQuery)
	}
	if got.Method != http.MethodPost {
		t.Errorf("upstream method = %s, want POST", got.Method)
	}
	if got.Header.Get(RequestIDHeader) == "" {
		t.Error("upstream should receive the request ID")
	}

	if origin := resp.Header.Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want * (upstream value must be replaced)", origin)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("response should carry X-Request-ID")
	}
}

func TestProxy_KeepsIncomingRequestID(t *testing.T) {
	upstream, seen := newUpstream(t, http.StatusOK, "ok")
	proxy := newProxy(t, Config{Target: upstream.URL})

	req, _ := http.NewRequest(http.MethodGet, proxy.URL+"/api/savedata.php", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	resp.Body.Close()

	if resp.Header.Get(RequestIDHeader) != "abc-123" {
		t.Errorf("response request ID = %q, want abc-123", resp.Header.Get(RequestIDHeader))
	}
	if got := <-seen; got.Header.Get(RequestIDHeader) != "abc-123" {
		t.Errorf("upstream request ID = %q, want abc-123", got.Header.Get(RequestIDHeader))
	}
}

func TestProxy_PassesUpstreamStatus(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusBadRequest, "bad")
	proxy := newProxy(t, Config{Target: upstream.URL})

	resp, err := http.Post(proxy.URL+"/api/savedata.php", "text/plain", nil)
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 from upstream", resp.StatusCode)
	}
}

func TestProxy_UnreachableTarget(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	deadURL := "http://" + ln.Addr().String()
	ln.Close()

	proxy := newProxy(t, Config{Target: deadURL})

	resp, err := http.Post(proxy.URL+"/api/getdata.php", "text/plain", nil)
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != ErrorBody {
		t.Errorf("body = %q, want %q", body, ErrorBody)
	}
}

func TestProxy_Preflight(t *testing.T) {
	upstream, seen := newUpstream(t, http.StatusOK, "ok")
	proxy := newProxy(t, Config{Target: upstream.URL})

	req, _ := http.NewRequest(http.MethodOptions, proxy.URL+"/api/savedata.php", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "POST") {
		t.Errorf("Allow-Methods = %q, want POST", resp.Header.Get("Access-Control-Allow-Methods"))
	}
	if resp.Header.Get("Access-Control-Allow-Headers") != "content-type" {
		t.Errorf("Allow-Headers = %q, want content-type", resp.Header.Get("Access-Control-Allow-Headers"))
	}
	select {
	case <-seen:
		t.Error("preflight should not reach the upstream")
	default:
	}
}

func TestProxy_AllowedOrigins(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusOK, "ok")
	proxy := newProxy(t, Config{Target: upstream.URL, AllowedOrigins: []string{"http://localhost:8081/"}})

	tests := []struct {
		origin string
		want   string
	}{
		{"http://localhost:8081", "http://localhost:8081"},
		{"http://evil.test", ""},
		{"", ""},
	}

	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, proxy.URL+"/api/getdata.php", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request error = %v", err)
		}
		resp.Body.Close()

		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %q: Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestProxy_OutsidePrefixIsNotForwarded(t *testing.T) {
	upstream, seen := newUpstream(t, http.StatusOK, "ok")
	proxy := newProxy(t, Config{Target: upstream.URL})

	resp, err := http.Get(proxy.URL + "/getdata.php")
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	select {
	case <-seen:
		t.Error("request outside the prefix should not reach the upstream")
	default:
	}
}

func TestProxy_Health(t *testing.T) {
	proxy := newProxy(t, Config{Target: "http://upstream.test/xttest"})

	resp, err := http.Get(proxy.URL + "/healthz")
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	defer resp.Body.Close()

	var health HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if health.Status != "ok" || health.Target != "http://upstream.test/xttest" || health.PathPrefix != "/api" {
		t.Errorf("health = %+v", health)
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusOK, "ok")
	s, err := New(Config{Target: upstream.URL})
	if err != nil {
		t.Fatal(err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	// Wait until the server answers
	url := "http://" + ln.Addr().String() + "/healthz"
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never became ready: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil after Shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Serve() did not return after Shutdown")
	}
}

func TestServer_ShutdownBeforeServe(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusOK, "ok")
	s, err := New(Config{Target: upstream.URL})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil after Shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() kept running after an earlier Shutdown")
	}
}
